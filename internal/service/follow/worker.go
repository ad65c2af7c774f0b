package follow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"github.com/KNICEX/hyper-follow/internal/repo"
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/shopspring/decimal"
)

const (
	queueCapacity         = 1024
	queuePollTimeout      = time.Second
	stopLossCheckInterval = 10 * time.Second
	stopTimeout           = 5 * time.Second
	maxLeverage           = 125
)

// 仓位上限比较的浮点容差
var positionEpsilon = decimal.New(1, -8)

// Worker 单租户跟单 worker
// 消费监控 worker 转发的持仓变更事件，按配置镜像为交易所市价单，
// 自身的状态变化（熔断、凭证失效、基准余额捕获）通过 repo 回写持久层
type Worker struct {
	tenantID int64
	repo     repo.FollowRepo
	factory  exchange.ClientFactory

	settings atomic.Pointer[entity.FollowSettings]
	queue    chan *feed.TradeEvent
	stopFlag atomic.Bool

	mu     sync.Mutex // 保护生命周期字段
	done   chan struct{}
	cancel context.CancelFunc

	// 以下仅 worker goroutine 访问
	client            exchange.Service
	tripped           bool
	lastStopLossCheck time.Time
}

func NewWorker(tenantID int64, settings entity.FollowSettings, followRepo repo.FollowRepo, factory exchange.ClientFactory) *Worker {
	w := &Worker{
		tenantID: tenantID,
		repo:     followRepo,
		factory:  factory,
		queue:    make(chan *feed.TradeEvent, queueCapacity),
	}
	w.settings.Store(&settings)
	return w
}

func (w *Worker) Settings() entity.FollowSettings {
	return *w.settings.Load()
}

// UpdateSettings 原子替换配置快照，处理中的事件仍看到旧的完整快照
func (w *Worker) UpdateSettings(settings entity.FollowSettings) {
	w.settings.Store(&settings)
}

// Running 是否有存活的执行 goroutine
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done != nil
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.stopFlag.Store(false)
	go w.run(ctx, done)
	slog.Info("follower started", "tenant", w.tenantID)
}

// Enqueue 非阻塞入队，队列满时丢弃最新事件
// 由事件源线程调用，绝不阻塞投递方
func (w *Worker) Enqueue(event *feed.TradeEvent) {
	// nil 是内部停止哨兵，不接受外部投递
	if event == nil {
		return
	}
	settings := w.settings.Load()
	if !settings.Enabled || w.stopFlag.Load() {
		return
	}
	select {
	case w.queue <- event:
	default:
		slog.Warn("follower queue full, dropping newest event", "tenant", w.tenantID, "coin", event.Coin)
	}
}

// Stop 幂等停止：置停止标志、入队哨兵解除队列等待、限时等待 goroutine 退出
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	w.stopFlag.Store(true)
	select {
	case w.queue <- nil:
	default:
	}
	cancel()
	select {
	case <-done:
		slog.Info("follower stopped", "tenant", w.tenantID)
	case <-time.After(stopTimeout):
		slog.Warn("follower stop timed out, abandoning goroutine", "tenant", w.tenantID)
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("follower worker panic", "tenant", w.tenantID, "panic", r)
		}
	}()

	for !w.stopFlag.Load() {
		select {
		case <-ctx.Done():
			return
		case event := <-w.queue:
			if event == nil {
				return
			}
			w.processEvent(ctx, event)
		case <-time.After(queuePollTimeout):
			w.periodicStopLossCheck(ctx)
		}
	}
}

func (w *Worker) periodicStopLossCheck(ctx context.Context) {
	if time.Since(w.lastStopLossCheck) < stopLossCheckInterval {
		return
	}
	w.lastStopLossCheck = time.Now()
	w.checkStopLoss(ctx)
}

func (w *Worker) processEvent(ctx context.Context, event *feed.TradeEvent) {
	settings := w.settings.Load()
	if !settings.Enabled {
		return
	}
	if settings.WalletAddress != "" && !strings.EqualFold(event.Address, settings.WalletAddress) {
		return
	}

	if w.checkStopLoss(ctx) {
		return
	}

	symbol := MapSymbol(event.Coin)
	if symbol.IsZero() {
		slog.Warn("follower event has no mappable symbol, skipped", "tenant", w.tenantID, "coin", event.Coin)
		return
	}

	side := DetermineSide(event)
	if side == "" {
		slog.Debug("follower cannot determine side, skipped", "tenant", w.tenantID, "kind", event.Kind)
		return
	}

	quantity := CalcQuantity(settings, event)
	if quantity.Sign() <= 0 {
		slog.Debug("follower computed zero quantity, skipped", "tenant", w.tenantID, "kind", event.Kind)
		return
	}
	if settings.MinOrderSize > 0 && quantity.LessThan(decimal.NewFromFloat(settings.MinOrderSize)) {
		slog.Info("follower quantity below minimum, skipped",
			"tenant", w.tenantID, "quantity", quantity.String(), "min", settings.MinOrderSize)
		return
	}

	client := w.ensureClient(ctx)
	if client == nil {
		return
	}

	if lev := event.Details.Leverage; lev > 0 {
		w.ensureLeverage(ctx, client, symbol, lev)
	}

	if !w.checkMaxPosition(ctx, client, symbol, quantity, event.Kind) {
		return
	}

	w.placeMarketOrder(ctx, client, symbol, side, quantity, event.Kind.IsReduce())

	// 单笔订单本身就可能触发熔断
	w.checkStopLoss(ctx)
}

// ensureClient 首次使用时构造交易所客户端
// 构造失败为终止性错误；首次连接成功时捕获一次基准余额并回写
func (w *Worker) ensureClient(ctx context.Context) exchange.Service {
	if w.client != nil {
		return w.client
	}
	settings := w.settings.Load()
	client, err := w.factory.New(settings.APIKey, settings.APISecret)
	if err != nil {
		slog.Error("follower exchange client init failed", "tenant", w.tenantID, "error", err)
		w.terminate(ctx, entity.FollowStatusDisabled, fmt.Sprintf("exchange client init failed: %v", err))
		return nil
	}
	w.client = client

	if settings.BaselineBalance == nil {
		info, err := client.AccountService().GetAccountInfo(ctx)
		if err != nil {
			slog.Error("follower baseline balance fetch failed", "tenant", w.tenantID, "error", err)
		} else {
			baseline := info.TotalBalance.InexactFloat64()
			next := *settings
			next.BaselineBalance = &baseline
			next.Status = entity.FollowStatusActive
			next.StopReason = ""
			w.settings.Store(&next)

			enabled := true
			status := entity.FollowStatusActive
			reason := ""
			if err := w.repo.UpdateStatus(ctx, w.tenantID, repo.FollowStatusUpdate{
				Enabled:         &enabled,
				Status:          &status,
				StopReason:      &reason,
				BaselineBalance: &baseline,
			}); err != nil {
				slog.Error("follower baseline persist failed", "tenant", w.tenantID, "error", err)
			}
			slog.Info("follower baseline balance captured", "tenant", w.tenantID, "baseline", baseline)
		}
	}
	return w.client
}

// checkStopLoss 熔断检查，触发时返回 true 并自行停止
// 一旦触发不会自动恢复，需要上层显式重新启用
func (w *Worker) checkStopLoss(ctx context.Context) bool {
	settings := w.settings.Load()
	if !settings.Enabled {
		return false
	}
	client := w.ensureClient(ctx)
	if client == nil {
		return false
	}
	// ensureClient 可能刚捕获了基准余额，重新取快照
	settings = w.settings.Load()
	if settings.StopLoss <= 0 || settings.BaselineBalance == nil {
		return false
	}

	info, err := client.AccountService().GetAccountInfo(ctx)
	if err != nil {
		slog.Warn("follower balance fetch failed, skipping stop-loss check", "tenant", w.tenantID, "error", err)
		return false
	}

	loss := decimal.NewFromFloat(*settings.BaselineBalance).Sub(info.TotalBalance)
	threshold := decimal.NewFromFloat(settings.StopLoss)
	if loss.LessThan(threshold) {
		return false
	}

	reason := fmt.Sprintf("loss %s >= threshold %s", loss.StringFixed(2), threshold.StringFixed(2))
	slog.Warn("follower stop loss triggered", "tenant", w.tenantID,
		"loss", loss.StringFixed(2), "threshold", threshold.StringFixed(2))
	w.tripped = true
	w.terminate(ctx, entity.FollowStatusStoppedByLoss, reason)
	return true
}

// terminate 终止性停止：禁用本地快照、回写状态、让处理循环退出
func (w *Worker) terminate(ctx context.Context, status, reason string) {
	settings := w.settings.Load()
	next := *settings
	next.Enabled = false
	next.Status = status
	next.StopReason = reason
	w.settings.Store(&next)

	enabled := false
	if err := w.repo.UpdateStatus(ctx, w.tenantID, repo.FollowStatusUpdate{
		Enabled:    &enabled,
		Status:     &status,
		StopReason: &reason,
	}); err != nil {
		slog.Error("follower status persist failed", "tenant", w.tenantID, "status", status, "error", err)
	}
	w.stopFlag.Store(true)
}

func (w *Worker) ensureLeverage(ctx context.Context, client exchange.Service, symbol exchange.Symbol, leverage int) {
	if leverage < 1 || leverage > maxLeverage {
		return
	}
	if err := client.PositionService().SetLeverage(ctx, symbol, leverage); err != nil {
		// 杠杆设置失败不阻塞下单
		slog.Warn("follower set leverage failed", "tenant", w.tenantID,
			"symbol", symbol.ToString(), "leverage", leverage, "error", err)
	}
}

func (w *Worker) checkMaxPosition(ctx context.Context, client exchange.Service, symbol exchange.Symbol, quantity decimal.Decimal, kind feed.EventKind) bool {
	settings := w.settings.Load()
	if settings.MaxPosition <= 0 || kind.IsReduce() {
		return true
	}
	current, err := client.PositionService().GetPositionAmount(ctx, symbol)
	if err != nil {
		slog.Warn("follower position query failed", "tenant", w.tenantID, "symbol", symbol.ToString(), "error", err)
		return true
	}
	limit := decimal.NewFromFloat(settings.MaxPosition).Add(positionEpsilon)
	if current.Abs().Add(quantity).GreaterThan(limit) {
		slog.Info("follower order would exceed max position, skipped",
			"tenant", w.tenantID, "symbol", symbol.ToString(),
			"current", current.Abs().String(), "quantity", quantity.String(), "max", settings.MaxPosition)
		return false
	}
	return true
}

func (w *Worker) placeMarketOrder(ctx context.Context, client exchange.Service, symbol exchange.Symbol, side exchange.Side, quantity decimal.Decimal, reduceOnly bool) {
	orderId, err := client.TradingService().CreateMarketOrder(ctx, exchange.MarketOrderReq{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		ReduceOnly: reduceOnly,
	})
	if err != nil {
		slog.Warn("follower market order failed", "tenant", w.tenantID,
			"symbol", symbol.ToString(), "side", side, "quantity", quantity.String(), "error", err)
		return
	}
	slog.Info("follower market order placed", "tenant", w.tenantID,
		"symbol", symbol.ToString(), "side", side, "quantity", quantity.String(),
		"reduceOnly", reduceOnly, "orderId", orderId)
}
