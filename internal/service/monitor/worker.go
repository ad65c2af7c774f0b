package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KNICEX/hyper-follow/internal/schedule"
	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/KNICEX/hyper-follow/internal/service/notification"
	"github.com/KNICEX/hyper-follow/pkg/fifoset"
)

const (
	dedupWindowSize = 1000
	snapshotSpec    = "@every 4h"
	stopTimeout     = 10 * time.Second
)

// Worker 单租户监控 worker
// 订阅钱包事件、去重后推送通知，并把事件转发给同租户的跟单 worker
type Worker struct {
	feedSvc  feed.Feed
	dispatch func(*feed.TradeEvent)

	cfg   atomic.Pointer[Config]
	state atomic.Int32

	mu      sync.Mutex // 保护生命周期字段
	cancel  context.CancelFunc
	done    chan struct{}
	startAt time.Time

	seen *fifoset.Set // 仅 worker goroutine 访问
}

func NewWorker(cfg Config, feedSvc feed.Feed, dispatch func(*feed.TradeEvent)) *Worker {
	if dispatch == nil {
		dispatch = func(*feed.TradeEvent) {}
	}
	w := &Worker{
		feedSvc:  feedSvc,
		dispatch: dispatch,
		seen:     fifoset.New(dedupWindowSize),
	}
	normalized := cfg.Normalize()
	w.cfg.Store(&normalized)
	return w
}

func (w *Worker) Config() Config {
	return *w.cfg.Load()
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

// Running 工作 goroutine 是否存活
// 订阅失败或事件流关闭会让 goroutine 自行退出，此时返回 false
func (w *Worker) Running() bool {
	return w.State() == StateRunning
}

// Start 启动监控，配置不完整时拒绝启动并返回 false
func (w *Worker) Start() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done != nil {
		return true
	}
	cfg := w.cfg.Load()
	w.state.Store(int32(StateStarting))
	if len(cfg.Wallets) == 0 {
		slog.Warn("monitor not started: no wallet addresses", "tenant", cfg.TenantID)
		w.state.Store(int32(StateIdle))
		return false
	}
	if !cfg.HasTelegram() && !cfg.HasWebhook() {
		slog.Warn("monitor not started: no enabled channel", "tenant", cfg.TenantID)
		w.state.Store(int32(StateIdle))
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.startAt = time.Now()
	w.state.Store(int32(StateRunning))
	go w.run(ctx, done)
	slog.Info("monitor started", "tenant", cfg.TenantID, "wallets", len(cfg.Wallets))
	return true
}

// Stop 幂等停止，限时等待 worker goroutine 退出，超时放弃并记录
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
	w.state.Store(int32(StateStopping))
	cancel()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("monitor stop timed out, abandoning goroutine", "tenant", w.cfg.Load().TenantID)
	}
	w.state.Store(int32(StateStopped))
	slog.Info("monitor stopped", "tenant", w.cfg.Load().TenantID)
}

// UpdateConfig 热更新配置，必要时立即补发一次快照
func (w *Worker) UpdateConfig(cfg Config, forceSnapshot bool) {
	normalized := cfg.Normalize()
	w.cfg.Store(&normalized)
	if forceSnapshot && w.State() == StateRunning {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			w.sendSnapshot(ctx)
		}()
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("monitor worker panic", "tenant", w.cfg.Load().TenantID, "panic", r)
		}
		// 自行退出（订阅失败、事件流关闭）也要离开运行态，注册表据此判活
		w.state.Store(int32(StateStopped))
	}()

	cfg := w.cfg.Load()
	events, err := w.feedSvc.Subscribe(ctx, cfg.Wallets)
	if err != nil {
		slog.Error("monitor subscribe failed", "tenant", cfg.TenantID, "error", err)
		return
	}

	runner := schedule.NewCronRunner()
	if err := runner.Add(ctx, snapshotSpec, &snapshotTask{worker: w}); err != nil {
		slog.Error("monitor schedule snapshot failed", "tenant", cfg.TenantID, "error", err)
	}
	runner.Start()
	defer runner.Stop()

	w.sendSnapshot(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				slog.Info("monitor event stream closed", "tenant", cfg.TenantID)
				return
			}
			w.handleEvent(ctx, &event)
		}
	}
}

func (w *Worker) handleEvent(ctx context.Context, event *feed.TradeEvent) {
	cfg := w.cfg.Load()

	// 启动前的历史成交不当作新事件
	if event.Timestamp.Before(w.startAt) {
		slog.Debug("monitor discarding pre-start event", "tenant", cfg.TenantID, "hash", event.Hash)
		return
	}
	if !w.seen.Add(event.DedupKey()) {
		slog.Debug("monitor duplicate event suppressed", "tenant", cfg.TenantID, "hash", event.Hash)
		return
	}

	text := notification.FormatTradeEvent(event, cfg.Language)
	w.channels(cfg).Send(ctx, text)
	w.dispatch(event)
}

func (w *Worker) sendSnapshot(ctx context.Context) {
	cfg := w.cfg.Load()
	channels := w.channels(cfg)
	for _, wallet := range cfg.Wallets {
		positions, err := w.feedSvc.FetchPositions(ctx, wallet)
		if err != nil {
			slog.Error("monitor snapshot fetch failed", "tenant", cfg.TenantID, "wallet", wallet, "error", err)
			continue
		}
		channels.Send(ctx, notification.FormatSnapshot(wallet, positions, cfg.Language))
	}
}

func (w *Worker) channels(cfg *Config) notification.Channels {
	var channels notification.Channels
	if cfg.HasTelegram() {
		channels = append(channels, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.HasWebhook() {
		channels = append(channels, notification.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookMentions))
	}
	return channels
}

type snapshotTask struct {
	worker *Worker
}

func (t *snapshotTask) Run(ctx context.Context) error {
	t.worker.sendSnapshot(ctx)
	return nil
}

func (t *snapshotTask) Name() string {
	return "wallet snapshot"
}
