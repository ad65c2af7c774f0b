package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"github.com/KNICEX/hyper-follow/internal/repo"
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/KNICEX/hyper-follow/internal/service/follow"
	"github.com/KNICEX/hyper-follow/internal/service/monitor"
)

// Registry 租户 worker 注册表，配置入口按注册表级互斥串行化
// 保证任一时刻每个租户至多一个存活的监控 worker 和一个跟单 worker
type Registry struct {
	feedSvc    feed.Feed
	followRepo repo.FollowRepo
	factory    exchange.ClientFactory

	mu       sync.Mutex // 串行化 Configure / Shutdown
	monitors map[int64]*monitor.Worker

	// followers 单独加锁，事件投递不被配置操作阻塞
	followMu  sync.Mutex
	followers map[int64]*follow.Worker
}

func NewRegistry(feedSvc feed.Feed, followRepo repo.FollowRepo, factory exchange.ClientFactory) *Registry {
	return &Registry{
		feedSvc:    feedSvc,
		followRepo: followRepo,
		factory:    factory,
		monitors:   make(map[int64]*monitor.Worker),
		followers:  make(map[int64]*follow.Worker),
	}
}

// Configure 应用租户期望配置，幂等
// 判定重启还是热更新，重启路径先阻塞等待旧 worker 退出再启动新的
func (r *Registry) Configure(ctx context.Context, cfg monitor.Config, settings entity.FollowSettings) {
	cfg = cfg.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.configureMonitor(cfg)
	r.configureFollower(ctx, cfg.TenantID, settings)
}

// DispatchEvent 把事件交给租户的跟单 worker，有界非阻塞入队
func (r *Registry) DispatchEvent(tenantID int64, event *feed.TradeEvent) {
	r.followMu.Lock()
	worker := r.followers[tenantID]
	r.followMu.Unlock()
	if worker != nil {
		worker.Enqueue(event)
	}
}

// Shutdown 停止并移除所有 worker，进程退出时调用
func (r *Registry) Shutdown() {
	r.mu.Lock()
	monitors := make([]*monitor.Worker, 0, len(r.monitors))
	for _, w := range r.monitors {
		monitors = append(monitors, w)
	}
	r.monitors = make(map[int64]*monitor.Worker)
	r.mu.Unlock()

	r.followMu.Lock()
	followers := make([]*follow.Worker, 0, len(r.followers))
	for _, w := range r.followers {
		followers = append(followers, w)
	}
	r.followers = make(map[int64]*follow.Worker)
	r.followMu.Unlock()

	for _, w := range monitors {
		w.Stop()
	}
	for _, w := range followers {
		w.Stop()
	}
	slog.Info("registry shutdown complete", "monitors", len(monitors), "followers", len(followers))
}

func (r *Registry) configureMonitor(cfg monitor.Config) {
	existing := r.monitors[cfg.TenantID]

	if !cfg.Complete() {
		if existing != nil {
			existing.Stop()
			delete(r.monitors, cfg.TenantID)
			slog.Info("monitor removed (incomplete configuration)", "tenant", cfg.TenantID)
		}
		return
	}

	if existing != nil {
		current := existing.Config()
		// 热更新只对存活的 worker 有意义，已自行退出的即使配置没变也重建
		if existing.Running() && !current.RequiresRestart(cfg) {
			// 热更新：语言变化时补发一次快照
			forceSnapshot := current.Language != cfg.Language
			existing.UpdateConfig(cfg, forceSnapshot)
			return
		}
		existing.Stop()
		delete(r.monitors, cfg.TenantID)
	}

	worker := monitor.NewWorker(cfg, r.feedSvc, r.dispatchFunc(cfg.TenantID))
	if worker.Start() {
		r.monitors[cfg.TenantID] = worker
	}
}

func (r *Registry) configureFollower(ctx context.Context, tenantID int64, settings entity.FollowSettings) {
	r.followMu.Lock()
	existing := r.followers[tenantID]
	r.followMu.Unlock()

	if !settings.Enabled {
		r.removeFollower(tenantID, existing)
		return
	}

	if !settings.HasCredentials() {
		slog.Warn("follow enabled without api credentials, disabled", "tenant", tenantID)
		r.removeFollower(tenantID, existing)
		enabled := false
		status := entity.FollowStatusDisabled
		reason := "missing api credentials"
		if err := r.followRepo.UpdateStatus(ctx, tenantID, repo.FollowStatusUpdate{
			Enabled:    &enabled,
			Status:     &status,
			StopReason: &reason,
		}); err != nil {
			slog.Error("follow status persist failed", "tenant", tenantID, "error", err)
		}
		return
	}

	if existing != nil && existing.Running() {
		current := existing.Settings()
		if current.APIKey == settings.APIKey && current.APISecret == settings.APISecret {
			existing.UpdateSettings(settings)
			return
		}
		// 凭证变化需要全新的客户端与队列
	}
	// 已退出的 worker（熔断自停）不复用：队列里滞留的事件不跨重启重放
	r.removeFollower(tenantID, existing)

	worker := follow.NewWorker(tenantID, settings, r.followRepo, r.factory)
	worker.Start()
	r.followMu.Lock()
	r.followers[tenantID] = worker
	r.followMu.Unlock()
}

func (r *Registry) removeFollower(tenantID int64, existing *follow.Worker) {
	if existing == nil {
		return
	}
	existing.Stop()
	r.followMu.Lock()
	if r.followers[tenantID] == existing {
		delete(r.followers, tenantID)
	}
	r.followMu.Unlock()
}

func (r *Registry) dispatchFunc(tenantID int64) func(*feed.TradeEvent) {
	return func(event *feed.TradeEvent) {
		r.DispatchEvent(tenantID, event)
	}
}
