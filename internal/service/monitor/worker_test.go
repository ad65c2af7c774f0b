package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	events    chan feed.TradeEvent
	positions []feed.Position
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		events: make(chan feed.TradeEvent, 16),
	}
}

func (f *fakeFeed) Subscribe(ctx context.Context, addresses []string) (<-chan feed.TradeEvent, error) {
	return f.events, nil
}

func (f *fakeFeed) FetchPositions(ctx context.Context, address string) ([]feed.Position, error) {
	return f.positions, nil
}

func testConfig(webhookURL string) Config {
	return Config{
		TenantID:       1,
		WebhookEnabled: true,
		WebhookURL:     webhookURL,
		Wallets:        []string{"0xabc"},
		Language:       "zh",
	}
}

func newWebhookServer() (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	return srv, &hits
}

func tradeEvent(hash string, ts time.Time) feed.TradeEvent {
	return feed.TradeEvent{
		Address: "0xabc",
		Coin:    "BTC",
		Kind:    feed.EventOpened,
		Hash:    hash,
		Details: feed.TradeDetails{
			Size:  decimal.NewFromInt(1),
			Price: decimal.NewFromInt(50000),
		},
		Current:   &feed.PositionSnapshot{Szi: decimal.NewFromInt(1)},
		Timestamp: ts,
	}
}

func TestStartRefusesWithoutWallets(t *testing.T) {
	cfg := testConfig("https://example.com/hook")
	cfg.Wallets = nil
	w := NewWorker(cfg, newFakeFeed(), nil)

	assert.False(t, w.Start())
	assert.Equal(t, StateIdle, w.State())
}

func TestStartRefusesWithoutChannels(t *testing.T) {
	cfg := Config{TenantID: 1, Wallets: []string{"0xabc"}}
	w := NewWorker(cfg, newFakeFeed(), nil)

	assert.False(t, w.Start())
}

func TestEventDispatchedOnce(t *testing.T) {
	srv, _ := newWebhookServer()
	defer srv.Close()

	f := newFakeFeed()
	var dispatched atomic.Int32
	w := NewWorker(testConfig(srv.URL), f, func(*feed.TradeEvent) {
		dispatched.Add(1)
	})
	require.True(t, w.Start())
	defer w.Stop()

	event := tradeEvent("0xhash1", time.Now().Add(time.Second))
	f.events <- event
	// 同一成交跨重连重复投递，必须被去重
	f.events <- event

	require.Eventually(t, func() bool {
		return dispatched.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), dispatched.Load())
}

func TestPreStartEventDiscarded(t *testing.T) {
	srv, _ := newWebhookServer()
	defer srv.Close()

	f := newFakeFeed()
	var dispatched atomic.Int32
	w := NewWorker(testConfig(srv.URL), f, func(*feed.TradeEvent) {
		dispatched.Add(1)
	})
	require.True(t, w.Start())
	defer w.Stop()

	// 启动之前的历史成交不触发任何动作
	f.events <- tradeEvent("0xold", time.Now().Add(-time.Hour))
	f.events <- tradeEvent("0xnew", time.Now().Add(time.Second))

	require.Eventually(t, func() bool {
		return dispatched.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), dispatched.Load())
}

func TestSnapshotSentOnStart(t *testing.T) {
	srv, hits := newWebhookServer()
	defer srv.Close()

	f := newFakeFeed()
	f.positions = []feed.Position{
		{Coin: "ETH", Szi: decimal.NewFromInt(2), EntryPrice: decimal.NewFromInt(3000), Leverage: 5},
	}
	w := NewWorker(testConfig(srv.URL), f, nil)
	require.True(t, w.Start())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return hits.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateConfigSwapsAtomically(t *testing.T) {
	srv, _ := newWebhookServer()
	defer srv.Close()

	w := NewWorker(testConfig(srv.URL), newFakeFeed(), nil)
	require.True(t, w.Start())
	defer w.Stop()

	next := testConfig(srv.URL)
	next.Language = "en"
	next.WebhookMentions = []string{"alice"}
	w.UpdateConfig(next, false)

	got := w.Config()
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, []string{"alice"}, got.WebhookMentions)
}

func TestWorkerLeavesRunningWhenStreamCloses(t *testing.T) {
	srv, _ := newWebhookServer()
	defer srv.Close()

	f := newFakeFeed()
	w := NewWorker(testConfig(srv.URL), f, nil)
	require.True(t, w.Start())

	// 事件流关闭后 goroutine 自行退出，状态不得停留在运行态
	close(f.events)
	require.Eventually(t, func() bool {
		return w.State() == StateStopped
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, w.Running())

	w.Stop() // 已退出后再停不 panic 不阻塞
}

func TestStopIsIdempotentAndBounded(t *testing.T) {
	srv, _ := newWebhookServer()
	defer srv.Close()

	w := NewWorker(testConfig(srv.URL), newFakeFeed(), nil)
	require.True(t, w.Start())

	start := time.Now()
	w.Stop()
	w.Stop()
	assert.Less(t, time.Since(start), stopTimeout)
	assert.Equal(t, StateStopped, w.State())
}
