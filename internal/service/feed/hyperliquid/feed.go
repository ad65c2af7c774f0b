package hyperliquid

import (
	"net/http"
	"time"

	"github.com/KNICEX/hyper-follow/internal/service/feed"
)

const (
	DefaultWsURL  = "wss://api.hyperliquid.xyz/ws"
	DefaultAPIURL = "https://api.hyperliquid.xyz"
)

var _ feed.Feed = (*Feed)(nil)

// Feed Hyperliquid 公共行情源
// 事件通过 websocket userFills 频道订阅，快照走 /info 查询
type Feed struct {
	wsURL  string
	apiURL string
	cli    *http.Client
}

func NewFeed(wsURL, apiURL string) *Feed {
	if wsURL == "" {
		wsURL = DefaultWsURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Feed{
		wsURL:  wsURL,
		apiURL: apiURL,
		cli: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}
