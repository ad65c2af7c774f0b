package hyperliquid

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	readTimeout    = 90 * time.Second
	pingInterval   = 30 * time.Second
	reconnectDelay = 5 * time.Second
)

type subscribeMsg struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

type wsMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type userFillsData struct {
	User  string   `json:"user"`
	Fills []wsFill `json:"fills"`
}

type wsFill struct {
	Coin          string `json:"coin"`
	Px            string `json:"px"`
	Sz            string `json:"sz"`
	Side          string `json:"side"` // B / A
	Time          int64  `json:"time"` // ms
	StartPosition string `json:"startPosition"`
	Dir           string `json:"dir"`
	Hash          string `json:"hash"`
}

func (f *Feed) Subscribe(ctx context.Context, addresses []string) (<-chan feed.TradeEvent, error) {
	events := make(chan feed.TradeEvent, 256)
	go func() {
		defer close(events)
		for {
			if err := f.runConnection(ctx, addresses, events); err != nil {
				slog.Warn("hyperliquid ws connection lost", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
	return events, nil
}

// runConnection 维持一条连接直到出错或 ctx 取消
func (f *Feed) runConnection(ctx context.Context, addresses []string, events chan<- feed.TradeEvent) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, addr := range addresses {
		msg := subscribeMsg{
			Method: "subscribe",
			Subscription: subscription{
				Type: "userFills",
				User: addr,
			},
		}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}

	// ctx 取消时关闭连接解除读阻塞
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteJSON(map[string]string{"method": "ping"})
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("hyperliquid ws unparsable message", "error", err)
			continue
		}
		if msg.Channel != "userFills" {
			continue
		}
		var data userFillsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			slog.Warn("hyperliquid ws bad userFills payload", "error", err)
			continue
		}
		for _, fill := range data.Fills {
			event, ok := fillToEvent(data.User, fill)
			if !ok {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// fillToEvent 将单笔成交归一化为持仓变更事件
// 事件类型由成交前后仓位推导：空仓成交为开仓，归零为平仓，绝对值缩小为减仓
func fillToEvent(user string, fill wsFill) (feed.TradeEvent, bool) {
	size, err := decimal.NewFromString(fill.Sz)
	if err != nil || size.Sign() <= 0 {
		return feed.TradeEvent{}, false
	}
	price, err := decimal.NewFromString(fill.Px)
	if err != nil {
		price = decimal.Zero
	}
	prev, err := decimal.NewFromString(fill.StartPosition)
	if err != nil {
		prev = decimal.Zero
	}

	delta := size
	if strings.EqualFold(fill.Side, "A") {
		delta = size.Neg()
	}
	curr := prev.Add(delta)

	var kind feed.EventKind
	switch {
	case prev.IsZero():
		kind = feed.EventOpened
	case curr.IsZero():
		kind = feed.EventClosed
	case curr.Abs().LessThan(prev.Abs()):
		kind = feed.EventReduced
	default:
		kind = feed.EventOpened
	}

	return feed.TradeEvent{
		Address: strings.ToLower(user),
		Coin:    fill.Coin,
		Kind:    kind,
		Hash:    fill.Hash,
		Details: feed.TradeDetails{
			Side:         fill.Side,
			Size:         size,
			Price:        price,
			PositionSize: curr,
		},
		Previous:  &feed.PositionSnapshot{Szi: prev},
		Current:   &feed.PositionSnapshot{Szi: curr},
		Timestamp: time.UnixMilli(fill.Time),
	}, true
}
