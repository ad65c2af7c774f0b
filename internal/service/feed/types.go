package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventOpened  EventKind = "opened"
	EventReduced EventKind = "reduced"
	EventClosed  EventKind = "closed"
)

// IsReduce 减仓或平仓，镜像下单时必须 reduceOnly
func (k EventKind) IsReduce() bool {
	return k == EventReduced || k == EventClosed
}

// PositionSnapshot 事件发生前后的仓位快照
type PositionSnapshot struct {
	Szi        decimal.Decimal // 带符号仓位，多正空负
	EntryPrice decimal.Decimal
	Leverage   int
}

// TradeDetails 事件源给出的成交细节
type TradeDetails struct {
	Side         string // 方向提示，B 买 / A 卖，可能为空
	Size         decimal.Decimal
	Price        decimal.Decimal
	Leverage     int
	PositionSize decimal.Decimal // 成交后仓位提示
}

// TradeEvent 事件源归一化后的持仓变更事件
// 瞬态数据，核心不落库，worker 至多消费一次
type TradeEvent struct {
	Address   string
	Coin      string
	Kind      EventKind
	Hash      string
	Details   TradeDetails
	Previous  *PositionSnapshot
	Current   *PositionSnapshot
	Timestamp time.Time
}

// DedupKey 跨订阅重连去重用的组合键
func (e *TradeEvent) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", e.Hash, e.Details.Size.String(), e.Details.Price.String())
}

// Position 钱包当前持仓，用于定时快照推送
type Position struct {
	Coin          string
	Szi           decimal.Decimal
	EntryPrice    decimal.Decimal
	UnrealizedPnl decimal.Decimal
	Leverage      int
}

// Feed 钱包事件源
type Feed interface {
	// Subscribe 订阅指定地址的持仓变更事件，通道随 ctx 取消而关闭
	Subscribe(ctx context.Context, addresses []string) (<-chan TradeEvent, error)
	// FetchPositions 查询钱包当前持仓
	FetchPositions(ctx context.Context, address string) ([]Position, error)
}
