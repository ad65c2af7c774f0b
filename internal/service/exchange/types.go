package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingCredentials = errors.New("exchange: missing api credentials")
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Symbol 交易对
type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s Symbol) IsZero() bool {
	return s.Base == ""
}

// SplitSymbol 拆分交易所返回的交易对字符串
// 目前仅支持 USDT USDC 交易对
func SplitSymbol(symbol string) (base, quote string) {
	if strings.HasSuffix(symbol, "USDT") {
		return strings.TrimSuffix(symbol, "USDT"), "USDT"
	}
	if strings.HasSuffix(symbol, "USDC") {
		return strings.TrimSuffix(symbol, "USDC"), "USDC"
	}
	return symbol, ""
}

type AccountInfo struct {
	TotalBalance     decimal.Decimal
	AvailableBalance decimal.Decimal
	UnrealizedPnl    decimal.Decimal
}

type AccountService interface {
	GetAccountInfo(ctx context.Context) (AccountInfo, error)
}

type PositionService interface {
	// GetPositionAmount 返回指定交易对的当前持仓量（带符号，多正空负）
	GetPositionAmount(ctx context.Context, symbol Symbol) (decimal.Decimal, error)
	SetLeverage(ctx context.Context, symbol Symbol, leverage int) error
}

type OrderId string

type MarketOrderReq struct {
	Symbol     Symbol
	Side       Side
	Quantity   decimal.Decimal
	ReduceOnly bool // 只允许减仓，减仓/平仓事件镜像时必须为 true
}

type TradingService interface {
	CreateMarketOrder(ctx context.Context, req MarketOrderReq) (OrderId, error)
}

type Service interface {
	AccountService() AccountService
	PositionService() PositionService
	TradingService() TradingService
}

// ClientFactory 按租户凭证构造交易所客户端
// 构造失败视作凭证/依赖不可用，worker 据此进入终止状态
type ClientFactory interface {
	New(apiKey, apiSecret string) (Service, error)
}
