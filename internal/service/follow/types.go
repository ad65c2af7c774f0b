package follow

import (
	"strings"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MapSymbol 将事件源币种映射为交易所交易对
// 大写、去掉永续后缀，缺少计价资产时补 USDT
func MapSymbol(coin string) exchange.Symbol {
	c := strings.ToUpper(strings.TrimSpace(coin))
	c = strings.ReplaceAll(c, "PERP", "")
	c = strings.Trim(c, "-_ ")
	if c == "" {
		return exchange.Symbol{}
	}
	base, quote := exchange.SplitSymbol(c)
	if base == "" {
		return exchange.Symbol{}
	}
	if quote == "" {
		quote = "USDT"
	}
	return exchange.Symbol{Base: base, Quote: quote}
}

// DetermineSide 推导镜像下单方向
// 显式方向提示优先；开仓按当前仓位符号，减仓/平仓按先前仓位符号取反方向
func DetermineSide(event *feed.TradeEvent) exchange.Side {
	switch strings.ToUpper(event.Details.Side) {
	case "B":
		return exchange.Buy
	case "A":
		return exchange.Sell
	}

	switch event.Kind {
	case feed.EventOpened:
		if event.Current != nil && event.Current.Szi.Sign() < 0 {
			return exchange.Sell
		}
		return exchange.Buy
	case feed.EventReduced, feed.EventClosed:
		if event.Previous != nil && event.Previous.Szi.Sign() > 0 {
			return exchange.Sell
		}
		return exchange.Buy
	}
	return ""
}

// CalcQuantity 计算镜像下单量
// percentage 模式下观测量取值顺序：显式成交量 → 前后仓位差 → 当前仓位绝对值
func CalcQuantity(settings *entity.FollowSettings, event *feed.TradeEvent) decimal.Decimal {
	size := event.Details.Size
	if size.Sign() <= 0 {
		var prev, curr decimal.Decimal
		if event.Previous != nil {
			prev = event.Previous.Szi.Abs()
		}
		if event.Current != nil {
			curr = event.Current.Szi.Abs()
		}
		diff := prev.Sub(curr).Abs()
		if diff.Sign() > 0 {
			size = diff
		} else {
			size = curr
		}
	}
	if size.Sign() <= 0 {
		size = event.Details.PositionSize.Abs()
	}

	amount := decimal.NewFromFloat(settings.Amount)
	if settings.SizeMode == entity.SizeModePercentage {
		quantity := size.Mul(amount).Div(hundred)
		if quantity.Sign() < 0 {
			return decimal.Zero
		}
		return quantity
	}
	if amount.Sign() < 0 {
		return decimal.Zero
	}
	return amount
}
