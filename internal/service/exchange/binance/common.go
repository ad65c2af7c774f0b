package binance

import (
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

func binanceSide(side exchange.Side) futures.SideType {
	switch side {
	case exchange.Buy:
		return futures.SideTypeBuy
	case exchange.Sell:
		return futures.SideTypeSell
	default:
		return ""
	}
}
