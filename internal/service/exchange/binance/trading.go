package binance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

var _ exchange.TradingService = (*TradingService)(nil)

type TradingService struct {
	cli *futures.Client
}

func NewTradingService(cli *futures.Client) *TradingService {
	return &TradingService{cli: cli}
}

func (s *TradingService) CreateMarketOrder(ctx context.Context, req exchange.MarketOrderReq) (exchange.OrderId, error) {
	svc := s.cli.NewCreateOrderService().
		Symbol(req.Symbol.ToString()).
		Side(binanceSide(req.Side)).
		Type(futures.OrderTypeMarket).
		Quantity(req.Quantity.String())
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	resp, err := svc.Do(ctx)
	if err != nil {
		return "", fmt.Errorf("create market order failed: %w", err)
	}
	return exchange.OrderId(strconv.FormatInt(resp.OrderID, 10)), nil
}
