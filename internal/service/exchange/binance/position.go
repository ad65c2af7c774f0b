package binance

import (
	"context"
	"fmt"

	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

var _ exchange.PositionService = (*PositionService)(nil)

type PositionService struct {
	cli *futures.Client
}

func NewPositionService(cli *futures.Client) *PositionService {
	return &PositionService{cli: cli}
}

func (s *PositionService) GetPositionAmount(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	positions, err := s.cli.NewGetPositionRiskService().Symbol(symbol.ToString()).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get position risk failed: %w", err)
	}
	if len(positions) == 0 {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(positions[0].PositionAmt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse position amount %q: %w", positions[0].PositionAmt, err)
	}
	return amount, nil
}

func (s *PositionService) SetLeverage(ctx context.Context, symbol exchange.Symbol, leverage int) error {
	_, err := s.cli.NewChangeLeverageService().
		Symbol(symbol.ToString()).
		Leverage(leverage).
		Do(ctx)
	return err
}
