package binance

import (
	"context"
	"fmt"

	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

var _ exchange.AccountService = (*AccountService)(nil)

type AccountService struct {
	cli *futures.Client
}

func NewAccountService(cli *futures.Client) *AccountService {
	return &AccountService{cli: cli}
}

func (s *AccountService) GetAccountInfo(ctx context.Context) (exchange.AccountInfo, error) {
	account, err := s.cli.NewGetAccountService().Do(ctx)
	if err != nil {
		return exchange.AccountInfo{}, fmt.Errorf("get account failed: %w", err)
	}

	total, err := decimal.NewFromString(account.TotalWalletBalance)
	if err != nil {
		return exchange.AccountInfo{}, fmt.Errorf("parse total wallet balance %q: %w", account.TotalWalletBalance, err)
	}
	available, err := decimal.NewFromString(account.AvailableBalance)
	if err != nil {
		return exchange.AccountInfo{}, fmt.Errorf("parse available balance %q: %w", account.AvailableBalance, err)
	}
	pnl, err := decimal.NewFromString(account.TotalUnrealizedProfit)
	if err != nil {
		return exchange.AccountInfo{}, fmt.Errorf("parse unrealized pnl %q: %w", account.TotalUnrealizedProfit, err)
	}

	return exchange.AccountInfo{
		TotalBalance:     total,
		AvailableBalance: available,
		UnrealizedPnl:    pnl,
	}, nil
}
