package binance

import (
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

var _ exchange.Service = (*Service)(nil)

type Service struct {
	accountSvc  exchange.AccountService
	positionSvc exchange.PositionService
	tradingSvc  exchange.TradingService
}

func NewService(cli *futures.Client) *Service {
	return &Service{
		accountSvc:  NewAccountService(cli),
		positionSvc: NewPositionService(cli),
		tradingSvc:  NewTradingService(cli),
	}
}

func (s *Service) AccountService() exchange.AccountService {
	return s.accountSvc
}

func (s *Service) PositionService() exchange.PositionService {
	return s.positionSvc
}

func (s *Service) TradingService() exchange.TradingService {
	return s.tradingSvc
}

var _ exchange.ClientFactory = (*Factory)(nil)

// Factory 按租户密钥构造币安 U 本位合约客户端
type Factory struct {
	baseURL string
}

func NewFactory(baseURL string) *Factory {
	return &Factory{baseURL: baseURL}
}

func (f *Factory) New(apiKey, apiSecret string) (exchange.Service, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, exchange.ErrMissingCredentials
	}
	cli := futures.NewClient(apiKey, apiSecret)
	if f.baseURL != "" {
		cli.BaseURL = f.baseURL
	}
	return NewService(cli), nil
}
