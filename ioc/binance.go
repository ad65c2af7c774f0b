package ioc

import (
	"github.com/KNICEX/hyper-follow/internal/service/exchange/binance"
	"github.com/spf13/viper"
)

func InitExchangeFactory() *binance.Factory {
	type Config struct {
		BaseURL string `mapstructure:"base_url"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("cex.binance", &cfg); err != nil {
		panic(err)
	}

	return binance.NewFactory(cfg.BaseURL)
}
