package ioc

import (
	"github.com/KNICEX/hyper-follow/internal/service/feed/hyperliquid"
	"github.com/spf13/viper"
)

func InitFeed() *hyperliquid.Feed {
	type Config struct {
		WsURL  string `mapstructure:"ws_url"`
		ApiURL string `mapstructure:"api_url"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("hyperliquid", &cfg); err != nil {
		panic(err)
	}

	return hyperliquid.NewFeed(cfg.WsURL, cfg.ApiURL)
}
