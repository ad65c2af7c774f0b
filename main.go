package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"github.com/KNICEX/hyper-follow/internal/repo"
	"github.com/KNICEX/hyper-follow/internal/service/monitor"
	"github.com/KNICEX/hyper-follow/internal/service/registry"
	"github.com/KNICEX/hyper-follow/ioc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	tenantRepo := repo.NewTenantRepo(db)
	followRepo := repo.NewFollowRepo(db)

	feedSvc := ioc.InitFeed()
	factory := ioc.InitExchangeFactory()

	reg := registry.NewRegistry(feedSvc, followRepo, factory)

	ctx := context.Background()
	configs, err := tenantRepo.FindAll(ctx)
	if err != nil {
		panic(err)
	}
	for _, tc := range configs {
		settings, found, err := followRepo.FindByTenant(ctx, tc.TenantID)
		if err != nil {
			slog.Error("load follow settings failed", "tenant", tc.TenantID, "error", err)
			continue
		}
		if !found {
			settings = entity.FollowSettings{TenantID: tc.TenantID, Status: entity.FollowStatusDisabled}
		}
		reg.Configure(ctx, monitorConfig(tc), settings)
	}
	slog.Info("workers initialised", "tenants", len(configs))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	reg.Shutdown()
}

func monitorConfig(tc entity.TenantConfig) monitor.Config {
	return monitor.Config{
		TenantID:         tc.TenantID,
		TelegramBotToken: tc.TelegramBotToken,
		TelegramChatID:   tc.TelegramChatID,
		WebhookEnabled:   tc.WebhookEnabled,
		WebhookURL:       tc.WebhookURL,
		WebhookMentions:  splitList(tc.WebhookMentions),
		Wallets:          splitList(tc.WalletAddresses),
		Language:         tc.Language,
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
