package monitor

import (
	"regexp"
	"strings"

	"github.com/KNICEX/hyper-follow/internal/service/notification"
	"github.com/samber/lo"
)

// MaxWallets 单租户可监控的钱包上限
const MaxWallets = 2

type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

// Config 租户监控配置，不可变值，更新时整体替换
type Config struct {
	TenantID int64

	TelegramBotToken string
	TelegramChatID   string

	WebhookEnabled  bool
	WebhookURL      string
	WebhookMentions []string

	Wallets  []string // 已归一化：小写、去重、截断到 MaxWallets
	Language string   // zh | en
}

func (c Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func (c Config) HasWebhook() bool {
	return c.WebhookEnabled && c.WebhookURL != ""
}

// Complete 至少一个钱包且至少一个已启用渠道才允许启动
func (c Config) Complete() bool {
	return len(c.Wallets) > 0 && (c.HasTelegram() || c.HasWebhook())
}

// RequiresRestart 判断新配置相对当前配置是否需要重启订阅
// 凭证、钱包集合、渠道身份变化需要重启；语言和提及列表热更新即可
func (c Config) RequiresRestart(next Config) bool {
	return c.TelegramBotToken != next.TelegramBotToken ||
		c.TelegramChatID != next.TelegramChatID ||
		c.WebhookEnabled != next.WebhookEnabled ||
		c.WebhookURL != next.WebhookURL ||
		!lo.ElementsMatch(c.Wallets, next.Wallets)
}

var walletSeparator = regexp.MustCompile(`[\s,;]+`)

// NormalizeWallets 拆分、去空、小写、去重并截断地址列表
func NormalizeWallets(entries []string) []string {
	var tokens []string
	for _, entry := range entries {
		for _, token := range walletSeparator.Split(strings.TrimSpace(entry), -1) {
			token = strings.ToLower(strings.TrimSpace(token))
			if token != "" {
				tokens = append(tokens, token)
			}
		}
	}
	tokens = lo.Uniq(tokens)
	if len(tokens) > MaxWallets {
		tokens = tokens[:MaxWallets]
	}
	return tokens
}

// Normalize 返回归一化后的配置副本
func (c Config) Normalize() Config {
	c.Wallets = NormalizeWallets(c.Wallets)
	c.Language = notification.NormalizeLanguage(c.Language)
	c.WebhookMentions = lo.Filter(lo.Map(c.WebhookMentions, func(m string, _ int) string {
		return strings.TrimSpace(m)
	}), func(m string, _ int) bool {
		return m != ""
	})
	if !c.HasWebhook() {
		c.WebhookEnabled = false
	}
	return c
}
