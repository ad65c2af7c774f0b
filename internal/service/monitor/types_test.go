package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWallets(t *testing.T) {
	wallets := NormalizeWallets([]string{" 0xAbC, 0xDef;0xabc ", "", "0x111 0x222"})
	// 小写、去重、截断到上限
	assert.Equal(t, []string{"0xabc", "0xdef"}, wallets)
}

func TestNormalizeWalletsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeWallets(nil))
	assert.Empty(t, NormalizeWallets([]string{"  ", ""}))
}

func TestConfigComplete(t *testing.T) {
	cfg := Config{
		Wallets:          []string{"0xabc"},
		TelegramBotToken: "token",
		TelegramChatID:   "chat",
	}
	assert.True(t, cfg.Complete())

	cfg.TelegramChatID = ""
	assert.False(t, cfg.Complete())

	cfg.WebhookEnabled = true
	cfg.WebhookURL = "https://example.com/hook"
	assert.True(t, cfg.Complete())

	cfg.Wallets = nil
	assert.False(t, cfg.Complete())
}

func TestRequiresRestartClassification(t *testing.T) {
	base := Config{
		TenantID:         1,
		TelegramBotToken: "token",
		TelegramChatID:   "chat",
		Wallets:          []string{"0xabc"},
		Language:         "zh",
		WebhookMentions:  []string{"alice"},
	}

	// 语言和提及列表可热更新
	next := base
	next.Language = "en"
	next.WebhookMentions = []string{"bob"}
	assert.False(t, base.RequiresRestart(next))

	// 凭证变化需要重启
	next = base
	next.TelegramBotToken = "other"
	assert.True(t, base.RequiresRestart(next))

	// 钱包集合变化需要重启（顺序无关）
	next = base
	next.Wallets = []string{"0xdef"}
	assert.True(t, base.RequiresRestart(next))

	next = base
	next.Wallets = []string{"0xabc"}
	assert.False(t, base.RequiresRestart(next))

	// 渠道身份变化需要重启
	next = base
	next.WebhookEnabled = true
	next.WebhookURL = "https://example.com/hook"
	assert.True(t, base.RequiresRestart(next))
}

func TestNormalizeLanguageDefaultsToZh(t *testing.T) {
	cfg := Config{Language: "fr"}.Normalize()
	assert.Equal(t, "zh", cfg.Language)

	cfg = Config{Language: "EN"}.Normalize()
	assert.Equal(t, "en", cfg.Language)
}
