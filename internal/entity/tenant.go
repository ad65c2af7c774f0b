package entity

import (
	"time"
)

// TenantConfig 租户的监控配置
// 钱包地址与 webhook 提及列表以逗号分隔存储
type TenantConfig struct {
	TenantID int64 `gorm:"primaryKey"`

	TelegramBotToken string
	TelegramChatID   string

	WebhookEnabled  bool
	WebhookURL      string
	WebhookMentions string

	WalletAddresses string
	Language        string // zh | en

	CreatedAt time.Time
	UpdatedAt time.Time
}
