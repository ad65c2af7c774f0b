package entity

import (
	"time"
)

// 跟单生命周期状态
const (
	FollowStatusDisabled      = "disabled"
	FollowStatusActive        = "active"
	FollowStatusStoppedByLoss = "stopped_by_loss"
)

// 下单量计算模式
const (
	SizeModeFixed      = "fixed"      // 固定数量
	SizeModePercentage = "percentage" // 按检测到的交易量百分比
)

// FollowSettings 租户的跟单配置，值整体替换，不做字段级原地修改
type FollowSettings struct {
	TenantID int64 `gorm:"primaryKey"`

	Enabled       bool
	WalletAddress string // 跟随的目标钱包，为空表示任意已监控钱包

	SizeMode     string // fixed | percentage
	Amount       float64
	StopLoss     float64 // 绝对亏损阈值，0 表示关闭熔断
	MaxPosition  float64 // 最大持仓上限，0 表示不限制
	MinOrderSize float64 // 低于该下单量直接丢弃

	APIKey    string
	APISecret string

	// 首次成功连接交易所时捕获一次，熔断以此为基准
	BaselineBalance *float64

	Status     string // disabled | active | stopped_by_loss
	StopReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCredentials 是否配置了交易所密钥
func (s *FollowSettings) HasCredentials() bool {
	return s.APIKey != "" && s.APISecret != ""
}
