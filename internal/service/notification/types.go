package notification

import (
	"context"
	"log/slog"
)

// Notifier 单个推送渠道
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Channels 渠道扇出，尽力发送，单渠道失败只记录日志
type Channels []Notifier

func (c Channels) Send(ctx context.Context, text string) {
	for _, n := range c {
		if err := n.Send(ctx, text); err != nil {
			slog.Error("notification send failed", "channel", n.Name(), "error", err)
		}
	}
}
