package notification

import (
	"fmt"
	"strings"

	"github.com/KNICEX/hyper-follow/internal/service/feed"
)

const (
	LangZH = "zh"
	LangEN = "en"
)

// NormalizeLanguage 语言标签归一化，默认中文
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LangEN:
		return LangEN
	default:
		return LangZH
	}
}

var kindLabels = map[string]map[feed.EventKind]string{
	LangZH: {
		feed.EventOpened:  "开仓/加仓",
		feed.EventReduced: "减仓",
		feed.EventClosed:  "平仓",
	},
	LangEN: {
		feed.EventOpened:  "Opened/Increased",
		feed.EventReduced: "Reduced",
		feed.EventClosed:  "Closed",
	},
}

// FormatTradeEvent 将持仓变更事件格式化为推送文本
func FormatTradeEvent(event *feed.TradeEvent, lang string) string {
	lang = NormalizeLanguage(lang)
	label := kindLabels[lang][event.Kind]

	var b strings.Builder
	if lang == LangEN {
		fmt.Fprintf(&b, "📈 Wallet %s\n", shortAddress(event.Address))
		fmt.Fprintf(&b, "%s %s\n", label, event.Coin)
		fmt.Fprintf(&b, "Size: %s @ %s\n", event.Details.Size.String(), event.Details.Price.String())
		if event.Current != nil {
			fmt.Fprintf(&b, "Position: %s", event.Current.Szi.String())
		}
		return b.String()
	}

	fmt.Fprintf(&b, "📈 钱包 %s\n", shortAddress(event.Address))
	fmt.Fprintf(&b, "%s %s\n", label, event.Coin)
	fmt.Fprintf(&b, "数量: %s @ %s\n", event.Details.Size.String(), event.Details.Price.String())
	if event.Current != nil {
		fmt.Fprintf(&b, "当前仓位: %s", event.Current.Szi.String())
	}
	return b.String()
}

// FormatSnapshot 钱包持仓快照
func FormatSnapshot(address string, positions []feed.Position, lang string) string {
	lang = NormalizeLanguage(lang)

	var b strings.Builder
	if lang == LangEN {
		fmt.Fprintf(&b, "📊 Snapshot %s\n", shortAddress(address))
		if len(positions) == 0 {
			b.WriteString("No open positions")
			return b.String()
		}
		for _, p := range positions {
			fmt.Fprintf(&b, "%s: %s @ %s (x%d, PnL %s)\n",
				p.Coin, p.Szi.String(), p.EntryPrice.String(), p.Leverage, p.UnrealizedPnl.String())
		}
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "📊 持仓快照 %s\n", shortAddress(address))
	if len(positions) == 0 {
		b.WriteString("当前无持仓")
		return b.String()
	}
	for _, p := range positions {
		fmt.Fprintf(&b, "%s: %s @ %s (x%d, 未实现盈亏 %s)\n",
			p.Coin, p.Szi.String(), p.EntryPrice.String(), p.Leverage, p.UnrealizedPnl.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
