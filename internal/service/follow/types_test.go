package follow

import (
	"testing"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"github.com/KNICEX/hyper-follow/internal/service/exchange"
	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/KNICEX/hyper-follow/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMapSymbol(t *testing.T) {
	testCases := []struct {
		coin string
		want string
	}{
		{"BTC", "BTCUSDT"},
		{"btc", "BTCUSDT"},
		{"ETHUSDT", "ETHUSDT"},
		{"SOL-PERP", "SOLUSDT"},
		{"kPEPE ", "KPEPEUSDT"},
		{"", ""},
		{"PERP", ""},
	}
	for _, tc := range testCases {
		symbol := MapSymbol(tc.coin)
		if tc.want == "" {
			assert.True(t, symbol.IsZero(), "coin %q", tc.coin)
			continue
		}
		assert.Equal(t, tc.want, symbol.ToString(), "coin %q", tc.coin)
	}
}

func TestDetermineSideHintWins(t *testing.T) {
	event := &feed.TradeEvent{
		Kind:     feed.EventOpened,
		Details:  feed.TradeDetails{Side: "A"},
		Current:  &feed.PositionSnapshot{Szi: decimal.NewFromInt(3)},
		Previous: &feed.PositionSnapshot{},
	}
	assert.Equal(t, exchange.Sell, DetermineSide(event))

	event.Details.Side = "b"
	assert.Equal(t, exchange.Buy, DetermineSide(event))
}

func TestDetermineSideOpened(t *testing.T) {
	event := &feed.TradeEvent{
		Kind:    feed.EventOpened,
		Current: &feed.PositionSnapshot{Szi: decimal.NewFromInt(-2)},
	}
	assert.Equal(t, exchange.Sell, DetermineSide(event))

	event.Current.Szi = decimal.NewFromInt(2)
	assert.Equal(t, exchange.Buy, DetermineSide(event))
}

func TestDetermineSideClosedLongIsSell(t *testing.T) {
	// 平掉 +5 的多头仓位必须是卖出
	event := &feed.TradeEvent{
		Kind:     feed.EventClosed,
		Previous: &feed.PositionSnapshot{Szi: decimal.NewFromInt(5)},
		Current:  &feed.PositionSnapshot{},
	}
	assert.Equal(t, exchange.Sell, DetermineSide(event))

	event.Previous.Szi = decimal.NewFromInt(-5)
	assert.Equal(t, exchange.Buy, DetermineSide(event))
}

func TestCalcQuantityFixed(t *testing.T) {
	settings := &entity.FollowSettings{SizeMode: entity.SizeModeFixed, Amount: 2}
	event := &feed.TradeEvent{
		Kind:    feed.EventOpened,
		Details: feed.TradeDetails{Size: decimal.NewFromInt(100)},
	}
	assert.True(t, CalcQuantity(settings, event).Equal(decimal.NewFromInt(2)))

	// 固定模式与事件规模无关
	event.Details.Size = decimal.Zero
	assert.True(t, CalcQuantity(settings, event).Equal(decimal.NewFromInt(2)))
}

func TestCalcQuantityPercentageFromDelta(t *testing.T) {
	// 10% 模式，前 5 后 8，差值 3 => 0.3
	settings := &entity.FollowSettings{SizeMode: entity.SizeModePercentage, Amount: 10}
	event := &feed.TradeEvent{
		Kind:     feed.EventOpened,
		Previous: &feed.PositionSnapshot{Szi: decimal.NewFromInt(5)},
		Current:  &feed.PositionSnapshot{Szi: decimal.NewFromInt(8)},
	}
	assert.True(t, CalcQuantity(settings, event).Equal(decimalx.MustFromString("0.3")))
}

func TestCalcQuantityPercentagePrefersExplicitSize(t *testing.T) {
	settings := &entity.FollowSettings{SizeMode: entity.SizeModePercentage, Amount: 50}
	event := &feed.TradeEvent{
		Kind:     feed.EventOpened,
		Details:  feed.TradeDetails{Size: decimal.NewFromInt(4)},
		Previous: &feed.PositionSnapshot{Szi: decimal.NewFromInt(5)},
		Current:  &feed.PositionSnapshot{Szi: decimal.NewFromInt(8)},
	}
	assert.True(t, CalcQuantity(settings, event).Equal(decimal.NewFromInt(2)))
}

func TestCalcQuantityFallsBackToCurrentPosition(t *testing.T) {
	settings := &entity.FollowSettings{SizeMode: entity.SizeModePercentage, Amount: 100}
	event := &feed.TradeEvent{
		Kind:    feed.EventOpened,
		Current: &feed.PositionSnapshot{Szi: decimal.NewFromInt(-6)},
	}
	assert.True(t, CalcQuantity(settings, event).Equal(decimal.NewFromInt(6)))
}

func TestCalcQuantityZeroWhenNothingObserved(t *testing.T) {
	settings := &entity.FollowSettings{SizeMode: entity.SizeModePercentage, Amount: 10}
	event := &feed.TradeEvent{Kind: feed.EventOpened}
	assert.True(t, CalcQuantity(settings, event).IsZero())
}
