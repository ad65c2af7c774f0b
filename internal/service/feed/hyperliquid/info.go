package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/KNICEX/hyper-follow/internal/service/feed"
	"github.com/shopspring/decimal"
)

type infoReq struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type clearinghouseState struct {
	AssetPositions []struct {
		Position struct {
			Coin          string `json:"coin"`
			Szi           string `json:"szi"`
			EntryPx       string `json:"entryPx"`
			UnrealizedPnl string `json:"unrealizedPnl"`
			Leverage      struct {
				Value int `json:"value"`
			} `json:"leverage"`
		} `json:"position"`
	} `json:"assetPositions"`
}

func (f *Feed) FetchPositions(ctx context.Context, address string) ([]feed.Position, error) {
	body, err := json.Marshal(infoReq{
		Type: "clearinghouseState",
		User: address,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL+"/info", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch clearinghouse state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("hyperliquid info status %d: %s", resp.StatusCode, string(raw))
	}

	var state clearinghouseState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode clearinghouse state: %w", err)
	}

	positions := make([]feed.Position, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		szi, err := decimal.NewFromString(ap.Position.Szi)
		if err != nil || szi.IsZero() {
			continue
		}
		entry, _ := decimal.NewFromString(ap.Position.EntryPx)
		pnl, _ := decimal.NewFromString(ap.Position.UnrealizedPnl)
		positions = append(positions, feed.Position{
			Coin:          ap.Position.Coin,
			Szi:           szi,
			EntryPrice:    entry,
			UnrealizedPnl: pnl,
			Leverage:      ap.Position.Leverage.Value,
		})
	}
	return positions, nil
}
