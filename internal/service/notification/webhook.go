package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var _ Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier 企业微信群机器人风格的 webhook 推送
// mentions 为需要 @ 的成员 id 列表
type WebhookNotifier struct {
	url      string
	mentions []string
	cli      *http.Client
}

func NewWebhookNotifier(url string, mentions []string) *WebhookNotifier {
	return &WebhookNotifier{
		url:      url,
		mentions: mentions,
		cli: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Name() string {
	return "webhook"
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list,omitempty"`
}

func (w *WebhookNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text: webhookText{
			Content:       text,
			MentionedList: w.mentions,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.cli.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
