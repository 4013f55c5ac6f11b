package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// WebhookNotifier posts notifications as JSON to a chat webhook.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

type webhookPayload struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Detected string `json:"detectedAt"`
}

// NewWebhookNotifier builds the notifier with a request timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg watcher.Notification) error {
	if n.url == "" {
		return fmt.Errorf("webhook url is empty")
	}
	body, err := json.Marshal(webhookPayload{
		Title:    msg.Title,
		Text:     msg.Body,
		Category: string(msg.Change.Category),
		Item:     msg.Change.Item,
		Quantity: msg.Change.Quantity,
		Detected: msg.Detected.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("webhook error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	return nil
}

var _ watcher.Notifier = (*WebhookNotifier)(nil)
