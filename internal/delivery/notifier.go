package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logx "github.com/folio-agent/server/pkg/logger"
)

// OwnerNotifier alerts the portfolio owner that something noteworthy
// happened in a session. Best-effort: callers log failures and move on.
type OwnerNotifier interface {
	Notify(ctx context.Context, message string) error
}

// WebhookConfig configures the webhook-backed notifier.
type WebhookConfig struct {
	URL        string `envconfig:"NOTIFY_WEBHOOK_URL"`
	TimeoutSec int    `envconfig:"NOTIFY_WEBHOOK_TIMEOUT" default:"5"`
}

// Enabled reports whether a webhook target is configured.
func (c WebhookConfig) Enabled() bool {
	return c.URL != ""
}

// WebhookNotifier POSTs a small JSON payload to a chat webhook.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates the notifier from config.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify delivers the message. The response body is drained and discarded;
// only the status code matters.
func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("notification status %d", res.StatusCode)
	}

	logx.Debug().Msg("Owner notification delivered")
	return nil
}

var _ OwnerNotifier = (*WebhookNotifier)(nil)
