package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/http"
)

const defaultTimeout = 5 * time.Second

// Notifier delivers a single message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// New builds a webhook notifier when settings carry a webhook URL. Without
// one a no-op implementation is returned.
func New(settings *config.Settings) Notifier {
	url := strings.TrimSpace(settings.WebhookURL)
	if url == "" {
		return Noop{}
	}
	return NewWebhook(url, settings.WebhookTimeout())
}

// Noop discards every message.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, string) error { return nil }

// Webhook posts messages as {"content": "[host] message"}.
type Webhook struct {
	url      string
	hostname string
	client   *http.Client
}

// NewWebhook creates a Webhook notifier. A non-positive timeout means 5s.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return &Webhook{
		url:      url,
		hostname: host,
		client:   http.NewClient(timeout, "NovaStream"),
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, message string) error {
	payload := webhookPayload{Content: fmt.Sprintf("[%s] %s", w.hostname, message)}
	if err := w.client.PostJSON(ctx, w.url, payload); err != nil {
		return fmt.Errorf("webhook notification: %w", err)
	}
	return nil
}

// Send delivers message through n and logs, but otherwise ignores, any
// failure.
func Send(ctx context.Context, logger *slog.Logger, n Notifier, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, message); err != nil && logger != nil {
		logger.Error("Failed to send notification", "error", err)
	}
}
