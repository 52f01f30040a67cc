// Package googlechat implements the Notifier driven port against a
// Google Chat incoming webhook. Alerts render as cards with a
// key/value section per detail. Delivery is best-effort: the notifier
// retries with its own small backoff and reports but never propagates
// failures as fatal.
package googlechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/logger"
	"github.com/liveport/crmsync/internal/retry"
)

const (
	// DefaultTimeout is the webhook request timeout.
	DefaultTimeout = 30 * time.Second

	// headerTitle is the fixed card header title.
	headerTitle = "Pipedrive-Chatwoot Sync Alert"
)

// Notifier posts alert cards to a Google Chat webhook.
type Notifier struct {
	httpClient *http.Client
	exec       *retry.Executor
	webhookURL string
	now        func() time.Time
}

var _ driven.Notifier = (*Notifier)(nil)

// New creates a webhook notifier. An empty URL yields a notifier that
// silently drops alerts, so callers never need a nil check.
func New(webhookURL string) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		exec: retry.New(retry.Config{
			MaxRetries:      3,
			BaseDelay:       2 * time.Second,
			MaxDelay:        20 * time.Second,
			ExponentialBase: 2,
		}),
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

// Notify posts one alert card. Errors are returned for logging but the
// pipeline treats delivery as fire-and-forget.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	if n.webhookURL == "" {
		logger.Debug("No webhook configured, dropping alert: %s", alert.Message)
		return nil
	}

	body, err := json.Marshal(n.card(alert))
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	resp, err := n.exec.Do(ctx, "send alert", func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return n.httpClient.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// card builds the Google Chat card payload for an alert.
func (n *Notifier) card(alert domain.Alert) map[string]any {
	timestamp := n.now().UTC().Format("2006-01-02 15:04:05 UTC")

	widgets := []map[string]any{
		keyValue("Timestamp", timestamp),
		keyValue("Script", alert.Script),
		keyValue("Category", alert.Category),
		keyValue("Alert Level", string(alert.Level)),
		{
			"textParagraph": map[string]any{
				"text": "<b>Message:</b><br>" + alert.Message,
			},
		},
	}

	sections := []map[string]any{{"widgets": widgets}}

	if len(alert.Details) > 0 {
		keys := make([]string, 0, len(alert.Details))
		for key := range alert.Details {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		detailWidgets := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			detailWidgets = append(detailWidgets, keyValue(titleCase(key), fmt.Sprint(alert.Details[key])))
		}
		sections = append(sections, map[string]any{
			"header":  "Details",
			"widgets": detailWidgets,
		})
	}

	return map[string]any{
		"text": fmt.Sprintf("%s %s - %s", levelEmoji(alert.Level), headerTitle, alert.Category),
		"cards": []map[string]any{{
			"header": map[string]any{
				"title":    headerTitle,
				"subtitle": fmt.Sprintf("%s - %s", alert.Script, alert.Category),
			},
			"sections": sections,
		}},
	}
}

func keyValue(label, content string) map[string]any {
	return map[string]any{
		"keyValue": map[string]any{
			"topLabel": label,
			"content":  content,
		},
	}
}

func levelEmoji(level domain.AlertLevel) string {
	switch level {
	case domain.AlertError:
		return "\U0001F6A8"
	case domain.AlertWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// titleCase turns a snake_case detail key into a display label.
func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
