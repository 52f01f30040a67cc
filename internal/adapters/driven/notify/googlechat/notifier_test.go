package googlechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/retry"
)

func newTestNotifier(t *testing.T, handler http.Handler) *Notifier {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	n.exec = retry.New(retry.Config{
		MaxRetries:      2,
		BaseDelay:       time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		ExponentialBase: 2,
	})
	n.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return n
}

func TestNotifier_Notify(t *testing.T) {
	t.Run("posts a card with header and details", func(t *testing.T) {
		var got map[string]any
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		})

		n := newTestNotifier(t, handler)
		err := n.Notify(context.Background(), domain.Alert{
			Script:   "sync",
			Category: "High Error Rate",
			Message:  "3 of 30 records failed",
			Details:  map[string]any{"error_rate": "10.0%", "records_failed": 3},
			Level:    domain.AlertError,
		})
		require.NoError(t, err)

		assert.Contains(t, got["text"], "High Error Rate")

		cards, ok := got["cards"].([]any)
		require.True(t, ok)
		require.Len(t, cards, 1)
		card := cards[0].(map[string]any)

		header := card["header"].(map[string]any)
		assert.Equal(t, "Pipedrive-Chatwoot Sync Alert", header["title"])
		assert.Equal(t, "sync - High Error Rate", header["subtitle"])

		sections := card["sections"].([]any)
		require.Len(t, sections, 2)
		details := sections[1].(map[string]any)
		assert.Equal(t, "Details", details["header"])
		widgets := details["widgets"].([]any)
		require.Len(t, widgets, 2)
		first := widgets[0].(map[string]any)["keyValue"].(map[string]any)
		assert.Equal(t, "Error Rate", first["topLabel"])
		assert.Equal(t, "10.0%", first["content"])
	})

	t.Run("empty webhook URL drops alerts silently", func(t *testing.T) {
		n := New("")
		err := n.Notify(context.Background(), domain.Alert{Message: "dropped"})
		assert.NoError(t, err)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		n := newTestNotifier(t, handler)
		err := n.Notify(context.Background(), domain.Alert{Message: "boom"})
		assert.Error(t, err)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		var calls int
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		n := newTestNotifier(t, handler)
		err := n.Notify(context.Background(), domain.Alert{Message: "retry me"})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}
