package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/retry"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPerPage is the page size used when listing all contacts.
	DefaultPerPage = 50

	// ProactiveRate is the proactive throttle rate (~1 req/sec), which
	// keeps contact writes under Chatwoot's per-minute budget.
	ProactiveRate = 1.0

	// headerToken is the Chatwoot authentication header.
	headerToken = "Api-Access-Token"
)

// Config carries the settings the client needs to talk to Chatwoot.
type Config struct {
	// BaseURL is the account-scoped API root, e.g.
	// https://desk.example.com/api/v1/accounts/1.
	BaseURL string

	// APIToken is the agent access token sent on every request.
	APIToken string

	// Retry overrides the default retry budget, mainly for tests.
	Retry *retry.Config

	// RequestsPerSecond overrides the proactive throttle, for installs
	// without the hosted rate limits.
	RequestsPerSecond float64
}

// Client talks to the Chatwoot application API with pacing and retries.
type Client struct {
	httpClient *http.Client
	exec       *retry.Executor
	limiter    *rate.Limiter
	cfg        Config
}

// NewClient creates a new Chatwoot API client.
func NewClient(cfg Config) *Client {
	retryCfg := retry.ChatwootConfig()
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}
	rps := ProactiveRate
	if cfg.RequestsPerSecond > 0 {
		rps = cfg.RequestsPerSecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		exec:       retry.New(retryCfg),
		limiter:    rate.NewLimiter(rate.Limit(rps), 3),
		cfg:        cfg,
	}
}

// do performs a paced, retried request and returns the decoded body.
// The body payload is marshalled fresh for the request; responses with
// non-2xx statuses become APIErrors. A nil out ignores the body.
func (c *Client) do(ctx context.Context, operation, method, path string, params url.Values, payload, out any) error {
	if c.cfg.APIToken == "" {
		return ErrTokenMissing
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.exec.Do(ctx, operation, func(ctx context.Context) (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(headerToken, c.cfg.APIToken)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		if IsRateLimited(err) {
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg, URL: reqURL}
		if IsDuplicatePhone(apiErr) {
			return fmt.Errorf("%w: %w", domain.ErrDuplicatePhone, apiErr)
		}
		return apiErr
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts a human-readable message from a failed
// response body. Chatwoot uses message for single errors and an errors
// array on validation failures.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var payload struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Errors) > 0 {
			return strings.Join(payload.Errors, "; ")
		}
	}
	return strings.TrimSpace(string(data))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
