package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/liveport/crmsync/internal/retry"
)

const (
	// DefaultBaseURL is the Pipedrive REST API root.
	DefaultBaseURL = "https://api.pipedrive.com/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageLimit is the page size used for organization listing.
	DefaultPageLimit = 100

	// ProactiveRate is the proactive throttle rate (~4 req/sec, well
	// under Pipedrive's 90 requests per 10 seconds budget).
	ProactiveRate = 4.0

	// sinceLayout is the timestamp format Pipedrive expects for
	// since_timestamp filters (UTC, no zone suffix).
	sinceLayout = "2006-01-02 15:04:05"
)

// Config carries the settings the client needs to talk to Pipedrive.
type Config struct {
	// BaseURL overrides the API root, mainly for tests.
	BaseURL string

	// APIToken authenticates every request via the api_token parameter.
	APIToken string

	// CustomerLabelID is the organization label id marking customers.
	CustomerLabelID int64

	// CustomerFilterID is the saved Pipedrive filter selecting customer
	// organizations, used to scope the upstream count.
	CustomerFilterID int64

	// PhoneFieldKey is the hash key of the organization custom field
	// holding a direct phone number, if one is configured.
	PhoneFieldKey string

	// CountryCode is prepended to national phone numbers.
	CountryCode string

	// PageLimit overrides the organization page size.
	PageLimit int

	// Retry overrides the default retry budget, mainly for tests.
	Retry *retry.Config

	// RequestsPerSecond overrides the proactive throttle.
	RequestsPerSecond float64
}

// Client talks to the Pipedrive API with pacing and retries.
type Client struct {
	httpClient *http.Client
	exec       *retry.Executor
	limiter    *rate.Limiter
	cfg        Config
}

// NewClient creates a new Pipedrive API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	retryCfg := retry.PipedriveConfig()
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
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cfg:        cfg,
	}
}

// envelope is the common Pipedrive response wrapper.
type envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error"`
	Data           json.RawMessage `json:"data"`
	AdditionalData struct {
		Pagination pagination `json:"pagination"`
	} `json:"additional_data"`
}

// pagination is the offset-paging block inside additional_data.
type pagination struct {
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
	TotalCount            int  `json:"total_count"`
}

// get performs a paced, retried GET against the given API path and
// decodes the response envelope. The API token never appears in errors.
func (c *Client) get(ctx context.Context, operation, path string, params url.Values) (*envelope, error) {
	if c.cfg.APIToken == "" {
		return nil, ErrTokenMissing
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	cleanURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		cleanURL += "?" + params.Encode()
	}
	params.Set("api_token", c.cfg.APIToken)
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	resp, err := c.exec.Do(ctx, operation, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrorMessage(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, URL: cleanURL}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, URL: cleanURL}
	}
	return &env, nil
}

// readErrorMessage extracts the error field from a failed response body,
// falling back to the raw body text.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
