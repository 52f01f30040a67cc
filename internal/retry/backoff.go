// Package retry implements exponential backoff and a resilient request
// executor used for every outbound call to the CRM, the support desk and
// the local store. Each target carries its own retry budget: the two
// remote APIs tolerate more transient faults than local store
// connections, which fail fast.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Default retryable HTTP status codes for both remote APIs.
var defaultRetryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// jitterFraction is the relative perturbation applied when jitter is
// enabled: delays vary uniformly within ±25%.
const jitterFraction = 0.25

// Config drives the backoff policy and the executor.
type Config struct {
	// MaxRetries is the number of additional attempts after the first,
	// so an operation runs at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// ExponentialBase is the per-attempt growth factor (> 1).
	ExponentialBase float64

	// Jitter perturbs each delay by ±25% uniformly at random.
	// Disable for deterministic delays in tests.
	Jitter bool

	// RetryableStatus is the set of HTTP status codes worth retrying.
	// Nil means the default set (429, 500, 502, 503, 504).
	RetryableStatus map[int]bool

	// RetryableError reports whether an operation error is transient.
	// Nil means IsTransient.
	RetryableError func(error) bool
}

// Delay returns the backoff delay for the given zero-based attempt:
// BaseDelay * ExponentialBase^attempt, capped at MaxDelay, optionally
// jittered, floored at zero.
func (c Config) Delay(attempt int) time.Duration {
	raw := float64(c.BaseDelay) * math.Pow(c.ExponentialBase, float64(attempt))
	delay := time.Duration(raw)
	if raw > float64(c.MaxDelay) {
		delay = c.MaxDelay
	}

	if c.Jitter {
		jitter := (rand.Float64()*2 - 1) * jitterFraction * float64(delay)
		delay += time.Duration(jitter)
	}

	if delay < 0 {
		delay = 0
	}
	return delay
}

// retryableStatus reports whether a status code should be retried.
func (c Config) retryableStatus(code int) bool {
	if c.RetryableStatus == nil {
		return defaultRetryableStatus[code]
	}
	return c.RetryableStatus[code]
}

// retryableError reports whether an operation error should be retried.
func (c Config) retryableError(err error) bool {
	if c.RetryableError == nil {
		return IsTransient(err)
	}
	return c.RetryableError(err)
}

// PipedriveConfig is the retry budget for CRM calls.
func PipedriveConfig() Config {
	return Config{
		MaxRetries:      3,
		BaseDelay:       2 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
	}
}

// ChatwootConfig is the retry budget for support-desk calls, which see
// the most rate limiting and therefore get the longest budget.
func ChatwootConfig() Config {
	return Config{
		MaxRetries:      5,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
	}
}

// StoreConfig is the retry budget for local store connections, which
// fail fast: a database that refuses connections twice is down.
func StoreConfig() Config {
	return Config{
		MaxRetries:      3,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
		RetryableError:  func(error) bool { return true },
	}
}
