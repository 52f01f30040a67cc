package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/liveport/crmsync/internal/logger"
)

// Operation is a single outbound request attempt. The executor owns the
// response body of failed attempts; callers only ever see the final one.
type Operation func(ctx context.Context) (*http.Response, error)

// Executor runs operations with retry-on-failure semantics driven by a
// backoff Config. One executor per target system; executors are safe
// for reuse across calls.
type Executor struct {
	cfg Config

	// sleep is replaced in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor with the given retry budget.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg, sleep: sleepCtx}
}

// Do invokes op up to MaxRetries+1 times. Retryable status codes and
// transient errors back off and retry; any other error is fatal
// immediately. On exhaustion the caller receives an ExhaustedError
// wrapping the original cause.
func (e *Executor) Do(ctx context.Context, operation string, op Operation) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := op(ctx)

		if err != nil {
			if !e.cfg.retryableError(err) {
				return nil, err
			}
			if attempt >= e.cfg.MaxRetries {
				logger.Error("%s failed after %d attempts: %v", operation, attempt+1, err)
				return nil, &ExhaustedError{Operation: operation, Attempts: attempt + 1, Err: err}
			}
			if err := e.backoff(ctx, operation, attempt, err.Error()); err != nil {
				return nil, err
			}
			continue
		}

		if e.cfg.retryableStatus(resp.StatusCode) {
			code := resp.StatusCode
			resp.Body.Close()
			if attempt >= e.cfg.MaxRetries {
				logger.Error("%s failed after %d attempts: final status %d", operation, attempt+1, code)
				return nil, &ExhaustedError{
					Operation: operation,
					Attempts:  attempt + 1,
					Err:       &StatusError{Operation: operation, StatusCode: code},
				}
			}
			if err := e.backoff(ctx, operation, attempt, http.StatusText(code)); err != nil {
				return nil, err
			}
			continue
		}

		if attempt > 0 {
			logger.Info("%s succeeded on attempt %d", operation, attempt+1)
		}
		return resp, nil
	}
}

// Func wraps an entire callable with the same retry semantics, for
// operations that are not simple request/response (e.g. opening a
// database connection).
func (e *Executor) Func(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("%s succeeded on attempt %d", operation, attempt+1)
			}
			return nil
		}

		if !e.cfg.retryableError(err) {
			return err
		}
		if attempt >= e.cfg.MaxRetries {
			logger.Error("%s failed after %d attempts: %v", operation, attempt+1, err)
			return &ExhaustedError{Operation: operation, Attempts: attempt + 1, Err: err}
		}
		if err := e.backoff(ctx, operation, attempt, err.Error()); err != nil {
			return err
		}
	}
}

// backoff logs the retry and sleeps for the policy delay.
func (e *Executor) backoff(ctx context.Context, operation string, attempt int, cause string) error {
	delay := e.cfg.Delay(attempt)
	logger.Warn("%s failed (attempt %d/%d): %s. Retrying in %s...",
		operation, attempt+1, e.cfg.MaxRetries+1, cause, delay.Round(time.Millisecond))
	return e.sleep(ctx, delay)
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
