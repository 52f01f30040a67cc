package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestExecutor returns an executor whose sleeps are recorded instead
// of slept.
func newTestExecutor(cfg Config) (*Executor, *[]time.Duration) {
	e := New(cfg)
	var delays []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return e, &delays
}

func testConfig(maxRetries int) Config {
	return Config{
		MaxRetries:      maxRetries,
		BaseDelay:       10 * time.Millisecond,
		MaxDelay:        time.Second,
		ExponentialBase: 2,
	}
}

func response(code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func TestExecutor_Do_SuccessFirstAttempt(t *testing.T) {
	e, delays := newTestExecutor(testConfig(3))

	calls := 0
	resp, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		calls++
		return response(200), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestExecutor_Do_RetryableStatusThenSuccess(t *testing.T) {
	e, delays := newTestExecutor(testConfig(3))

	calls := 0
	resp, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		calls++
		if calls < 3 {
			return response(503), nil
		}
		return response(200), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *delays)
}

func TestExecutor_Do_StatusExhaustion(t *testing.T) {
	e, _ := newTestExecutor(testConfig(3))

	calls := 0
	resp, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		calls++
		return response(500), nil
	})

	assert.Nil(t, resp)
	// max_retries+1 total attempts.
	assert.Equal(t, 4, calls)
	require.True(t, IsExhausted(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
}

func TestExecutor_Do_TransientErrorExhaustion(t *testing.T) {
	e, _ := newTestExecutor(testConfig(2))

	cause := &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	calls := 0
	_, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		calls++
		return nil, cause
	})

	assert.Equal(t, 3, calls)
	require.True(t, IsExhausted(err))
	// Original error is preserved through the wrap.
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
}

func TestExecutor_Do_FatalErrorNoRetry(t *testing.T) {
	e, delays := newTestExecutor(testConfig(5))

	fatal := errors.New("bad credentials")
	calls := 0
	_, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		calls++
		return nil, fatal
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, fatal)
	assert.False(t, IsExhausted(err))
	assert.Empty(t, *delays)
}

func TestExecutor_Do_NonRetryableStatusReturned(t *testing.T) {
	e, _ := newTestExecutor(testConfig(3))

	resp, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		return response(404), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestExecutor_Do_ContextCancelledDuringBackoff(t *testing.T) {
	e := New(testConfig(3))
	e.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := e.Do(context.Background(), "test op", func(context.Context) (*http.Response, error) {
		return response(503), nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_Func_RetriesWholeCallable(t *testing.T) {
	cfg := testConfig(3)
	cfg.RetryableError = func(error) bool { return true }
	e, delays := newTestExecutor(cfg)

	calls := 0
	err := e.Func(context.Background(), "open store", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *delays, 2)
}

func TestExecutor_Func_Exhaustion(t *testing.T) {
	cfg := testConfig(2)
	cfg.RetryableError = func(error) bool { return true }
	e, _ := newTestExecutor(cfg)

	cause := errors.New("still down")
	calls := 0
	err := e.Func(context.Background(), "open store", func(context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, 3, calls)
	require.True(t, IsExhausted(err))
	assert.ErrorIs(t, err, cause)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&net.OpError{Op: "read", Err: syscall.ECONNRESET}))
	assert.True(t, IsTransient(io.ErrUnexpectedEOF))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(errors.New("schema mismatch")))
}
