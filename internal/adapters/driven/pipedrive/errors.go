package pipedrive

import (
	"errors"
	"fmt"

	"github.com/liveport/crmsync/internal/retry"
)

// Pipedrive-specific errors.
var (
	// ErrTokenMissing indicates no API token was configured.
	ErrTokenMissing = errors.New("pipedrive: API token is missing")

	// ErrMalformedResponse indicates the API returned an envelope the
	// client could not interpret.
	ErrMalformedResponse = errors.New("pipedrive: malformed API response")
)

// APIError represents a Pipedrive API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting, either as
// a direct API error or as an exhausted retry on a 429 status.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	var statusErr *retry.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == 429
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}
