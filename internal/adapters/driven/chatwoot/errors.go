package chatwoot

import (
	"errors"
	"fmt"

	"github.com/liveport/crmsync/internal/retry"
)

// Chatwoot-specific errors.
var (
	// ErrTokenMissing indicates no API access token was configured.
	ErrTokenMissing = errors.New("chatwoot: API access token is missing")

	// ErrNoContactID indicates a contact create succeeded but the
	// response carried no contact id.
	ErrNoContactID = errors.New("chatwoot: create response has no contact id")
)

// APIError represents a Chatwoot API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatwoot: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
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

// IsDuplicatePhone checks if the error is Chatwoot rejecting a contact
// write because the phone number is already taken (422 with a phone
// uniqueness message).
func IsDuplicatePhone(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 422 {
		return false
	}
	return containsFold(apiErr.Message, "phone number") && containsFold(apiErr.Message, "taken")
}
