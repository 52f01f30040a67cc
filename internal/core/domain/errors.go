package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthInvalid indicates the API credentials were rejected.
	// Fatal at startup: a run must not proceed with bad credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrMissingConfig indicates a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInboxNotFound indicates the target inbox could not be resolved.
	ErrInboxNotFound = errors.New("target inbox not found")

	// ErrDuplicatePhone indicates the support desk rejected a contact
	// write because the phone number belongs to another contact.
	// The caller retries the write without the phone.
	ErrDuplicatePhone = errors.New("phone number already taken")

	// ErrRateLimited indicates the remote API throttled the request
	// beyond what retries could absorb. The record is skipped, not the run.
	ErrRateLimited = errors.New("rate limited")

	// ErrSyncInProgress indicates a sync is already running.
	// Concurrent runs are not safe and must be serialized externally.
	ErrSyncInProgress = errors.New("sync in progress")
)
