package domain

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress is returned when a run is requested while another
// run for the same user and provider still holds the run lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrNotConnected is returned when no credential exists for the
// requested provider.
var ErrNotConnected = errors.New("provider not connected")

// ErrSyncDisabled is returned when a run is requested for a connection
// whose sync toggle is off.
var ErrSyncDisabled = errors.New("sync is disabled for this provider")

// AuthError means the credential is invalid or expired and user action
// is required. It is never retried.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: authentication failed", e.Provider)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is, or wraps, an AuthError
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ProviderError is any non-auth failure talking to a provider: non-2xx
// responses, malformed payloads, network errors. Treated as transient.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: request failed with status %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: request failed: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LocalStoreError is a persistence failure during a run. It is recorded
// into the failing item's error list and never aborts the category.
type LocalStoreError struct {
	Op  string
	Err error
}

func (e *LocalStoreError) Error() string {
	return fmt.Sprintf("local store: %s: %v", e.Op, e.Err)
}

func (e *LocalStoreError) Unwrap() error {
	return e.Err
}
