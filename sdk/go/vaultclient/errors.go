package vaultclient

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for 404 responses: unknown, expired or foreign auth requests and missing ciphers.
	ErrNotFound = errors.New("vaultclient: not found")
	// ErrAlreadyDecided is returned when a decision is submitted for an auth request that is no longer pending.
	ErrAlreadyDecided = errors.New("vaultclient: auth request already decided")
	// ErrNetwork wraps transport failures, including timeouts.
	ErrNetwork = errors.New("vaultclient: network error")
)

// StatusError describes a non-2xx response. It unwraps to ErrNotFound or ErrAlreadyDecided where one applies.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vaultclient: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vaultclient: status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.kind }
