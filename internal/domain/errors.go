package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	// ErrNotConnected means no usable storefront credential is stored;
	// the operator has to run the connect flow (again).
	ErrNotConnected = errors.New("storefront not connected")

	// ErrNeedsReauthorization is a stronger form of ErrNotConnected:
	// refreshing the stored credential has failed repeatedly and a fresh
	// interactive authorization is required.
	ErrNeedsReauthorization = errors.New("storefront needs reauthorization")

	// ErrOrderNotFound means the storefront confirmed no order matches the
	// identifier. It is an expected outcome, not a failure.
	ErrOrderNotFound = errors.New("order not found")
)

// AuthExchangeError is returned when the provider's token endpoint rejects
// an authorization-code or refresh-token grant. Body carries the provider's
// error payload for operator diagnosis.
type AuthExchangeError struct {
	StatusCode int
	Body       string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("token grant rejected: status %d: %s", e.StatusCode, e.Body)
}

// LookupError is a transport or server failure from the storefront order API
// that is not a not-found/bad-request class response. The resolver surfaces
// it immediately instead of continuing its fallback cascade.
type LookupError struct {
	StatusCode int // 0 for transport-level failures
	Body       string
	Err        error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order lookup failed: %v", e.Err)
	}
	return fmt.Sprintf("order lookup failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
