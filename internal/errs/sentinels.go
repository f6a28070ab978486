// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates that one or more referenced items do not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("validation")

	// ErrStorage indicates a failure acquiring the store, executing a statement or decoding a row.
	ErrStorage = errors.New("storage")

	// ErrBusy indicates the store stayed locked longer than the configured wait.
	ErrBusy = errors.New("busy")

	// ErrUnsupported indicates an operation the configured ordering strategy cannot perform.
	ErrUnsupported = errors.New("unsupported")
)
