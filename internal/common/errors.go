// Package common defines shared constants and sentinel errors used across
// gophjokes server components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Login failure. It does not say which field was wrong.
	ErrorInvalidCredentials = errors.New("incorrect username or password")

	// Transport errors.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// Startup errors.
	ErrMissingSecret = errors.New("session secret is not set")
)
