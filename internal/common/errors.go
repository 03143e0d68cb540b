// Package common contains shared sentinel errors used across AuthGate
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// ErrValidation marks user-correctable bad input (empty login, empty
	// secret).
	ErrValidation = errors.New("validation error")

	// ErrStorage marks a storage-layer failure that must surface to the
	// caller instead of being silently retried.
	ErrStorage = errors.New("storage failure")

	// ErrCredentialMalformed indicates a corrupt or oversized credential
	// input. This is fatal: a stored hash that fails to parse means the
	// record is damaged.
	ErrCredentialMalformed = errors.New("malformed credential")

	// Token lifecycle errors. Distinct internally, collapsed to a single
	// public kind at the orchestrator boundary.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)
