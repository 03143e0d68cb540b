package common

import "errors"

// AuthKind is the public-safe classification of an authentication failure.
type AuthKind string

const (
	KindInvalidCredentials AuthKind = "invalid_credentials"
	KindAccountDisabled    AuthKind = "account_disabled"
	KindInvalidToken       AuthKind = "invalid_token"
)

// AuthError pairs a public-safe kind with the private cause. The Error
// message is uniform per kind so that no internal failure mode leaks to
// clients; the cause is intended for server-side logs only.
type AuthError struct {
	Kind  AuthKind
	cause error
}

func NewAuthError(kind AuthKind, cause error) *AuthError {
	return &AuthError{Kind: kind, cause: cause}
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindAccountDisabled:
		return "account disabled"
	case KindInvalidToken:
		return "invalid token"
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error { return e.cause }

// AuthKindOf extracts the public kind from err, if it is an AuthError.
func AuthKindOf(err error) (AuthKind, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
