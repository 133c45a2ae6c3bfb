package authkit

import "errors"

var (
	// ErrValidation indicates a malformed or incomplete request body.
	ErrValidation = errors.New("auth.validation")
	// ErrAuthenticationFailed indicates the email/password pair did not match a user.
	ErrAuthenticationFailed = errors.New("auth.authentication_failed")
	// ErrUnauthenticated indicates a missing, invalid, or stale identity assertion or token.
	ErrUnauthenticated = errors.New("auth.unauthenticated")
	// ErrForbidden indicates the caller is authenticated but not authorized for the target.
	ErrForbidden = errors.New("auth.forbidden")
	// ErrDuplicateEmail indicates a registration attempt with an already-used email.
	ErrDuplicateEmail = errors.New("auth.duplicate_email")
	// ErrUserNotFound indicates no durable user record matched the identifier.
	ErrUserNotFound = errors.New("auth.user_not_found")
	// ErrInvalidToken indicates a token whose signature, shape, or expiry failed verification.
	ErrInvalidToken = errors.New("auth.invalid_token")
	// ErrDependencyUnavailable indicates the durable store or session cache is unreachable.
	ErrDependencyUnavailable = errors.New("auth.dependency_unavailable")
)
