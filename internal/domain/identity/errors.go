package identity

import "errors"

var (
	// ErrNoPrincipal indicates the token resolves to no authenticated account.
	ErrNoPrincipal = errors.New("no authenticated principal")
	// ErrInvalidEmail indicates a malformed sign-in email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrCodeExpired indicates the login code is unknown, consumed, or expired.
	ErrCodeExpired = errors.New("login code expired or already used")
)
