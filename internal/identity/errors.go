package identity

import "errors"

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)
