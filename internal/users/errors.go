package users

import "errors"

// Service errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrRoleRefNotFound = errors.New("invalid role ID")
	ErrInvalidInput    = errors.New("invalid input")
)
