package roles

import "errors"

// Service errors.
var (
	ErrRoleNotFound   = errors.New("role not found")
	ErrRoleNameExists = errors.New("role name already exists")
	ErrInvalidInput   = errors.New("invalid input")
)
