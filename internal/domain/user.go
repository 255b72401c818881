package domain

import "time"

// User is a directory identity. RoleID is a weak reference: the role
// may be deleted independently, at which point the reference is
// cleared, never the user.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       *string   `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Active       bool      `json:"active"`
}

// Identity is the projection returned by authentication. It never
// carries the password digest.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
