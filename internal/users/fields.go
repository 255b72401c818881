package users

import (
	"fmt"
	"net/mail"
	"strings"
)

// UpdateFields holds allow-listed user field updates. Nil fields are
// left unchanged; RoleSet distinguishes clearing the role reference
// from not touching it.
type UpdateFields struct {
	FirstName *string
	LastName  *string
	Email     *string
	Active    *bool
	RoleID    *string
	RoleSet   bool
}

// IsEmpty reports whether no field is being changed.
func (f UpdateFields) IsEmpty() bool {
	return f.FirstName == nil && f.LastName == nil && f.Email == nil &&
		f.Active == nil && !f.RoleSet
}

// ParseUpdateFields converts a request map into allow-listed field
// updates. Unknown keys are rejected rather than applied, and the
// password field is refused outright: credential changes go through
// the dedicated password endpoint, never a generic field update.
func ParseUpdateFields(data map[string]interface{}) (UpdateFields, error) {
	var fields UpdateFields

	for key, value := range data {
		switch key {
		case "firstName":
			s, ok := value.(string)
			if !ok {
				return UpdateFields{}, fmt.Errorf("%w: firstName must be a string", ErrInvalidInput)
			}
			fields.FirstName = &s
		case "lastName":
			s, ok := value.(string)
			if !ok {
				return UpdateFields{}, fmt.Errorf("%w: lastName must be a string", ErrInvalidInput)
			}
			fields.LastName = &s
		case "email":
			s, ok := value.(string)
			if !ok {
				return UpdateFields{}, fmt.Errorf("%w: email must be a string", ErrInvalidInput)
			}
			if err := validateEmail(s); err != nil {
				return UpdateFields{}, err
			}
			s = normalizeEmail(s)
			fields.Email = &s
		case "active":
			b, ok := value.(bool)
			if !ok {
				return UpdateFields{}, fmt.Errorf("%w: active must be a boolean", ErrInvalidInput)
			}
			fields.Active = &b
		case "role":
			fields.RoleSet = true
			if value == nil {
				continue
			}
			s, ok := value.(string)
			if !ok {
				return UpdateFields{}, fmt.Errorf("%w: role must be a role id or null", ErrInvalidInput)
			}
			fields.RoleID = &s
		case "password":
			return UpdateFields{}, fmt.Errorf("%w: password cannot be updated here, use the password endpoint", ErrInvalidInput)
		default:
			return UpdateFields{}, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
	}

	return fields, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
