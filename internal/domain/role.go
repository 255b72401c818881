// Package domain holds the core entities shared across modules.
package domain

import "time"

// Role is a named grant of access modules. Role names are unique.
type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"roleName"`
	AccessModules ModuleSet `json:"accessModules"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Active        bool      `json:"active"`
}
