package models

import (
	"fmt"
	"time"
)

// Role is an authorization role of a user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// User represents a user in the system. A user is the account that owns cards.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
