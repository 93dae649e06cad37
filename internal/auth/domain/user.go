package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // stored lower-cased
	Name         string
	PasswordHash *string // argon2 encoded; nil for OAuth-only accounts
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// NormalizeEmail is the form emails are matched in. Users keep the address
// as they entered it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
