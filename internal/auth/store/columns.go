package store

import (
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
)

// UserUpdate is a partial update of a user. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	Role         *domain.Role
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.PasswordHash == nil && u.Role == nil
}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// UserColumns maps each updatable user field to its storage column. Every
// field of UserUpdate must appear here; drivers build their SET clauses from
// Assignments and nothing else.
var UserColumns = struct {
	Name         string
	PasswordHash string
	Role         string
	UpdatedAt    string
}{
	Name:         "name",
	PasswordHash: "password",
	Role:         "role",
	UpdatedAt:    "updated_at",
}

// Assignments lists the column assignments for u in a fixed order, ending
// with updated_at. updatedAt is passed through as given so each driver can
// encode time its own way.
func (u UserUpdate) Assignments(updatedAt any) []Assignment {
	var out []Assignment
	if u.Name != nil {
		out = append(out, Assignment{UserColumns.Name, *u.Name})
	}
	if u.PasswordHash != nil {
		out = append(out, Assignment{UserColumns.PasswordHash, *u.PasswordHash})
	}
	if u.Role != nil {
		out = append(out, Assignment{UserColumns.Role, string(*u.Role)})
	}
	return append(out, Assignment{UserColumns.UpdatedAt, updatedAt})
}

// Apply returns user with the update applied, for stores that keep rows in
// memory.
func (u UserUpdate) Apply(user domain.User, now time.Time) domain.User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		user.PasswordHash = &h
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	user.UpdatedAt = now
	return user
}
