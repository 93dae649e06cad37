package domain

import "time"

// Session is a persisted session row. SessionToken holds the fingerprint of
// the bearer value, never the value itself.
type Session struct {
	ID           string
	SessionToken string
	UserID       string
	Expires      time.Time
	CreatedAt    time.Time
}

// SessionView is what the rest of the application learns about the caller.
type SessionView struct {
	UserID   string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Provider string    `json:"provider,omitempty"`
	Expires  time.Time `json:"expires"`
}

// IssuedSession is returned on sign-in: the bearer token to hand to the
// client and the view it resolves to.
type IssuedSession struct {
	Token   string
	Expires time.Time
	View    SessionView
}

// Identity is the outcome of a successful authentication strategy.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	Role      Role
	IsNewUser bool
}
