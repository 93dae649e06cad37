package domain

import "time"

// VerificationToken proves control of Identifier until Expires. Token holds
// the fingerprint of the value sent to the user.
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}

func (v VerificationToken) Expired(now time.Time) bool {
	return !now.Before(v.Expires)
}
