package models

import "time"

// PendingVerification is an uncommitted clinician registration awaiting its
// email code. At most one is live per flow; a resend replaces Code and
// ExpiresAt atomically. It is destroyed on successful verification (promoted
// to a Clinician) or on flow abandonment. The plaintext secret is held only
// here, in memory, until it is hashed at commit time.
type PendingVerification struct {
	Name       string
	Email      string
	Specialty  string
	Secret     []byte
	Code       string
	ExpiresAt  time.Time
	LastSentAt time.Time
}
