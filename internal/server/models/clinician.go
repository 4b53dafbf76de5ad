package models

import "time"

// Clinician is a committed, verified account. Exactly one record exists per
// normalized (lower-cased) email. Unverified registrations never reach the
// store; they live only as a PendingVerification inside a flow.
type Clinician struct {
	ID           string
	Email        string
	Name         string
	Specialty    string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}
