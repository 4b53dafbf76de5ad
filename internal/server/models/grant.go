package models

import "time"

// AccessGrant is a single-use, time-limited code a clinician issues to a
// patient. It is redeemable iff Active is true and the current time is not
// past ExpiresAt. The first successful redemption deactivates it and stamps
// RedeemedAt; consumption becomes final once a result is recorded against
// the code, after which it can never authorize a session again.
type AccessGrant struct {
	Code        string
	PatientName string
	ClinicianID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Active      bool
	RedeemedAt  *time.Time
	ResultCount int
}

// Redeemable reports whether the grant can still authorize a session at
// the given instant.
func (g *AccessGrant) Redeemable(now time.Time) bool {
	return g.Active && !now.After(g.ExpiresAt)
}
