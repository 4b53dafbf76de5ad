package models

// Role tags an authenticated identity.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Identity is the ephemeral, session-scoped product of a successful login or
// access-code redemption. It is carried in token claims and never persisted.
type Identity struct {
	Role Role
	Name string
	// Ref points back at the authenticated subject: the clinician ID for
	// clinicians, the redeemed access code for patients.
	Ref string
}
