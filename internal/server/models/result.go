package models

import "time"

// ScreeningResult is created once, as the side effect of a completed
// screening session, and never mutated afterwards. It stays linked to the
// issuing clinician through AccessCode even after the grant itself expires.
type ScreeningResult struct {
	ID              string
	PatientName     string
	AccessCode      string
	TestType        string
	Score           int
	Severity        string
	Analysis        string
	Recommendations []string
	CreatedAt       time.Time
}
