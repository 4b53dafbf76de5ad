// Package clinicians implements the credential store: the durable mapping of
// clinician records keyed by normalized email.
package clinicians

import (
	"context"
	"strings"

	"github.com/clinivault/screenauth/internal/server/models"
)

// Repository is the credential store contract. Emails are normalized with
// NormalizeEmail before every comparison and before storage.
type Repository interface {
	// Create inserts a committed clinician record. It fails with
	// common.ErrorDuplicateEmail when the normalized email is already present.
	Create(ctx context.Context, c *models.Clinician) (*models.Clinician, error)

	// FindByEmail looks up a clinician by normalized email. It fails with
	// common.ErrorNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*models.Clinician, error)

	// List returns all committed clinicians.
	List(ctx context.Context) ([]*models.Clinician, error)
}

// NormalizeEmail lower-cases and trims an email address. Every lookup and
// every stored record goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
