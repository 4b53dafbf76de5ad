// Package grants implements the access-grant registry: the mapping of
// access code to grant record, with activation and redemption tracking.
package grants

import (
	"context"
	"time"

	"github.com/clinivault/screenauth/internal/server/models"
)

type Repository interface {
	// Create stores a new grant. The code is the primary key.
	Create(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error)

	// FindByCode looks up a grant by exact code match. Fails with
	// common.ErrorNotFound when no grant exists.
	FindByCode(ctx context.Context, code string) (*models.AccessGrant, error)

	// ListByClinician returns the grants a clinician has issued,
	// newest first.
	ListByClinician(ctx context.Context, clinicianID string) ([]*models.AccessGrant, error)

	// MarkRedeemed deactivates the grant and stamps the redemption date
	// if it has not been stamped yet.
	MarkRedeemed(ctx context.Context, code string, at time.Time) error

	// ConsumeForResult finalizes consumption when a result is recorded:
	// deactivates, stamps the redemption date if unset, and increments the
	// linked-result counter.
	ConsumeForResult(ctx context.Context, code string, at time.Time) error
}
