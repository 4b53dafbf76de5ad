// Package results stores completed screening results. Records are append-only:
// once created they are never mutated, and they outlive the grant that
// authorized the session.
package results

import (
	"context"

	"github.com/clinivault/screenauth/internal/server/models"
)

type Repository interface {
	// Create appends a result. ID and CreatedAt are assigned by the caller.
	Create(ctx context.Context, r *models.ScreeningResult) (*models.ScreeningResult, error)

	// List returns all results, most recent first.
	List(ctx context.Context) ([]*models.ScreeningResult, error)

	// ListByCode returns the results recorded against one access code,
	// most recent first.
	ListByCode(ctx context.Context, code string) ([]*models.ScreeningResult, error)
}
