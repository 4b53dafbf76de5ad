package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error) {

	query :=
		`INSERT INTO access_grants (code, patient_name, clinician_id, created_at, expires_at, active, redeemed_at, result_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		g.Code, g.PatientName, g.ClinicianID, g.CreatedAt, g.ExpiresAt, g.Active, g.RedeemedAt, g.ResultCount)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*models.AccessGrant, error) {
	query :=
		`SELECT code, patient_name, clinician_id, created_at, expires_at, active, redeemed_at, result_count FROM access_grants
		 WHERE code = $1
		 `

	g := &models.AccessGrant{}
	err := r.db.QueryRowContext(ctx, query, code).
		Scan(&g.Code, &g.PatientName, &g.ClinicianID, &g.CreatedAt, &g.ExpiresAt, &g.Active, &g.RedeemedAt, &g.ResultCount)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) ListByClinician(ctx context.Context, clinicianID string) ([]*models.AccessGrant, error) {
	query :=
		`SELECT code, patient_name, clinician_id, created_at, expires_at, active, redeemed_at, result_count FROM access_grants
		 WHERE clinician_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessGrant
	for rows.Next() {
		g := &models.AccessGrant{}
		if err := rows.Scan(&g.Code, &g.PatientName, &g.ClinicianID, &g.CreatedAt, &g.ExpiresAt, &g.Active, &g.RedeemedAt, &g.ResultCount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MarkRedeemed(ctx context.Context, code string, at time.Time) error {
	query :=
		`UPDATE access_grants SET active = FALSE, redeemed_at = COALESCE(redeemed_at, $2)
		 WHERE code = $1
		 `

	res, err := r.db.ExecContext(ctx, query, code, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) ConsumeForResult(ctx context.Context, code string, at time.Time) error {
	query :=
		`UPDATE access_grants SET active = FALSE, redeemed_at = COALESCE(redeemed_at, $2), result_count = result_count + 1
		 WHERE code = $1
		 `

	res, err := r.db.ExecContext(ctx, query, code, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
