package results

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, res *models.ScreeningResult) (*models.ScreeningResult, error) {

	recs, err := json.Marshal(res.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("recommendations encoding: %w", err)
	}

	query :=
		`INSERT INTO screening_results (id, patient_name, access_code, test_type, score, severity, analysis, recommendations, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err = r.db.ExecContext(ctx, query,
		res.ID, res.PatientName, res.AccessCode, res.TestType, res.Score, res.Severity, res.Analysis, recs, res.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return res, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.ScreeningResult, error) {
	query :=
		`SELECT id, patient_name, access_code, test_type, score, severity, analysis, recommendations, created_at FROM screening_results
		 ORDER BY created_at DESC
		 `

	return r.queryResults(ctx, query)
}

func (r *PostgresRepository) ListByCode(ctx context.Context, code string) ([]*models.ScreeningResult, error) {
	query :=
		`SELECT id, patient_name, access_code, test_type, score, severity, analysis, recommendations, created_at FROM screening_results
		 WHERE access_code = $1
		 ORDER BY created_at DESC
		 `

	return r.queryResults(ctx, query, code)
}

func (r *PostgresRepository) queryResults(ctx context.Context, query string, args ...any) ([]*models.ScreeningResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ScreeningResult
	for rows.Next() {
		res := &models.ScreeningResult{}
		var recs []byte
		if err := rows.Scan(&res.ID, &res.PatientName, &res.AccessCode, &res.TestType,
			&res.Score, &res.Severity, &res.Analysis, &recs, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(recs, &res.Recommendations); err != nil {
			return nil, fmt.Errorf("recommendations decoding: %w", err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
