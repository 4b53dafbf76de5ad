package clinicians

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Clinician) (*models.Clinician, error) {

	query :=
		`INSERT INTO clinicians (id, email, name, specialty, password_hash, verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		c.ID, NormalizeEmail(c.Email), c.Name, c.Specialty, c.PasswordHash, c.Verified, c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	c.Email = NormalizeEmail(c.Email)
	return c, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Clinician, error) {
	query :=
		`SELECT id, email, name, specialty, password_hash, verified, created_at FROM clinicians
		 WHERE email = $1
		 `

	c := &models.Clinician{}
	err := r.db.QueryRowContext(ctx, query, NormalizeEmail(email)).
		Scan(&c.ID, &c.Email, &c.Name, &c.Specialty, &c.PasswordHash, &c.Verified, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Clinician, error) {
	query :=
		`SELECT id, email, name, specialty, password_hash, verified, created_at FROM clinicians
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Clinician
	for rows.Next() {
		c := &models.Clinician{}
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.Specialty, &c.PasswordHash, &c.Verified, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
