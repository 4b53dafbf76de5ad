package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/server/migrations"
	"github.com/clinivault/screenauth/internal/server/repositories/clinicians"
	"github.com/clinivault/screenauth/internal/server/repositories/grants"
	"github.com/clinivault/screenauth/internal/server/repositories/results"
)

type PostgresManager struct {
	db *sql.DB
}

func NewPostgresManager(dsn string) (*PostgresManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{db: db}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresManager) Clinicians(db dbx.DBTX) clinicians.Repository {
	return clinicians.NewPostgresRepository(m.handle(db))
}

func (m *PostgresManager) Grants(db dbx.DBTX) grants.Repository {
	return grants.NewPostgresRepository(m.handle(db))
}

func (m *PostgresManager) Results(db dbx.DBTX) results.Repository {
	return results.NewPostgresRepository(m.handle(db))
}

func (m *PostgresManager) Conn() dbx.DBTX {
	return m.db
}

func (m *PostgresManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresManager) Close() error {
	return m.db.Close()
}

func (m *PostgresManager) handle(db dbx.DBTX) dbx.DBTX {
	if db == nil {
		return m.db
	}
	return db
}
