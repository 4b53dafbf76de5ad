package repomanager

import (
	"context"

	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/server/repositories/clinicians"
	"github.com/clinivault/screenauth/internal/server/repositories/grants"
	"github.com/clinivault/screenauth/internal/server/repositories/results"
)

// InMemoryManager serves the same repository singletons regardless of the
// handle. Used in tests and for running the server without Postgres.
type InMemoryManager struct {
	clinicians *clinicians.InMemoryRepository
	grants     *grants.InMemoryRepository
	results    *results.InMemoryRepository
}

func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{
		clinicians: clinicians.NewInMemoryRepository(),
		grants:     grants.NewInMemoryRepository(),
		results:    results.NewInMemoryRepository(),
	}
}

func (m *InMemoryManager) Clinicians(db dbx.DBTX) clinicians.Repository {
	return m.clinicians
}

func (m *InMemoryManager) Grants(db dbx.DBTX) grants.Repository {
	return m.grants
}

func (m *InMemoryManager) Results(db dbx.DBTX) results.Repository {
	return m.results
}

func (m *InMemoryManager) Conn() dbx.DBTX {
	return nil
}

func (m *InMemoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *InMemoryManager) Close() error {
	return nil
}
