// Package repomanager hands out repositories bound to a database handle, so
// services can run several repository calls inside one transaction.
package repomanager

import (
	"context"

	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/server/repositories/clinicians"
	"github.com/clinivault/screenauth/internal/server/repositories/grants"
	"github.com/clinivault/screenauth/internal/server/repositories/results"
)

// RepositoryManager produces repositories bound to the given handle. Passing
// the handle returned by Conn gives plain, auto-committed access; passing the
// handle provided by WithinTx scopes the repository to that transaction.
// The in-memory implementation ignores the handle entirely.
type RepositoryManager interface {
	Clinicians(db dbx.DBTX) clinicians.Repository
	Grants(db dbx.DBTX) grants.Repository
	Results(db dbx.DBTX) results.Repository

	// Conn returns the non-transactional handle, nil for in-memory storage.
	Conn() dbx.DBTX

	// WithinTx runs fn atomically. The Postgres implementation opens a real
	// transaction; the in-memory one relies on its per-record locking and
	// simply invokes fn.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Close() error
}
