// Package repo contains all database access logic for the indirect cost service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL, type mapping, and error translation.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plantops/indirect-costs/internal/pgerr"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txDB is a db that can also open a transaction. Calling Begin on a pgx.Tx
// creates a savepoint, so a Store built on a test transaction still nests.
type txDB interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles the repositories bound to one connection or transaction.
type Repos struct {
	Plants     PlantRepo
	Operations OperationRepo
	Costs      CostRepo
}

// Transactor runs fn as a single unit of work. The Repos handed to fn are
// bound to the transaction; if fn returns an error everything it wrote is
// rolled back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(Repos) error) error
}

// Store owns the connection handle and hands out repositories, either bound
// directly to the handle (Repos) or to a transaction (WithTx).
type Store struct {
	Repos
	db txDB
}

// NewStore constructs a Store. In production pass *pgxpool.Pool; in tests
// pass a pgx.Tx for rollback isolation.
func NewStore(db txDB) *Store {
	return &Store{Repos: newRepos(db), db: db}
}

// WithTx implements Transactor on top of pgx.BeginFunc, which commits when
// fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newRepos(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.Store.WithTx: %w", pgerr.Translate(err))
	}
	return nil
}

func newRepos(db db) Repos {
	return Repos{
		Plants:     NewPlantRepo(db),
		Operations: NewOperationRepo(db),
		Costs:      NewCostRepo(db),
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}
