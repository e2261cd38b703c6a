package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a looked up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write
	ErrConflict = errors.New("conflict")
)

// StoreError wraps an underlying persistence failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithTx runs fn inside a database transaction. Card rows read through the
// transactional store are locked until commit. Nested calls reuse the outer
// transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(CardStore) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin tx", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Repository{db: r.db, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return storeErr("rollback tx", fmt.Errorf("%w (original error: %w)", rbErr, err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit tx", err)
	}
	return nil
}

// lockClause makes reads inside a transaction take row locks
func (r *Repository) lockClause() string {
	if r.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
