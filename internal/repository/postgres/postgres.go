// Package postgres implements campaign.Repository on PostgreSQL through
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/service/campaign"
	"github.com/lib/pq"
)

// SQLSTATE codes the repository translates.
const (
	uniqueViolation = "23505"
	invalidTextRepr = "22P02"
)

// Repo implements campaign.Repository against PostgreSQL.
type Repo struct{ db *sql.DB }

var _ campaign.Repository = (*Repo)(nil)

// New creates a Postgres-backed repository.
func New(db *sql.DB) *Repo { return &Repo{db: db} }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isInvalidText reports a value the column type rejects, such as an id
// that is not a UUID.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepr
}

// lookupErr wraps err with op. A missing row and an id that cannot exist
// in a UUID column both become campaign.ErrNotFound.
func lookupErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return fmt.Errorf("%s: %w", op, campaign.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withTx runs fn in a transaction, committing on success.
func (r *Repo) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("tx rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
