package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvstock/gvstock/internal/shared"
)

// WithTx executes fn inside a repeatable-read transaction. Ledger writes rely
// on this isolation level so read-modify-write sequences cannot lose updates.
//
// A failed begin means nothing committed, so it is reported as transient and
// the whole operation is safe to retry.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return &shared.TransientError{Err: fmt.Errorf("platform/db: begin tx: %w", err)}
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
