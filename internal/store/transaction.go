// Package store provides abstractions and implementations for data persistence
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
)

// TxFn runs inside a database transaction. Returning nil commits;
// returning an error rolls back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes fn inside a transaction, rolling back on error
// or panic.
//
// The ledger's exactly-once guarantee depends on this helper: consuming an
// authorization nonce and writing the balance delta happen in one TxFn, so
// either both are visible or neither is.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("rollback failed after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("error", err.Error()))
			// Keep both failures matchable: the caller's error and the
			// rollback sentinel.
			return errors.Join(err, fmt.Errorf("%w: rollback: %v", ErrTransactionFailed, rbErr))
		}
		log.Debug("rolled back transaction",
			slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}
