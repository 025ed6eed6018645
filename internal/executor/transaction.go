package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canonical/lxd/shared/logger"
	"github.com/jmoiron/sqlx"
)

// Transaction runs f inside a transaction on db. The transaction is committed if f returns nil and rolled
// back otherwise. No timeout is applied here, any deadline comes from ctx or the driver.
func Transaction(ctx context.Context, db *sqlx.DB, f func(context.Context, *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Failed to begin transaction: %w", err)
	}

	err = f(ctx, tx)
	if err != nil {
		return rollback(tx, err)
	}

	err = tx.Commit()
	if errors.Is(err, sql.ErrTxDone) {
		err = nil // Ignore duplicate commits/rollbacks
	}

	if err != nil {
		return fmt.Errorf("Failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback a transaction after the given error occurred. The rollback is best effort: a failure is
// logged and the original reason is returned either way.
func rollback(tx *sqlx.Tx, reason error) error {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn("Failed to rollback transaction after error", logger.Ctx{"reason": reason, "err": err})
	}

	return reason
}
