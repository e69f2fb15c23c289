package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/kickoff/internal/db"
)

// FailOnNthExecUoW fails the FailOn-th write inside the transaction with Err
// and rolls back. Reads are not counted. Count reports how many writes were
// attempted in the last transaction, so tests can sweep every failure point.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error

	attempted atomic.Int32
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	err = fn(ctx, wrapped)
	u.attempted.Store(wrapped.count.Load())
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (u *FailOnNthExecUoW) Count() int { return int(u.attempted.Load()) }

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
