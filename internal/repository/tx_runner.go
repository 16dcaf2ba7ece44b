package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ingestionLockKey identifies the advisory lock held while ingesting.
const ingestionLockKey int64 = 0x6d6564617373 // "medass"

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// WithIngestionLock runs fn while holding a session-level advisory lock, so
// that only one process at a time checks the store and ingests into it.
func (r *TxRunner) WithIngestionLock(ctx context.Context, fn func(ctx context.Context) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for ingestion lock: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, ingestionLockKey); err != nil {
		return fmt.Errorf("failed to take ingestion lock: %w", err)
	}
	defer func() {
		// Use a fresh context so the lock is released even if ctx was cancelled.
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, ingestionLockKey)
	}()

	return fn(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Segments() service.SegmentRepository {
	return NewSegmentRepositoryWithTx(r.tx)
}
