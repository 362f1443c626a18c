// Package postgres copies a loaded snapshot into PostgreSQL for read-only
// consumers. The text files remain the source of truth.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/store"
)

type Mirror struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int32) (*Mirror, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Mirror{pool: pool}, nil
}

func (m *Mirror) Close() {
	m.pool.Close()
}

// Sync replaces the mirrored rows with the contents of snap in a single
// transaction and records the run. It returns the number of rows written per
// kind; payments include orphans.
func (m *Mirror) Sync(ctx context.Context, dataDir string, snap *store.Snapshot) (map[domain.Kind]int, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("mirror.Sync: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("mirror.Sync: schema: %w", err)
	}
	if _, err = tx.Exec(ctx, truncate); err != nil {
		return nil, fmt.Errorf("mirror.Sync: truncate: %w", err)
	}

	runID := uuid.New()
	b := &pgx.Batch{}
	counts := queueSnapshot(b, snap)
	queueRun(b, runID, dataDir, time.Now().UTC(), counts)

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("mirror.Sync: %s: %w", b.QueuedQueries[i].SQL, err)
		}
	}
	if err = br.Close(); err != nil {
		return nil, fmt.Errorf("mirror.Sync: batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("mirror.Sync: commit: %w", err)
	}

	log.Info().
		Str("run_id", runID.String()).
		Int("statements", b.Len()).
		Msg("mirror.Sync: snapshot mirrored")

	return counts, nil
}
