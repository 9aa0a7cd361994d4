// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"

	"github.com/danielhkuo/quickly-score/lifecycle"
)

var _ lifecycle.Timer = (*RiverTimer)(nil)

// RiverTimer persists vote deadlines as scheduled River jobs so they survive
// a restart and fire on exactly one instance.
type RiverTimer struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	db     *bun.DB
	logger *slog.Logger
}

// NewRiverTimer opens a pgx pool for River on dsn. db is used to look up
// jobs for cancellation and should point at the same database.
func NewRiverTimer(ctx context.Context, db *bun.DB, dsn string, expire lifecycle.ExpireFunc, logger *slog.Logger) (*RiverTimer, error) {
	logger = logger.With("component", "river_timer")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewFinishVoteWorker(expire, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			Queue: {MaxWorkers: 10},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &RiverTimer{client: client, pool: pool, db: db, logger: logger}, nil
}

// Migrate creates or upgrades River's tables.
func (t *RiverTimer) Migrate(ctx context.Context) error {
	return migrate(ctx, t.pool)
}

// Migrate creates or upgrades River's tables on dsn without starting a client.
func Migrate(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	return migrate(ctx, pool)
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to migrate river tables: %w", err)
	}
	return nil
}

func (t *RiverTimer) Start(ctx context.Context) error {
	if err := t.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	t.logger.Info("river timer started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (t *RiverTimer) Stop(ctx context.Context) error {
	defer t.pool.Close()
	if err := t.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	t.logger.Info("river timer stopped")
	return nil
}

// Schedule inserts the deadline job. A job already queued for the same vote
// is kept, so re-arming at startup is safe.
func (t *RiverTimer) Schedule(ctx context.Context, voteID string, at time.Time) error {
	res, err := t.client.Insert(ctx, FinishVoteArgs{VoteID: voteID}, &river.InsertOpts{
		Queue:       Queue,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule vote finish: %w", err)
	}
	t.logger.Info("vote finish scheduled",
		"vote_id", voteID,
		"job_id", res.Job.ID,
		"at", at,
		"duplicate", res.UniqueSkippedAsDuplicate,
	)
	return nil
}

type riverJobRow struct {
	ID          int64          `bun:"id"`
	Kind        string         `bun:"kind"`
	State       string         `bun:"state"`
	Args        map[string]any `bun:"args"`
	ScheduledAt *time.Time     `bun:"scheduled_at"`
	Attempt     int16          `bun:"attempt"`
}

// Cancel cancels the vote's deadline job if it has not run yet.
func (t *RiverTimer) Cancel(ctx context.Context, voteID string) error {
	var jobs []riverJobRow
	err := t.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "attempt").
		Where("kind = ?", finishVoteKind).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'vote_id' = ?", voteID).
		Scan(ctx, &jobs)
	if err != nil {
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	var failed int
	for _, job := range jobs {
		if _, err := t.client.JobCancel(ctx, job.ID); err != nil {
			t.logger.Warn("failed to cancel job", "job_id", job.ID, "vote_id", voteID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to cancel %d of %d jobs for vote %s", failed, len(jobs), voteID)
	}
	return nil
}

// HealthCheck verifies River's job table is reachable. It backs /health
// when durable timers are on.
func (t *RiverTimer) HealthCheck(ctx context.Context) error {
	var count int
	if err := t.db.NewSelect().Table("river_job").ColumnExpr("COUNT(*)").Scan(ctx, &count); err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}
