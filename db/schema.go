// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every application table. Used by integration tests.
func DropSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		DROP TABLE IF EXISTS submissions_normal CASCADE;
		DROP TABLE IF EXISTS submissions_judge CASCADE;
		DROP TABLE IF EXISTS vote_assignments CASCADE;
		DROP TABLE IF EXISTS judges CASCADE;
		DROP TABLE IF EXISTS votes CASCADE;
		DROP TABLE IF EXISTS events CASCADE;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

const schema = `
-- Events (rooms)
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    admin_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_events_admin_id ON events(admin_id, created_at DESC);

-- Votes
CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    presenter TEXT NOT NULL,
    duration_seconds INTEGER NOT NULL CHECK (duration_seconds > 0),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'finished')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    activated_at TIMESTAMPTZ,
    ends_at TIMESTAMPTZ,
    finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_votes_event_id ON votes(event_id, created_at);

-- At most one active vote per event
CREATE UNIQUE INDEX IF NOT EXISTS votes_one_active_per_event ON votes(event_id) WHERE status = 'active';

-- Judges
CREATE TABLE IF NOT EXISTS judges (
    id TEXT PRIMARY KEY,
    admin_id TEXT NOT NULL,
    name TEXT NOT NULL,
    invite_token TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'claimed')),
    device_voter_id TEXT UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    claimed_at TIMESTAMPTZ,
    CHECK (status = 'claimed' OR device_voter_id IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_judges_admin_id ON judges(admin_id);

-- Vote assignments (exactly three per vote, enforced at creation)
CREATE TABLE IF NOT EXISTS vote_assignments (
    vote_id TEXT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    judge_id TEXT NOT NULL REFERENCES judges(id) ON DELETE CASCADE,
    PRIMARY KEY (vote_id, judge_id)
);

-- Judge submissions
CREATE TABLE IF NOT EXISTS submissions_judge (
    vote_id TEXT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    judge_id TEXT NOT NULL REFERENCES judges(id) ON DELETE CASCADE,
    score DOUBLE PRECISION NOT NULL CHECK (score >= 1 AND score <= 10),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (vote_id, judge_id)
);

-- Public submissions
CREATE TABLE IF NOT EXISTS submissions_normal (
    vote_id TEXT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL CHECK (score >= 1 AND score <= 10),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (vote_id, voter_id)
);
`
