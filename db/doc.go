// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - events: rooms owned by one admin
  - votes: pending → active → finished, one per presentation
  - judges: invited scorers with a single-use claim token
  - vote_assignments: the three judges bound to a vote
  - submissions_judge: one score per (vote, judge)
  - submissions_normal: one score per (vote, voter id)

# Relationships

	events 1──* votes
	votes 1──* vote_assignments *──1 judges
	votes 1──* submissions_judge *──1 judges
	votes 1──* submissions_normal

All foreign keys use ON DELETE CASCADE.

# Constraints

  - votes_one_active_per_event: partial unique index on votes(event_id)
    where status = 'active'
  - UNIQUE (vote_id, judge_id) on submissions_judge
  - UNIQUE (vote_id, voter_id) on submissions_normal
  - device_voter_id is only set once a judge is claimed
*/
package db
