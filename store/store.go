// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store names the full persistence surface. pgstore and memstore
// implement it; each service depends only on its own narrow port.
package store

import (
	"context"

	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/lifecycle"
	"github.com/danielhkuo/quickly-score/rooms"
	"github.com/danielhkuo/quickly-score/scoring"
	"github.com/danielhkuo/quickly-score/store/memstore"
	"github.com/danielhkuo/quickly-score/store/pgstore"
	"github.com/danielhkuo/quickly-score/submission"
)

type Store interface {
	identity.Lookup
	submission.Store
	lifecycle.Store
	scoring.Store
	rooms.Store
	AssignedJudges(ctx context.Context, voteID string) ([]string, error)
}

var (
	_ Store = (*memstore.Store)(nil)
	_ Store = (*pgstore.Store)(nil)
)
