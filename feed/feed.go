// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-score/models"
)

var ErrInvalidScope = errors.New("scope needs exactly one of event id or vote id")

// Scope selects which vote changes a subscriber receives.
type Scope struct {
	EventID string
	VoteID  string
}

// Topic returns the topic name for the scope.
func (s Scope) Topic() (string, error) {
	switch {
	case s.EventID != "" && s.VoteID == "":
		return "votes.event." + s.EventID, nil
	case s.VoteID != "" && s.EventID == "":
		return "votes.vote." + s.VoteID, nil
	default:
		return "", ErrInvalidScope
	}
}

// topicsFor returns every topic a change is published on.
func topicsFor(change models.Change) []string {
	return []string{
		"votes.event." + change.Vote.EventID,
		"votes.vote." + change.Vote.ID,
	}
}

// Broker fans vote changes out to subscribers. Delivery is at-least-once and
// may reorder; consumers upsert or remove by vote id. Cancelling the context
// passed to Subscribe stops delivery and closes the returned channel.
type Broker interface {
	Publish(ctx context.Context, change models.Change) error
	Subscribe(ctx context.Context, scope Scope) (<-chan models.Change, error)
	Close() error
}

// SnapshotFunc reads the current votes for a scope.
type SnapshotFunc func(ctx context.Context) ([]models.Vote, error)

// Follow subscribes first and then replays the snapshot as updated changes,
// so no change between the read and the subscription is lost. The channel
// closes when ctx is cancelled or the broker closes.
func Follow(ctx context.Context, b Broker, scope Scope, snapshot SnapshotFunc) (<-chan models.Change, error) {
	ctx, cancel := context.WithCancel(ctx)

	live, err := b.Subscribe(ctx, scope)
	if err != nil {
		cancel()
		return nil, err
	}

	votes, err := snapshot(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	out := make(chan models.Change)
	go func() {
		defer close(out)
		defer cancel()

		now := time.Now().UTC()
		for _, v := range votes {
			select {
			case out <- models.Change{Type: models.ChangeUpdated, Vote: v, At: now}:
			case <-ctx.Done():
				return
			}
		}
		for change := range live {
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Apply folds one change into a view keyed by vote id.
func Apply(view map[string]models.Vote, change models.Change) {
	switch change.Type {
	case models.ChangeDeleted:
		delete(view, change.Vote.ID)
	default:
		view[change.Vote.ID] = change.Vote
	}
}

func encode(change models.Change) ([]byte, error) {
	return json.Marshal(change)
}

func decode(payload []byte) (models.Change, error) {
	var change models.Change
	err := json.Unmarshal(payload, &change)
	return change, err
}
