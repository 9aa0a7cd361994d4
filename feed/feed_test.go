// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielhkuo/quickly-score/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func vote(id, eventID, status string) models.Vote {
	return models.Vote{ID: id, EventID: eventID, Title: "Talk " + id, Status: status}
}

func receive(t *testing.T, ch <-chan models.Change) models.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed before a change arrived")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return models.Change{}
	}
}

func waitClosed(t *testing.T, ch <-chan models.Change) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed after cancel")
		}
	}
}

func TestScope_Topic(t *testing.T) {
	tests := []struct {
		name    string
		scope   Scope
		want    string
		wantErr bool
	}{
		{"event", Scope{EventID: "e1"}, "votes.event.e1", false},
		{"vote", Scope{VoteID: "v1"}, "votes.vote.v1", false},
		{"both", Scope{EventID: "e1", VoteID: "v1"}, "", true},
		{"neither", Scope{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scope.Topic()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidScope)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocal_PublishReachesEventAndVoteScopes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewLocal(quietLogger(), nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	byEvent, err := b.Subscribe(ctx, Scope{EventID: "e1"})
	require.NoError(t, err)
	byVote, err := b.Subscribe(ctx, Scope{VoteID: "v1"})
	require.NoError(t, err)
	otherEvent, err := b.Subscribe(ctx, Scope{EventID: "e2"})
	require.NoError(t, err)

	change := models.Change{Type: models.ChangeUpdated, Vote: vote("v1", "e1", models.VoteStatusActive), At: time.Now().UTC()}
	require.NoError(t, b.Publish(ctx, change))

	got := receive(t, byEvent)
	assert.Equal(t, models.ChangeUpdated, got.Type)
	assert.Equal(t, "v1", got.Vote.ID)
	assert.Equal(t, models.VoteStatusActive, got.Vote.Status)

	got = receive(t, byVote)
	assert.Equal(t, "v1", got.Vote.ID)

	select {
	case c := <-otherEvent:
		t.Fatalf("unexpected change on other event: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	waitClosed(t, byEvent)
	waitClosed(t, byVote)
	waitClosed(t, otherEvent)
}

func TestLocal_CancelDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewLocal(quietLogger(), nil)
	defer b.Close()

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := b.Subscribe(ctx, Scope{EventID: "e1"})
		require.NoError(t, err)

		// Leave a change undelivered in the pipe before cancelling.
		require.NoError(t, b.Publish(context.Background(), models.Change{Type: models.ChangeCreated, Vote: vote("v1", "e1", models.VoteStatusPending)}))

		cancel()
		waitClosed(t, ch)
	}
}

func TestFollow_SnapshotThenLive(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewLocal(quietLogger(), nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshot := func(context.Context) ([]models.Vote, error) {
		return []models.Vote{
			vote("v1", "e1", models.VoteStatusFinished),
			vote("v2", "e1", models.VoteStatusPending),
		}, nil
	}

	ch, err := Follow(ctx, b, Scope{EventID: "e1"}, snapshot)
	require.NoError(t, err)

	view := map[string]models.Vote{}
	Apply(view, receive(t, ch))
	Apply(view, receive(t, ch))
	assert.Len(t, view, 2)

	require.NoError(t, b.Publish(ctx, models.Change{Type: models.ChangeUpdated, Vote: vote("v2", "e1", models.VoteStatusActive)}))
	Apply(view, receive(t, ch))
	assert.Equal(t, models.VoteStatusActive, view["v2"].Status)

	require.NoError(t, b.Publish(ctx, models.Change{Type: models.ChangeDeleted, Vote: vote("v1", "e1", models.VoteStatusFinished)}))
	Apply(view, receive(t, ch))
	assert.NotContains(t, view, "v1")

	cancel()
	waitClosed(t, ch)
}

func TestFollow_SnapshotErrorReleasesSubscription(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewLocal(quietLogger(), nil)
	defer b.Close()

	boom := errors.New("boom")
	_, err := Follow(context.Background(), b, Scope{EventID: "e1"}, func(context.Context) ([]models.Vote, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestApply_IsIdempotent(t *testing.T) {
	view := map[string]models.Vote{}
	c := models.Change{Type: models.ChangeUpdated, Vote: vote("v1", "e1", models.VoteStatusActive)}

	Apply(view, c)
	Apply(view, c)
	assert.Len(t, view, 1)

	del := models.Change{Type: models.ChangeDeleted, Vote: vote("v1", "e1", models.VoteStatusActive)}
	Apply(view, del)
	Apply(view, del)
	assert.Empty(t, view)
}
