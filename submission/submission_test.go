// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package submission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/store/memstore"
)

func setup(t *testing.T, status string) (*Service, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	now := time.Now()

	require.NoError(t, st.CreateEvent(ctx, models.Event{ID: "event-1", Name: "Demo day", AdminID: "admin-1", CreatedAt: now}))
	require.NoError(t, st.CreateJudge(ctx, models.Judge{ID: "judge-1", AdminID: "admin-1", Name: "Ada", InviteToken: "tok-1", Status: models.JudgeStatusPending, CreatedAt: now}))
	require.NoError(t, st.CreateVote(ctx, models.Vote{
		ID: "vote-1", EventID: "event-1", Title: "Robot arm", Presenter: "Bo",
		DurationSeconds: 60, Status: models.VoteStatusPending, CreatedAt: now,
	}, []string{"judge-1"}))

	switch status {
	case models.VoteStatusActive:
		_, err := st.ActivateVote(ctx, "vote-1", now, now.Add(time.Minute))
		require.NoError(t, err)
	case models.VoteStatusFinished:
		_, err := st.ActivateVote(ctx, "vote-1", now, now.Add(time.Minute))
		require.NoError(t, err)
		_, err = st.FinishVote(ctx, "vote-1", now)
		require.NoError(t, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, logger, nil), st
}

var (
	judgeRole  = models.Role{Kind: models.RoleJudge, Identity: "judge-1"}
	publicRole = models.Role{Kind: models.RolePublic, Identity: "anon-1"}
)

func TestValidateScore(t *testing.T) {
	tests := []struct {
		score   float64
		wantErr bool
	}{
		{1, false},
		{10, false},
		{5.5, false},
		{0.999, true},
		{10.0001, true},
		{0, true},
		{-3, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		err := ValidateScore(tt.score)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperr.ErrOutOfRange, "score %v", tt.score)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		} else {
			assert.NoError(t, err, "score %v", tt.score)
		}
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		voteID  string
		role    models.Role
		score   float64
		wantErr *apperr.Error
	}{
		{"judge on active vote", models.VoteStatusActive, "vote-1", judgeRole, 8, nil},
		{"public on active vote", models.VoteStatusActive, "vote-1", publicRole, 6.5, nil},
		{"score out of range", models.VoteStatusActive, "vote-1", publicRole, 11, apperr.ErrOutOfRange},
		{"range checked before role", models.VoteStatusActive, "vote-1", models.Unresolvable, 0, apperr.ErrOutOfRange},
		{"unresolvable role", models.VoteStatusActive, "vote-1", models.Unresolvable, 5, apperr.ErrIdentityUnresolved},
		{"role without identity", models.VoteStatusActive, "vote-1", models.Role{Kind: models.RolePublic}, 5, apperr.ErrIdentityUnresolved},
		{"pending vote", models.VoteStatusPending, "vote-1", publicRole, 5, apperr.ErrVoteNotActive},
		{"finished vote", models.VoteStatusFinished, "vote-1", judgeRole, 5, apperr.ErrVoteNotActive},
		{"unknown vote", models.VoteStatusActive, "nope", publicRole, 5, apperr.ErrVoteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setup(t, tt.status)

			sub, err := svc.Submit(context.Background(), tt.voteID, tt.role, tt.score)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.score, sub.Score)
			assert.Equal(t, tt.role.Kind, sub.Role)
			assert.Equal(t, tt.role.Identity, sub.Identity)
		})
	}
}

func TestSubmit_DuplicateKeepsFirstScore(t *testing.T) {
	svc, st := setup(t, models.VoteStatusActive)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "vote-1", publicRole, 7)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "vote-1", publicRole, 2)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	scores, err := st.PublicScores(ctx, "vote-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, scores)
}

// Judge and public scores land in separate tables.
func TestSubmit_TablesAreSeparate(t *testing.T) {
	svc, st := setup(t, models.VoteStatusActive)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "vote-1", judgeRole, 9)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "vote-1", publicRole, 4)
	require.NoError(t, err)

	judges, _ := st.JudgeScores(ctx, "vote-1")
	public, _ := st.PublicScores(ctx, "vote-1")
	assert.Equal(t, []float64{9}, judges)
	assert.Equal(t, []float64{4}, public)
}

func TestSubmit_ConcurrentDuplicates(t *testing.T) {
	svc, st := setup(t, models.VoteStatusActive)
	ctx := context.Background()

	const attempts = 20
	var accepted, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, "vote-1", publicRole, float64(1+i%10))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, apperr.ErrDuplicate):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(attempts-1), duplicates.Load())

	scores, _ := st.PublicScores(ctx, "vote-1")
	assert.Len(t, scores, 1)
}

func TestSubmit_StoreUnavailable(t *testing.T) {
	svc, st := setup(t, models.VoteStatusActive)
	st.FailWith(errors.New("connection refused"))

	_, err := svc.Submit(context.Background(), "vote-1", publicRole, 5)

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.True(t, apperr.Retryable(err))
}

func TestStatus(t *testing.T) {
	svc, _ := setup(t, models.VoteStatusActive)
	ctx := context.Background()

	voted, err := svc.Status(ctx, "vote-1", publicRole)
	require.NoError(t, err)
	assert.False(t, voted)

	_, err = svc.Submit(ctx, "vote-1", publicRole, 5)
	require.NoError(t, err)

	voted, err = svc.Status(ctx, "vote-1", publicRole)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = svc.Status(ctx, "vote-1", judgeRole)
	require.NoError(t, err)
	assert.False(t, voted)

	voted, err = svc.Status(ctx, "vote-1", models.Unresolvable)
	require.NoError(t, err)
	assert.False(t, voted)

	_, err = svc.Status(ctx, "nope", publicRole)
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)
}
