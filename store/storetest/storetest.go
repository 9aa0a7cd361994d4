// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest holds the behavior every store implementation must
// share. memstore and pgstore run it from their own tests.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises st against the shared store contract.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f *fixture)
	}{
		{"Events", testEvents},
		{"VotesAndAssignments", testVotesAndAssignments},
		{"ActivateVote", testActivateVote},
		{"ActivateVoteConcurrent", testActivateVoteConcurrent},
		{"ActivateSiblingsConcurrent", testActivateSiblingsConcurrent},
		{"FinishVote", testFinishVote},
		{"ClaimJudge", testClaimJudge},
		{"Submissions", testSubmissions},
		{"SubmissionsConcurrent", testSubmissionsConcurrent},
		{"DeleteEventCascades", testDeleteEventCascades},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, &fixture{
				st:    newStore(t),
				faker: gofakeit.New(11),
				now:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			})
		})
	}
}

type fixture struct {
	st    store.Store
	faker *gofakeit.Faker
	now   time.Time
}

func (f *fixture) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fixture) event(t *testing.T, adminID string) models.Event {
	t.Helper()
	e := models.Event{ID: uuid.NewString(), Name: f.faker.Company(), AdminID: adminID, CreatedAt: f.tick()}
	require.NoError(t, f.st.CreateEvent(context.Background(), e))
	return e
}

func (f *fixture) judge(t *testing.T, adminID string) models.Judge {
	t.Helper()
	j := models.Judge{
		ID:          uuid.NewString(),
		AdminID:     adminID,
		Name:        f.faker.Name(),
		InviteToken: uuid.NewString(),
		Status:      models.JudgeStatusPending,
		CreatedAt:   f.tick(),
	}
	require.NoError(t, f.st.CreateJudge(context.Background(), j))
	return j
}

func (f *fixture) vote(t *testing.T, eventID string, judgeIDs ...string) models.Vote {
	t.Helper()
	v := models.Vote{
		ID:              uuid.NewString(),
		EventID:         eventID,
		Title:           f.faker.AppName(),
		Presenter:       f.faker.Name(),
		DurationSeconds: 15,
		Status:          models.VoteStatusPending,
		CreatedAt:       f.tick(),
	}
	require.NoError(t, f.st.CreateVote(context.Background(), v, judgeIDs))
	return v
}

func (f *fixture) activate(t *testing.T, voteID string) {
	t.Helper()
	at := f.tick()
	ok, err := f.st.ActivateVote(context.Background(), voteID, at, at.Add(15*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
}

func testEvents(t *testing.T, f *fixture) {
	ctx := context.Background()
	e1 := f.event(t, "admin-1")
	e2 := f.event(t, "admin-1")
	f.event(t, "admin-2")

	got, err := f.st.GetEvent(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1.Name, got.Name)
	assert.Equal(t, "admin-1", got.AdminID)
	assert.True(t, e1.CreatedAt.Equal(got.CreatedAt))

	events, err := f.st.ListEventsByAdmin(ctx, "admin-1")
	require.NoError(t, err)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{e1.ID, e2.ID}, ids)

	_, err = f.st.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrEventNotFound)
	assert.ErrorIs(t, f.st.DeleteEvent(ctx, "missing"), apperr.ErrEventNotFound)
}

func testVotesAndAssignments(t *testing.T, f *fixture) {
	ctx := context.Background()
	e := f.event(t, "admin-1")
	j1, j2, j3 := f.judge(t, "admin-1"), f.judge(t, "admin-1"), f.judge(t, "admin-1")
	outsider := f.judge(t, "admin-1")
	first := f.vote(t, e.ID, j1.ID, j2.ID, j3.ID)
	second := f.vote(t, e.ID, j1.ID, j2.ID, outsider.ID)

	votes, err := f.st.ListVotes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, first.ID, votes[0].ID, "votes come back in creation order")
	assert.Equal(t, second.ID, votes[1].ID)
	assert.Equal(t, models.VoteStatusPending, votes[0].Status)
	assert.Nil(t, votes[0].EndsAt)

	assigned, err := f.st.IsAssigned(ctx, first.ID, j3.ID)
	require.NoError(t, err)
	assert.True(t, assigned)
	assigned, err = f.st.IsAssigned(ctx, first.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, assigned, "assignment is per vote")

	ids, err := f.st.AssignedJudges(ctx, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{j1.ID, j2.ID, j3.ID}, ids)
	assert.IsIncreasing(t, ids)

	_, err = f.st.GetVote(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)

	err = f.st.CreateVote(ctx, models.Vote{
		ID: uuid.NewString(), EventID: "missing", Title: "x", DurationSeconds: 15,
		Status: models.VoteStatusPending, CreatedAt: f.tick(),
	}, nil)
	assert.ErrorIs(t, err, apperr.ErrEventNotFound)
}

func testActivateVote(t *testing.T, f *fixture) {
	ctx := context.Background()
	e := f.event(t, "admin-1")
	v := f.vote(t, e.ID)
	sibling := f.vote(t, e.ID)
	other := f.vote(t, f.event(t, "admin-1").ID)

	at := f.tick()
	endsAt := at.Add(15 * time.Second)
	ok, err := f.st.ActivateVote(ctx, v.ID, at, endsAt)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := f.st.GetVote(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStatusActive, got.Status)
	require.NotNil(t, got.ActivatedAt)
	require.NotNil(t, got.EndsAt)
	assert.True(t, at.Equal(*got.ActivatedAt))
	assert.True(t, endsAt.Equal(*got.EndsAt))

	// Already active
	ok, err = f.st.ActivateVote(ctx, v.ID, f.tick(), f.now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	// One active vote per event
	_, err = f.st.ActivateVote(ctx, sibling.ID, f.tick(), f.now.Add(time.Minute))
	assert.ErrorIs(t, err, apperr.ErrAnotherVoteActive)

	// Other events are independent
	ok, err = f.st.ActivateVote(ctx, other.ID, f.tick(), f.now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := f.st.ListActiveVotes(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = f.st.ActivateVote(ctx, "missing", f.tick(), f.now)
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)
}

func testActivateVoteConcurrent(t *testing.T, f *fixture) {
	v := f.vote(t, f.event(t, "admin-1").ID)
	at := f.tick()

	const workers = 10
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.st.ActivateVote(context.Background(), v.ID, at, at.Add(15*time.Second))
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func testActivateSiblingsConcurrent(t *testing.T, f *fixture) {
	e := f.event(t, "admin-1")
	votes := []models.Vote{f.vote(t, e.ID), f.vote(t, e.ID), f.vote(t, e.ID)}
	at := f.tick()

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for _, v := range votes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.st.ActivateVote(context.Background(), v.ID, at, at.Add(15*time.Second))
			switch {
			case err == nil && ok:
				wins.Add(1)
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(len(votes)-1), conflicts.Load())

	active, err := f.st.ListActiveVotes(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func testFinishVote(t *testing.T, f *fixture) {
	ctx := context.Background()
	v := f.vote(t, f.event(t, "admin-1").ID)

	// Pending votes do not finish
	ok, err := f.st.FinishVote(ctx, v.ID, f.tick())
	require.NoError(t, err)
	assert.False(t, ok)

	f.activate(t, v.ID)
	at := f.tick()
	ok, err = f.st.FinishVote(ctx, v.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := f.st.GetVote(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStatusFinished, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, at.Equal(*got.FinishedAt))

	ok, err = f.st.FinishVote(ctx, v.ID, f.tick())
	require.NoError(t, err)
	assert.False(t, ok)

	// Finished votes never reactivate
	ok, err = f.st.ActivateVote(ctx, v.ID, f.tick(), f.now)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.st.FinishVote(ctx, "missing", f.tick())
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)
}

func testClaimJudge(t *testing.T, f *fixture) {
	ctx := context.Background()
	j := f.judge(t, "admin-1")
	f.judge(t, "admin-2")

	at := f.tick()
	claimed, err := f.st.ClaimJudge(ctx, j.InviteToken, "device-1", at)
	require.NoError(t, err)
	assert.Equal(t, j.ID, claimed.ID)
	assert.Equal(t, models.JudgeStatusClaimed, claimed.Status)
	assert.Equal(t, "device-1", claimed.DeviceVoterID)

	_, err = f.st.ClaimJudge(ctx, j.InviteToken, "device-2", f.tick())
	assert.ErrorIs(t, err, apperr.ErrAlreadyClaimed)

	byToken, err := f.st.JudgeByToken(ctx, j.InviteToken)
	require.NoError(t, err)
	assert.Equal(t, "device-1", byToken.DeviceVoterID, "a second claim must not rebind the device")

	_, err = f.st.ClaimJudge(ctx, "unknown", "device-3", f.tick())
	assert.ErrorIs(t, err, apperr.ErrJudgeNotFound)
	_, err = f.st.JudgeByToken(ctx, "unknown")
	assert.ErrorIs(t, err, apperr.ErrJudgeNotFound)

	judges, err := f.st.ListJudgesByAdmin(ctx, "admin-1")
	require.NoError(t, err)
	require.Len(t, judges, 1)
	assert.Equal(t, j.ID, judges[0].ID)
}

func testSubmissions(t *testing.T, f *fixture) {
	ctx := context.Background()
	j := f.judge(t, "admin-1")
	v := f.vote(t, f.event(t, "admin-1").ID, j.ID)
	judgeSub := models.Submission{VoteID: v.ID, Role: models.RoleJudge, Identity: j.ID, Score: 8, CreatedAt: f.tick()}

	// Pending
	assert.ErrorIs(t, f.st.InsertSubmission(ctx, judgeSub), apperr.ErrVoteNotActive)

	f.activate(t, v.ID)
	require.NoError(t, f.st.InsertSubmission(ctx, judgeSub))
	dup := judgeSub
	dup.Score = 2
	dup.CreatedAt = f.tick()
	assert.ErrorIs(t, f.st.InsertSubmission(ctx, dup), apperr.ErrDuplicate)

	// The same identity string in the public table is a different row
	require.NoError(t, f.st.InsertSubmission(ctx, models.Submission{
		VoteID: v.ID, Role: models.RolePublic, Identity: j.ID, Score: 3, CreatedAt: f.tick(),
	}))
	for _, s := range []float64{6, 7} {
		require.NoError(t, f.st.InsertSubmission(ctx, models.Submission{
			VoteID: v.ID, Role: models.RolePublic, Identity: uuid.NewString(), Score: s, CreatedAt: f.tick(),
		}))
	}

	judgeScores, err := f.st.JudgeScores(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{8}, judgeScores)
	publicScores, err := f.st.PublicScores(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6, 7}, publicScores)

	voted, err := f.st.HasSubmitted(ctx, v.ID, models.Role{Kind: models.RoleJudge, Identity: j.ID})
	require.NoError(t, err)
	assert.True(t, voted)
	voted, err = f.st.HasSubmitted(ctx, v.ID, models.Role{Kind: models.RolePublic, Identity: "nobody"})
	require.NoError(t, err)
	assert.False(t, voted)

	unresolved := models.Submission{VoteID: v.ID, Role: models.RoleUnresolvable, Score: 5, CreatedAt: f.tick()}
	assert.ErrorIs(t, f.st.InsertSubmission(ctx, unresolved), apperr.ErrIdentityUnresolved)

	// Finished
	ok, err := f.st.FinishVote(ctx, v.ID, f.tick())
	require.NoError(t, err)
	require.True(t, ok)
	late := models.Submission{VoteID: v.ID, Role: models.RolePublic, Identity: uuid.NewString(), Score: 9, CreatedAt: f.tick()}
	assert.ErrorIs(t, f.st.InsertSubmission(ctx, late), apperr.ErrVoteNotActive)

	missing := models.Submission{VoteID: "missing", Role: models.RolePublic, Identity: "x", Score: 5, CreatedAt: f.tick()}
	assert.ErrorIs(t, f.st.InsertSubmission(ctx, missing), apperr.ErrVoteNotFound)

	empty, err := f.st.PublicScores(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testSubmissionsConcurrent(t *testing.T, f *fixture) {
	v := f.vote(t, f.event(t, "admin-1").ID)
	f.activate(t, v.ID)
	at := f.tick()

	const workers = 10
	var accepted, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.st.InsertSubmission(context.Background(), models.Submission{
				VoteID: v.ID, Role: models.RolePublic, Identity: "voter-1", Score: 5, CreatedAt: at,
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case apperr.KindOf(err) == apperr.KindConflict:
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(workers-1), duplicates.Load())
}

func testDeleteEventCascades(t *testing.T, f *fixture) {
	ctx := context.Background()
	e := f.event(t, "admin-1")
	j := f.judge(t, "admin-1")
	v := f.vote(t, e.ID, j.ID)
	f.activate(t, v.ID)
	require.NoError(t, f.st.InsertSubmission(ctx, models.Submission{
		VoteID: v.ID, Role: models.RoleJudge, Identity: j.ID, Score: 7, CreatedAt: f.tick(),
	}))

	require.NoError(t, f.st.DeleteEvent(ctx, e.ID))

	_, err := f.st.GetEvent(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrEventNotFound)
	_, err = f.st.GetVote(ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)
	scores, err := f.st.JudgeScores(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assigned, err := f.st.IsAssigned(ctx, v.ID, j.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	// Judges belong to the admin, not the event
	_, err = f.st.GetJudge(ctx, j.ID)
	assert.NoError(t, err)
}
