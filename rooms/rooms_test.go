// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rooms

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/store/memstore"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c models.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

type fixture struct {
	service   *Service
	store     *memstore.Store
	publisher *recordingPublisher
	faker     *gofakeit.Faker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		service:   NewService(st, pub, "https://score.example.com/", logger),
		store:     st,
		publisher: pub,
		faker:     gofakeit.New(42),
	}
}

func (f *fixture) event(t *testing.T, adminID string) models.Event {
	t.Helper()
	e, err := f.service.CreateEvent(context.Background(), adminID, f.faker.Company())
	require.NoError(t, err)
	return e
}

func (f *fixture) judges(t *testing.T, adminID string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		j, err := f.service.CreateJudge(context.Background(), adminID, f.faker.Name())
		require.NoError(t, err)
		ids[i] = j.Judge.ID
	}
	return ids
}

func (f *fixture) voteRequest(judgeIDs []string) models.CreateVoteRequest {
	return models.CreateVoteRequest{
		Title:           f.faker.AppName(),
		Presenter:       f.faker.Name(),
		DurationSeconds: 60,
		JudgeIDs:        judgeIDs,
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.service.CreateEvent(ctx, "admin-1", "  Demo Day  ")
	require.NoError(t, err)
	assert.Equal(t, "Demo Day", e.Name)
	assert.Equal(t, "admin-1", e.AdminID)
	assert.NotEmpty(t, e.ID)

	_, err = f.service.CreateEvent(ctx, "admin-1", "   ")
	assert.ErrorIs(t, err, apperr.ErrMissingField)

	_, err = f.service.CreateEvent(ctx, "admin-1", strings.Repeat("x", 201))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestGetEvent_ShareURL(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, "admin-1")

	view, err := f.service.GetEvent(context.Background(), e.ID)
	require.NoError(t, err)

	assert.Equal(t, "https://score.example.com/sala/"+e.ID, view.ShareURL)
	assert.Empty(t, view.Votes)
}

func TestCreateVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, "admin-1")
	judges := f.judges(t, "admin-1", 4)
	foreign := f.judges(t, "admin-2", 1)

	tests := []struct {
		name    string
		adminID string
		modify  func(*models.CreateVoteRequest)
		wantErr *apperr.Error
	}{
		{name: "valid", adminID: "admin-1", modify: func(*models.CreateVoteRequest) {}},
		{
			name:    "two judges",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.JudgeIDs = judges[:2] },
			wantErr: apperr.ErrJudgeCount,
		},
		{
			name:    "four judges",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.JudgeIDs = judges },
			wantErr: apperr.ErrJudgeCount,
		},
		{
			name:    "repeated judge",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.JudgeIDs = []string{judges[0], judges[0], judges[1]} },
			wantErr: apperr.ErrJudgeCount,
		},
		{
			name:    "judge of another admin",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.JudgeIDs = []string{judges[0], judges[1], foreign[0]} },
			wantErr: apperr.ErrJudgeNotFound,
		},
		{
			name:    "zero duration",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.DurationSeconds = 0 },
			wantErr: apperr.ErrInvalidDuration,
		},
		{
			name:    "longer than a day",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.DurationSeconds = 86401 },
			wantErr: apperr.ErrInvalidDuration,
		},
		{
			name:    "wraps when converted to nanoseconds",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.DurationSeconds = 18446744075 },
			wantErr: apperr.ErrInvalidDuration,
		},
		{
			name:    "negative duration",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.DurationSeconds = -60 },
			wantErr: apperr.ErrInvalidDuration,
		},
		{
			name:    "missing title",
			adminID: "admin-1",
			modify:  func(r *models.CreateVoteRequest) { r.Title = "" },
			wantErr: apperr.ErrMissingField,
		},
		{
			name:    "event of another admin",
			adminID: "admin-2",
			modify:  func(*models.CreateVoteRequest) {},
			wantErr: apperr.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.voteRequest(judges[:3])
			tt.modify(&req)

			vote, err := f.service.CreateVote(ctx, tt.adminID, e.ID, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.VoteStatusPending, vote.Status)

			assigned, err := f.store.AssignedJudges(ctx, vote.ID)
			require.NoError(t, err)
			assert.ElementsMatch(t, judges[:3], assigned)
		})
	}
}

func TestCreateVote_PublishesCreated(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, "admin-1")

	vote, err := f.service.CreateVote(context.Background(), "admin-1", e.ID, f.voteRequest(f.judges(t, "admin-1", 3)))
	require.NoError(t, err)

	require.Len(t, f.publisher.changes, 1)
	assert.Equal(t, models.ChangeCreated, f.publisher.changes[0].Type)
	assert.Equal(t, vote.ID, f.publisher.changes[0].Vote.ID)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, "admin-1")
	judges := f.judges(t, "admin-1", 3)
	for i := 0; i < 2; i++ {
		_, err := f.service.CreateVote(ctx, "admin-1", e.ID, f.voteRequest(judges))
		require.NoError(t, err)
	}

	err := f.service.DeleteEvent(ctx, "admin-2", e.ID)
	assert.ErrorIs(t, err, apperr.ErrEventNotFound, "other admins cannot delete")

	require.NoError(t, f.service.DeleteEvent(ctx, "admin-1", e.ID))

	_, err = f.service.GetEvent(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrEventNotFound)

	var deleted int
	for _, c := range f.publisher.changes {
		if c.Type == models.ChangeDeleted {
			deleted++
		}
	}
	assert.Equal(t, 2, deleted)
}

func TestOwnedVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, "admin-1")
	vote, err := f.service.CreateVote(ctx, "admin-1", e.ID, f.voteRequest(f.judges(t, "admin-1", 3)))
	require.NoError(t, err)

	got, err := f.service.OwnedVote(ctx, "admin-1", vote.ID)
	require.NoError(t, err)
	assert.Equal(t, vote.ID, got.ID)

	_, err = f.service.OwnedVote(ctx, "admin-2", vote.ID)
	assert.ErrorIs(t, err, apperr.ErrVoteNotFound)
}

func TestInvitation_ClaimOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateJudge(ctx, "admin-1", "Ada Lovelace")
	require.NoError(t, err)
	token := created.Judge.InviteToken
	assert.Equal(t, "https://score.example.com/invite/"+token, created.InviteURL)

	inv, err := f.service.GetInvitation(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationResponse{Name: "Ada Lovelace", Status: models.JudgeStatusPending}, inv)

	claim, err := f.service.ClaimInvitation(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, claim.JudgeToken)
	assert.NotEmpty(t, claim.DeviceVoterID)

	_, err = f.service.ClaimInvitation(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrAlreadyClaimed)

	inv, err = f.service.GetInvitation(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.JudgeStatusClaimed, inv.Status)

	_, err = f.service.ClaimInvitation(ctx, "unknown")
	assert.ErrorIs(t, err, apperr.ErrJudgeNotFound)
}

func TestListJudges_ScopedToAdmin(t *testing.T) {
	f := newFixture(t)
	f.judges(t, "admin-1", 2)
	f.judges(t, "admin-2", 1)

	judges, err := f.service.ListJudges(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Len(t, judges, 2)
}
