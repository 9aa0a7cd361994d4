// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

var tracer = otel.Tracer("github.com/danielhkuo/quickly-score/lifecycle")

// Store performs the conditional status writes. ActivateVote must only move
// a pending vote with no active sibling and return apperr.ErrAnotherVoteActive
// when a sibling blocks it; both calls report false when the vote was not in
// the expected prior state.
type Store interface {
	GetVote(ctx context.Context, id string) (models.Vote, error)
	ActivateVote(ctx context.Context, id string, at, endsAt time.Time) (bool, error)
	FinishVote(ctx context.Context, id string, at time.Time) (bool, error)
	ListActiveVotes(ctx context.Context) ([]models.Vote, error)
}

// Publisher receives vote changes for the live feed.
type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

// Timer finishes a vote at its deadline by calling Manager.Expire.
type Timer interface {
	Schedule(ctx context.Context, voteID string, at time.Time) error
	Cancel(ctx context.Context, voteID string) error
}

type Manager struct {
	store     Store
	publisher Publisher
	timer     Timer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewManager(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// UseTimer sets the deadline timer. Without one, votes only finish manually.
func (m *Manager) UseTimer(t Timer) {
	m.timer = t
}

// Activate moves a pending vote to active and arms its finish timer.
//
// Losing the race to another activation of the same vote is not an error: the
// current record is returned with transitioned=false. A pending vote blocked
// by an active sibling returns apperr.ErrAnotherVoteActive.
func (m *Manager) Activate(ctx context.Context, voteID string) (vote models.Vote, transitioned bool, err error) {
	ctx, span := tracer.Start(ctx, "Manager.Activate")
	defer func() { m.finishSpan("activate", span, transitioned, err) }()
	span.SetAttributes(attribute.String("vote_id", voteID))

	vote, err = m.store.GetVote(ctx, voteID)
	if err != nil {
		return models.Vote{}, false, storeError(err)
	}
	switch vote.Status {
	case models.VoteStatusActive:
		return vote, false, nil
	case models.VoteStatusFinished:
		return vote, false, apperr.WithMessage(apperr.ErrInvalidTransition, "vote is already finished")
	}

	now := m.now().UTC()
	endsAt := now.Add(vote.Duration())
	ok, err := m.store.ActivateVote(ctx, voteID, now, endsAt)
	if err != nil {
		return vote, false, storeError(err)
	}
	if !ok {
		current, err := m.store.GetVote(ctx, voteID)
		if err != nil {
			return models.Vote{}, false, storeError(err)
		}
		m.logger.Info("activation lost race", "vote_id", voteID, "status", current.Status)
		return current, false, nil
	}

	vote.Status = models.VoteStatusActive
	vote.ActivatedAt = &now
	vote.EndsAt = &endsAt

	if m.timer != nil {
		if err := m.timer.Schedule(ctx, voteID, endsAt); err != nil {
			m.logger.Error("failed to arm finish timer", "vote_id", voteID, "error", err)
		}
	}
	m.publish(ctx, vote)
	m.logger.Info("vote activated", "vote_id", voteID, "event_id", vote.EventID, "ends_at", endsAt)
	return vote, true, nil
}

// Finish moves an active vote to finished. Finishing a finished vote is a
// no-op that returns the existing record, because the timer and a manual
// finish may race. A pending vote cannot skip active.
func (m *Manager) Finish(ctx context.Context, voteID string) (vote models.Vote, transitioned bool, err error) {
	ctx, span := tracer.Start(ctx, "Manager.Finish")
	defer func() { m.finishSpan("finish", span, transitioned, err) }()
	span.SetAttributes(attribute.String("vote_id", voteID))

	vote, err = m.store.GetVote(ctx, voteID)
	if err != nil {
		return models.Vote{}, false, storeError(err)
	}
	switch vote.Status {
	case models.VoteStatusFinished:
		return vote, false, nil
	case models.VoteStatusPending:
		return vote, false, apperr.WithMessage(apperr.ErrInvalidTransition, "vote has not been activated")
	}

	now := m.now().UTC()
	ok, err := m.store.FinishVote(ctx, voteID, now)
	if err != nil {
		return vote, false, storeError(err)
	}
	if !ok {
		current, err := m.store.GetVote(ctx, voteID)
		if err != nil {
			return models.Vote{}, false, storeError(err)
		}
		return current, false, nil
	}

	vote.Status = models.VoteStatusFinished
	vote.FinishedAt = &now

	if m.timer != nil {
		if err := m.timer.Cancel(ctx, voteID); err != nil {
			m.logger.Warn("failed to cancel finish timer", "vote_id", voteID, "error", err)
		}
	}
	m.publish(ctx, vote)
	m.logger.Info("vote finished", "vote_id", voteID, "event_id", vote.EventID)
	return vote, true, nil
}

// Expire is the timer callback. A vote deleted in the meantime is ignored.
func (m *Manager) Expire(ctx context.Context, voteID string) error {
	_, _, err := m.Finish(ctx, voteID)
	if errors.Is(err, apperr.ErrVoteNotFound) {
		return nil
	}
	return err
}

// ResumeTimers re-arms the finish timer of every active vote, typically at
// startup. Deadlines already past fire immediately.
func (m *Manager) ResumeTimers(ctx context.Context) (int, error) {
	if m.timer == nil {
		return 0, nil
	}
	votes, err := m.store.ListActiveVotes(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	for _, v := range votes {
		at := m.now()
		switch {
		case v.EndsAt != nil:
			at = *v.EndsAt
		case v.ActivatedAt != nil:
			at = v.ActivatedAt.Add(v.Duration())
		}
		if err := m.timer.Schedule(ctx, v.ID, at); err != nil {
			return 0, err
		}
	}
	if len(votes) > 0 {
		m.logger.Info("finish timers resumed", "count", len(votes))
	}
	return len(votes), nil
}

func (m *Manager) publish(ctx context.Context, vote models.Vote) {
	if m.publisher == nil {
		return
	}
	change := models.Change{Type: models.ChangeUpdated, Vote: vote, At: m.now().UTC()}
	if err := m.publisher.Publish(ctx, change); err != nil {
		m.logger.Warn("failed to publish vote change", "vote_id", vote.ID, "error", err)
	}
}

func (m *Manager) finishSpan(transition string, span trace.Span, transitioned bool, err error) {
	outcome := "noop"
	switch {
	case err != nil:
		outcome = apperr.CodeOf(err)
		span.SetStatus(codes.Error, err.Error())
	case transitioned:
		outcome = "transitioned"
	}
	m.metrics.Transition(transition, outcome)
	span.End()
}

func storeError(err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		return apperr.Wrap(apperr.ErrStoreUnavailable, err)
	}
	return err
}
