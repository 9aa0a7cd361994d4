// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package submission

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

var tracer = otel.Tracer("github.com/danielhkuo/quickly-score/submission")

// Store persists submissions. InsertSubmission must reject a second row for
// the same (vote, identity) with apperr.ErrDuplicate and a vote that is not
// active with apperr.ErrVoteNotActive.
type Store interface {
	GetVote(ctx context.Context, id string) (models.Vote, error)
	InsertSubmission(ctx context.Context, sub models.Submission) error
	HasSubmitted(ctx context.Context, voteID string, role models.Role) (bool, error)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m, now: time.Now}
}

// ValidateScore checks that score is a finite number in [1, 10].
func ValidateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < models.MinScore || score > models.MaxScore {
		return apperr.ErrOutOfRange
	}
	return nil
}

// Submit records one immutable score for role on voteID. It is never
// retried here; a transient failure is returned as ErrStoreUnavailable and
// the caller decides.
func (s *Service) Submit(ctx context.Context, voteID string, role models.Role, score float64) (models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Service.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("vote_id", voteID), attribute.String("role", string(role.Kind)))

	sub, err := s.submit(ctx, voteID, role, score)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.metrics.Submission(string(role.Kind), apperr.CodeOf(err))
		return models.Submission{}, err
	}

	s.metrics.Submission(string(role.Kind), "accepted")
	s.logger.Info("score submitted", "vote_id", voteID, "role", role.Kind)
	return sub, nil
}

func (s *Service) submit(ctx context.Context, voteID string, role models.Role, score float64) (models.Submission, error) {
	if err := ValidateScore(score); err != nil {
		return models.Submission{}, err
	}
	if !role.Resolved() {
		return models.Submission{}, apperr.ErrIdentityUnresolved
	}

	vote, err := s.store.GetVote(ctx, voteID)
	if err != nil {
		return models.Submission{}, storeError(err)
	}
	if vote.Status != models.VoteStatusActive {
		return models.Submission{}, apperr.ErrVoteNotActive
	}

	sub := models.Submission{
		VoteID:    voteID,
		Role:      role.Kind,
		Identity:  role.Identity,
		Score:     score,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			s.logger.Info("duplicate submission rejected", "vote_id", voteID, "role", role.Kind)
		}
		return models.Submission{}, storeError(err)
	}
	return sub, nil
}

// Status reports whether role has already scored voteID.
func (s *Service) Status(ctx context.Context, voteID string, role models.Role) (bool, error) {
	if !role.Resolved() {
		return false, nil
	}
	if _, err := s.store.GetVote(ctx, voteID); err != nil {
		return false, storeError(err)
	}
	voted, err := s.store.HasSubmitted(ctx, voteID, role)
	if err != nil {
		return false, storeError(err)
	}
	return voted, nil
}

// storeError keeps classified errors and treats anything else as a
// transient backend failure.
func storeError(err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		return apperr.Wrap(apperr.ErrStoreUnavailable, err)
	}
	return err
}
