// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

var tracer = otel.Tracer("github.com/danielhkuo/quickly-score/identity")

// Credentials are what a device has persisted locally: an optional judge
// invitation token and an optional anonymous voter id.
type Credentials struct {
	JudgeToken string
	VoterID    string
}

// Lookup is the read-only storage the resolver needs.
type Lookup interface {
	JudgeByToken(ctx context.Context, token string) (models.Judge, error)
	IsAssigned(ctx context.Context, voteID, judgeID string) (bool, error)
}

// Classify decides the role for one vote. judge is nil when the caller holds
// no token for a claimed judge.
//
// A claimed judge not assigned to the vote scores as public under the judge's
// own device voter id, never under a second anonymous id.
func Classify(judge *models.Judge, assigned bool, voterID string) models.Role {
	if judge != nil && judge.Claimed() {
		if assigned {
			return models.Role{Kind: models.RoleJudge, Identity: judge.ID}
		}
		if judge.DeviceVoterID == "" {
			return models.Unresolvable
		}
		return models.Role{Kind: models.RolePublic, Identity: judge.DeviceVoterID}
	}
	if voterID != "" {
		return models.Role{Kind: models.RolePublic, Identity: voterID}
	}
	return models.Unresolvable
}

// Resolver classifies callers against votes using Lookup.
type Resolver struct {
	lookup  Lookup
	logger  *slog.Logger
	metrics *metrics.Metrics

	// NewBackOff builds the retry policy for transient lookup errors.
	NewBackOff func() backoff.BackOff
}

func NewResolver(lookup Lookup, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		lookup:     lookup,
		logger:     logger,
		metrics:    m,
		NewBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

// Resolve returns exactly one role for the caller on voteID. It never
// returns an error: any failed lookup yields RoleUnresolvable so an assigned
// judge is never silently downgraded to public.
func (r *Resolver) Resolve(ctx context.Context, voteID string, creds Credentials) models.Role {
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	role := r.resolve(ctx, voteID, creds)

	span.SetAttributes(
		attribute.String("vote_id", voteID),
		attribute.String("role", string(role.Kind)),
	)
	r.metrics.IdentityResolved(string(role.Kind))
	return role
}

func (r *Resolver) resolve(ctx context.Context, voteID string, creds Credentials) models.Role {
	token := strings.TrimSpace(creds.JudgeToken)
	voterID := strings.TrimSpace(creds.VoterID)

	if token == "" {
		return Classify(nil, false, voterID)
	}

	judge, err := withRetry(ctx, r.NewBackOff(), func() (models.Judge, error) {
		return r.lookup.JudgeByToken(ctx, token)
	})
	if errors.Is(err, apperr.ErrJudgeNotFound) {
		return Classify(nil, false, voterID)
	}
	if err != nil {
		r.logger.Warn("judge lookup failed", "vote_id", voteID, "error", err)
		return models.Unresolvable
	}
	if !judge.Claimed() {
		return Classify(nil, false, voterID)
	}

	assigned, err := withRetry(ctx, r.NewBackOff(), func() (bool, error) {
		return r.lookup.IsAssigned(ctx, voteID, judge.ID)
	})
	if err != nil {
		r.logger.Warn("assignment lookup failed", "vote_id", voteID, "judge_id", judge.ID, "error", err)
		return models.Unresolvable
	}

	return Classify(&judge, assigned, voterID)
}

// withRetry retries op while it fails with a transient error.
func withRetry[T any](ctx context.Context, b backoff.BackOff, op func() (T, error)) (T, error) {
	var result T
	err := backoff.Retry(func() error {
		v, err := op()
		if err != nil {
			if apperr.Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}, backoff.WithContext(b, ctx))
	return result, err
}
