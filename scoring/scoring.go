// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

var tracer = otel.Tracer("github.com/danielhkuo/quickly-score/scoring")

// Store reads the two submission tables of a vote.
type Store interface {
	GetVote(ctx context.Context, id string) (models.Vote, error)
	JudgeScores(ctx context.Context, voteID string) ([]float64, error)
	PublicScores(ctx context.Context, voteID string) ([]float64, error)
}

// Compute weights one vote's scores. Judges count at face value, missing
// judges count as zero, and the public contributes its mean (0 with no
// submissions). Sums run over sorted copies so the points do not depend on
// storage order; JudgeScores keeps the order given.
func Compute(voteID string, judgeScores, publicScores []float64) models.Result {
	judges := slices.Clone(judgeScores)
	slices.Sort(judges)
	public := slices.Clone(publicScores)
	slices.Sort(public)

	res := models.Result{
		VoteID:      voteID,
		JudgeScores: slices.Clone(judgeScores),
		PublicCount: len(public),
	}
	if res.JudgeScores == nil {
		res.JudgeScores = []float64{}
	}
	if missing := models.JudgesPerVote - len(judges); missing > 0 {
		res.MissingJudges = missing
	}

	res.JudgePoints = sum(judges)
	if len(public) > 0 {
		res.PublicAverage = sum(public) / float64(len(public))
	}
	res.PublicPoints = res.PublicAverage
	res.Total = res.JudgePoints + res.PublicPoints
	return res
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

// Aggregator serves results for finished votes. Results are recomputed on
// every call and never written back.
type Aggregator struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewAggregator(store Store, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, logger: logger, metrics: m}
}

// ComputeResult returns the weighted result of voteID, or
// apperr.ErrResultUnavailable while the vote is still pending or active.
func (a *Aggregator) ComputeResult(ctx context.Context, voteID string) (models.Result, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ComputeResult")
	defer span.End()
	span.SetAttributes(attribute.String("vote_id", voteID))

	res, err := a.compute(ctx, voteID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Result{}, err
	}
	a.metrics.ResultComputed()
	return res, nil
}

func (a *Aggregator) compute(ctx context.Context, voteID string) (models.Result, error) {
	vote, err := a.store.GetVote(ctx, voteID)
	if err != nil {
		return models.Result{}, storeError(err)
	}
	if vote.Status != models.VoteStatusFinished {
		return models.Result{}, apperr.ErrResultUnavailable
	}

	judges, err := a.store.JudgeScores(ctx, voteID)
	if err != nil {
		return models.Result{}, storeError(err)
	}
	public, err := a.store.PublicScores(ctx, voteID)
	if err != nil {
		return models.Result{}, storeError(err)
	}

	res := Compute(voteID, judges, public)
	a.logger.Debug("result computed",
		"vote_id", voteID,
		"judge_points", res.JudgePoints,
		"public_points", res.PublicPoints,
		"total", res.Total,
	)
	return res, nil
}

func storeError(err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		return apperr.Wrap(apperr.ErrStoreUnavailable, err)
	}
	return err
}
