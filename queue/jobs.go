// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queue

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/lifecycle"
)

const (
	// Queue is the River queue that holds vote deadline jobs.
	Queue = "votes"

	finishVoteKind = "vote_finish"
)

// FinishVoteArgs finishes one vote at its deadline.
type FinishVoteArgs struct {
	VoteID string `json:"vote_id"`
}

func (FinishVoteArgs) Kind() string { return finishVoteKind }

// FinishVoteWorker runs FinishVoteArgs jobs.
type FinishVoteWorker struct {
	river.WorkerDefaults[FinishVoteArgs]
	expire lifecycle.ExpireFunc
	logger *slog.Logger
}

func NewFinishVoteWorker(expire lifecycle.ExpireFunc, logger *slog.Logger) *FinishVoteWorker {
	return &FinishVoteWorker{expire: expire, logger: logger}
}

// Work finishes the vote. Transient failures are returned so River retries;
// anything else cancels the job.
func (w *FinishVoteWorker) Work(ctx context.Context, job *river.Job[FinishVoteArgs]) error {
	logger := w.logger.With("job_id", job.ID, "vote_id", job.Args.VoteID, "attempt", job.Attempt)

	err := w.expire(ctx, job.Args.VoteID)
	switch {
	case err == nil:
		logger.Info("vote deadline reached")
		return nil
	case apperr.Retryable(err):
		logger.Warn("vote finish failed, will retry", "error", err)
		return err
	default:
		logger.Error("vote finish failed permanently", "error", err)
		return river.JobCancel(err)
	}
}
