// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/quickly-score/apperr"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFinishVoteArgs_Kind(t *testing.T) {
	assert.Equal(t, "vote_finish", FinishVoteArgs{}.Kind())
}

func TestFinishVoteWorker_Work(t *testing.T) {
	tests := []struct {
		name        string
		expireErr   error
		wantErr     bool
		wantContain string
	}{
		{name: "finished"},
		{
			name:        "transient error retries",
			expireErr:   apperr.Wrap(apperr.ErrStoreUnavailable, errors.New("conn reset")),
			wantErr:     true,
			wantContain: "store_unavailable",
		},
		{
			name:        "permanent error cancels",
			expireErr:   apperr.ErrInvalidTransition,
			wantErr:     true,
			wantContain: "invalid_transition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			worker := NewFinishVoteWorker(func(_ context.Context, voteID string) error {
				got = voteID
				return tt.expireErr
			}, quietLogger())

			job := &river.Job[FinishVoteArgs]{
				JobRow: &rivertype.JobRow{ID: 7, Attempt: 1},
				Args:   FinishVoteArgs{VoteID: "v1"},
			}
			err := worker.Work(context.Background(), job)

			assert.Equal(t, "v1", got)
			if tt.wantErr {
				assert.ErrorContains(t, err, tt.wantContain)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
