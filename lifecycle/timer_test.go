// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
)

type expireRecorder struct {
	mu    sync.Mutex
	calls []string
	fired chan string
	errs  []error
}

func newExpireRecorder(errs ...error) *expireRecorder {
	return &expireRecorder{fired: make(chan string, 10), errs: errs}
}

func (r *expireRecorder) expire(_ context.Context, voteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, voteID)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return err
		}
	}
	r.fired <- voteID
	return nil
}

func (r *expireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestLocalTimer_Fires(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := newExpireRecorder()
	timer := NewLocalTimer(rec.expire, quietLogger())
	defer timer.Stop()

	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now().Add(20*time.Millisecond)))
	assert.Equal(t, 1, timer.Pending())

	select {
	case id := <-rec.fired:
		assert.Equal(t, "v1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return timer.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLocalTimer_PastDeadlineFiresImmediately(t *testing.T) {
	rec := newExpireRecorder()
	timer := NewLocalTimer(rec.expire, quietLogger())
	defer timer.Stop()

	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now().Add(-time.Hour)))

	select {
	case <-rec.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLocalTimer_Cancel(t *testing.T) {
	rec := newExpireRecorder()
	timer := NewLocalTimer(rec.expire, quietLogger())

	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now().Add(50*time.Millisecond)))
	require.NoError(t, timer.Cancel(context.Background(), "v1"))
	assert.Equal(t, 0, timer.Pending())

	time.Sleep(100 * time.Millisecond)
	timer.Stop()
	assert.Equal(t, 0, rec.count())
}

func TestLocalTimer_RescheduleReplaces(t *testing.T) {
	rec := newExpireRecorder()
	timer := NewLocalTimer(rec.expire, quietLogger())

	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now().Add(time.Hour)))
	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now().Add(10*time.Millisecond)))

	select {
	case <-rec.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("rescheduled timer did not fire")
	}
	timer.Stop()
	assert.Equal(t, 1, rec.count())
}

func TestLocalTimer_RetriesTransientErrors(t *testing.T) {
	rec := newExpireRecorder(apperr.Wrap(apperr.ErrStoreUnavailable, errors.New("blip")))
	timer := NewLocalTimer(rec.expire, quietLogger())
	defer timer.Stop()

	require.NoError(t, timer.Schedule(context.Background(), "v1", time.Now()))

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not retry")
	}
	assert.Equal(t, 2, rec.count())
}

func TestLocalTimer_StoppedRejectsSchedule(t *testing.T) {
	timer := NewLocalTimer(newExpireRecorder().expire, quietLogger())
	timer.Stop()

	err := timer.Schedule(context.Background(), "v1", time.Now())
	assert.ErrorIs(t, err, ErrTimerStopped)
}

// A 1-second vote finishes on its own through the manager.
func TestLocalTimer_WithManager(t *testing.T) {
	f := newFixture(t)
	f.manager.now = time.Now
	ctx := context.Background()

	local := NewLocalTimer(f.manager.Expire, quietLogger())
	defer local.Stop()
	f.manager.UseTimer(local)

	_, _, err := f.manager.Activate(ctx, "v1")
	require.NoError(t, err)

	// Pull the deadline in so the test stays fast.
	require.NoError(t, local.Schedule(ctx, "v1", time.Now().Add(20*time.Millisecond)))

	assert.Eventually(t, func() bool {
		v, err := f.store.GetVote(ctx, "v1")
		return err == nil && v.Status == models.VoteStatusFinished
	}, 2*time.Second, 10*time.Millisecond)
}
