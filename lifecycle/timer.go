// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/quickly-score/apperr"
)

var ErrTimerStopped = errors.New("timer stopped")

// ExpireFunc finishes a vote whose deadline passed.
type ExpireFunc func(ctx context.Context, voteID string) error

// LocalTimer arms one in-process timer per vote. Timers are not persisted:
// after a restart, Manager.ResumeTimers re-arms them from the stored deadlines.
type LocalTimer struct {
	expire  ExpireFunc
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	stopped bool
}

func NewLocalTimer(expire ExpireFunc, logger *slog.Logger) *LocalTimer {
	return &LocalTimer{
		expire:  expire,
		logger:  logger,
		timeout: 10 * time.Second,
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the timer for voteID.
func (t *LocalTimer) Schedule(_ context.Context, voteID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrTimerStopped
	}
	if existing, ok := t.timers[voteID]; ok && existing.Stop() {
		t.wg.Done()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	t.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer t.wg.Done()
		t.mu.Lock()
		if t.timers[voteID] == timer {
			delete(t.timers, voteID)
		}
		t.mu.Unlock()
		t.fire(voteID)
	})
	t.timers[voteID] = timer
	return nil
}

// Cancel disarms the timer for voteID, if any.
func (t *LocalTimer) Cancel(_ context.Context, voteID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[voteID]; ok {
		if timer.Stop() {
			t.wg.Done()
		}
		delete(t.timers, voteID)
	}
	return nil
}

// Pending returns the number of armed timers.
func (t *LocalTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop disarms every timer and waits for callbacks already running.
func (t *LocalTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	for id, timer := range t.timers {
		if timer.Stop() {
			t.wg.Done()
		}
		delete(t.timers, id)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *LocalTimer) fire(voteID string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		err := t.expire(ctx, voteID)
		if err != nil && !apperr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err != nil {
		t.logger.Error("failed to finish vote at deadline", "vote_id", voteID, "error", err)
		return
	}
	t.logger.Info("vote deadline reached", "vote_id", voteID)
}
