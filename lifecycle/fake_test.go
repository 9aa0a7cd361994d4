// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-score/models"
)

// FakeTimer records schedules and cancels without firing.
type FakeTimer struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled []string

	ScheduleErr error
}

func NewFakeTimer() *FakeTimer {
	return &FakeTimer{scheduled: make(map[string]time.Time)}
}

func (f *FakeTimer) Schedule(_ context.Context, voteID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScheduleErr != nil {
		return f.ScheduleErr
	}
	f.scheduled[voteID] = at
	return nil
}

func (f *FakeTimer) Cancel(_ context.Context, voteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, voteID)
	f.cancelled = append(f.cancelled, voteID)
	return nil
}

func (f *FakeTimer) ScheduledAt(voteID string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.scheduled[voteID]
	return at, ok
}

func (f *FakeTimer) Cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

// RecordingPublisher keeps every published change.
type RecordingPublisher struct {
	mu      sync.Mutex
	changes []models.Change
}

func (p *RecordingPublisher) Publish(_ context.Context, change models.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

func (p *RecordingPublisher) Changes() []models.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Change(nil), p.changes...)
}
