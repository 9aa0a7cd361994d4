// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"sync"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
)

// FakeLookup implements Lookup with overridable funcs and a call trace.
type FakeLookup struct {
	mu    sync.Mutex
	trace []string

	JudgeByTokenFunc func(ctx context.Context, token string) (models.Judge, error)
	IsAssignedFunc   func(ctx context.Context, voteID, judgeID string) (bool, error)
}

func (f *FakeLookup) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeLookup) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeLookup) JudgeByToken(ctx context.Context, token string) (models.Judge, error) {
	f.record("JudgeByToken")
	if f.JudgeByTokenFunc != nil {
		return f.JudgeByTokenFunc(ctx, token)
	}
	return models.Judge{}, apperr.ErrJudgeNotFound
}

func (f *FakeLookup) IsAssigned(ctx context.Context, voteID, judgeID string) (bool, error) {
	f.record("IsAssigned")
	if f.IsAssignedFunc != nil {
		return f.IsAssignedFunc(ctx, voteID, judgeID)
	}
	return false, nil
}
