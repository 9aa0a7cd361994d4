// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
)

type submissionKey struct {
	voteID   string
	identity string
}

type assignmentKey struct {
	voteID  string
	judgeID string
}

// Store keeps every table in memory behind one mutex. Conditional writes
// check and update under the same lock, which gives them the same
// compare-and-swap behavior as the SQL store.
type Store struct {
	mu          sync.Mutex
	events      map[string]models.Event
	votes       map[string]models.Vote
	judges      map[string]models.Judge
	assignments map[assignmentKey]bool
	judgeSubs   map[submissionKey]models.Submission
	publicSubs  map[submissionKey]models.Submission

	// failWith, when set, is returned by every call. Tests use it to
	// simulate an unavailable backend.
	failWith error
}

func New() *Store {
	return &Store{
		events:      make(map[string]models.Event),
		votes:       make(map[string]models.Vote),
		judges:      make(map[string]models.Judge),
		assignments: make(map[assignmentKey]bool),
		judgeSubs:   make(map[submissionKey]models.Submission),
		publicSubs:  make(map[submissionKey]models.Submission),
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.ErrStoreUnavailable, err)
	}
	if s.failWith != nil {
		return apperr.Wrap(apperr.ErrStoreUnavailable, s.failWith)
	}
	return nil
}

// Events

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.events[e.ID] = e
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Event{}, err
	}
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, apperr.ErrEventNotFound
	}
	return e, nil
}

// ListEventsByAdmin returns the admin's events, newest first.
func (s *Store) ListEventsByAdmin(ctx context.Context, adminID string) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	events := []models.Event{}
	for _, e := range s.events {
		if e.AdminID == adminID {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// DeleteEvent removes the event and cascades to its votes, assignments,
// and submissions.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.events[id]; !ok {
		return apperr.ErrEventNotFound
	}
	delete(s.events, id)
	for voteID, v := range s.votes {
		if v.EventID != id {
			continue
		}
		delete(s.votes, voteID)
		for k := range s.assignments {
			if k.voteID == voteID {
				delete(s.assignments, k)
			}
		}
		for k := range s.judgeSubs {
			if k.voteID == voteID {
				delete(s.judgeSubs, k)
			}
		}
		for k := range s.publicSubs {
			if k.voteID == voteID {
				delete(s.publicSubs, k)
			}
		}
	}
	return nil
}

// Votes

// CreateVote inserts the vote and its judge assignments atomically.
func (s *Store) CreateVote(ctx context.Context, v models.Vote, judgeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.events[v.EventID]; !ok {
		return apperr.ErrEventNotFound
	}
	for _, id := range judgeIDs {
		if _, ok := s.judges[id]; !ok {
			return apperr.ErrJudgeNotFound
		}
	}
	s.votes[v.ID] = v
	for _, id := range judgeIDs {
		s.assignments[assignmentKey{voteID: v.ID, judgeID: id}] = true
	}
	return nil
}

func (s *Store) GetVote(ctx context.Context, id string) (models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Vote{}, err
	}
	v, ok := s.votes[id]
	if !ok {
		return models.Vote{}, apperr.ErrVoteNotFound
	}
	return v, nil
}

// ListVotes returns the event's votes ordered by creation time.
func (s *Store) ListVotes(ctx context.Context, eventID string) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.votesWhere(func(v models.Vote) bool { return v.EventID == eventID }), nil
}

// ListActiveVotes returns every active vote across all events.
func (s *Store) ListActiveVotes(ctx context.Context) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.votesWhere(func(v models.Vote) bool { return v.Status == models.VoteStatusActive }), nil
}

func (s *Store) votesWhere(keep func(models.Vote) bool) []models.Vote {
	votes := []models.Vote{}
	for _, v := range s.votes {
		if keep(v) {
			votes = append(votes, v)
		}
	}
	sort.SliceStable(votes, func(i, j int) bool {
		if votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].ID < votes[j].ID
		}
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes
}

// ActivateVote moves a pending vote to active when no sibling vote in the
// same event is active. It reports false when the vote was not pending.
func (s *Store) ActivateVote(ctx context.Context, id string, at, endsAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	v, ok := s.votes[id]
	if !ok {
		return false, apperr.ErrVoteNotFound
	}
	if v.Status != models.VoteStatusPending {
		return false, nil
	}
	for _, other := range s.votes {
		if other.EventID == v.EventID && other.Status == models.VoteStatusActive {
			return false, apperr.ErrAnotherVoteActive
		}
	}
	v.Status = models.VoteStatusActive
	v.ActivatedAt = &at
	v.EndsAt = &endsAt
	s.votes[id] = v
	return true, nil
}

// FinishVote moves an active vote to finished. It reports false when the
// vote was not active.
func (s *Store) FinishVote(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	v, ok := s.votes[id]
	if !ok {
		return false, apperr.ErrVoteNotFound
	}
	if v.Status != models.VoteStatusActive {
		return false, nil
	}
	v.Status = models.VoteStatusFinished
	v.FinishedAt = &at
	s.votes[id] = v
	return true, nil
}

// Judges

func (s *Store) CreateJudge(ctx context.Context, j models.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, other := range s.judges {
		if other.InviteToken == j.InviteToken {
			return apperr.WithMessage(apperr.ErrInvalidInput, "invite token collision")
		}
	}
	s.judges[j.ID] = j
	return nil
}

func (s *Store) GetJudge(ctx context.Context, id string) (models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Judge{}, err
	}
	j, ok := s.judges[id]
	if !ok {
		return models.Judge{}, apperr.ErrJudgeNotFound
	}
	return j, nil
}

// ListJudgesByAdmin returns the admin's judges ordered by creation time.
func (s *Store) ListJudgesByAdmin(ctx context.Context, adminID string) ([]models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	judges := []models.Judge{}
	for _, j := range s.judges {
		if j.AdminID == adminID {
			judges = append(judges, j)
		}
	}
	sort.SliceStable(judges, func(i, j int) bool {
		if judges[i].CreatedAt.Equal(judges[j].CreatedAt) {
			return judges[i].ID < judges[j].ID
		}
		return judges[i].CreatedAt.Before(judges[j].CreatedAt)
	})
	return judges, nil
}

func (s *Store) JudgeByToken(ctx context.Context, token string) (models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Judge{}, err
	}
	for _, j := range s.judges {
		if j.InviteToken == token {
			return j, nil
		}
	}
	return models.Judge{}, apperr.ErrJudgeNotFound
}

// ClaimJudge moves a pending judge to claimed and binds its device voter id.
func (s *Store) ClaimJudge(ctx context.Context, token, deviceVoterID string, at time.Time) (models.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Judge{}, err
	}
	for id, j := range s.judges {
		if j.InviteToken != token {
			continue
		}
		if j.Status != models.JudgeStatusPending {
			return models.Judge{}, apperr.ErrAlreadyClaimed
		}
		j.Status = models.JudgeStatusClaimed
		j.DeviceVoterID = deviceVoterID
		j.ClaimedAt = &at
		s.judges[id] = j
		return j, nil
	}
	return models.Judge{}, apperr.ErrJudgeNotFound
}

func (s *Store) IsAssigned(ctx context.Context, voteID, judgeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	return s.assignments[assignmentKey{voteID: voteID, judgeID: judgeID}], nil
}

// AssignedJudges returns the judge ids assigned to a vote, sorted.
func (s *Store) AssignedJudges(ctx context.Context, voteID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	ids := []string{}
	for k := range s.assignments {
		if k.voteID == voteID {
			ids = append(ids, k.judgeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Submissions

// InsertSubmission stores a score once per (vote, identity) in the table
// for the submission's role, but only while the vote is active. A second
// insert is rejected with ErrDuplicate.
func (s *Store) InsertSubmission(ctx context.Context, sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	v, ok := s.votes[sub.VoteID]
	if !ok {
		return apperr.ErrVoteNotFound
	}
	if v.Status != models.VoteStatusActive {
		return apperr.ErrVoteNotActive
	}
	table, err := s.table(sub.Role)
	if err != nil {
		return err
	}
	key := submissionKey{voteID: sub.VoteID, identity: sub.Identity}
	if _, exists := table[key]; exists {
		return apperr.ErrDuplicate
	}
	table[key] = sub
	return nil
}

func (s *Store) HasSubmitted(ctx context.Context, voteID string, role models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	table, err := s.table(role.Kind)
	if err != nil {
		return false, err
	}
	_, ok := table[submissionKey{voteID: voteID, identity: role.Identity}]
	return ok, nil
}

// JudgeScores returns judge scores for a vote in submission order.
func (s *Store) JudgeScores(ctx context.Context, voteID string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return scoresFor(s.judgeSubs, voteID), nil
}

// PublicScores returns public scores for a vote in submission order.
func (s *Store) PublicScores(ctx context.Context, voteID string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return scoresFor(s.publicSubs, voteID), nil
}

func (s *Store) table(kind models.RoleKind) (map[submissionKey]models.Submission, error) {
	switch kind {
	case models.RoleJudge:
		return s.judgeSubs, nil
	case models.RolePublic:
		return s.publicSubs, nil
	default:
		return nil, apperr.ErrIdentityUnresolved
	}
}

func scoresFor(table map[submissionKey]models.Submission, voteID string) []float64 {
	subs := []models.Submission{}
	for k, sub := range table {
		if k.voteID == voteID {
			subs = append(subs, sub)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].Identity < subs[j].Identity
		}
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})
	scores := make([]float64, 0, len(subs))
	for _, sub := range subs {
		scores = append(scores, sub.Score)
	}
	return scores
}
