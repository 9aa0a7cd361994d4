// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rooms

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/auth"
	"github.com/danielhkuo/quickly-score/models"
)

const maxNameLength = 200

type Store interface {
	CreateEvent(ctx context.Context, e models.Event) error
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ListEventsByAdmin(ctx context.Context, adminID string) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	CreateVote(ctx context.Context, v models.Vote, judgeIDs []string) error
	GetVote(ctx context.Context, id string) (models.Vote, error)
	ListVotes(ctx context.Context, eventID string) ([]models.Vote, error)

	CreateJudge(ctx context.Context, j models.Judge) error
	GetJudge(ctx context.Context, id string) (models.Judge, error)
	ListJudgesByAdmin(ctx context.Context, adminID string) ([]models.Judge, error)
	JudgeByToken(ctx context.Context, token string) (models.Judge, error)
	ClaimJudge(ctx context.Context, token, deviceVoterID string, at time.Time) (models.Judge, error)
}

type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

// Service is the admin-facing CRUD around events, votes and judges.
type Service struct {
	store     Store
	publisher Publisher
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, publisher Publisher, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// Events

func (s *Service) CreateEvent(ctx context.Context, adminID, name string) (models.Event, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		ID:        auth.NewID(),
		Name:      name,
		AdminID:   adminID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return models.Event{}, storeError(err)
	}
	s.logger.Info("event created", "event_id", event.ID, "admin_id", adminID)
	return event, nil
}

// ListEvents returns the admin's events, newest first.
func (s *Service) ListEvents(ctx context.Context, adminID string) ([]models.Event, error) {
	events, err := s.store.ListEventsByAdmin(ctx, adminID)
	if err != nil {
		return nil, storeError(err)
	}
	return events, nil
}

// GetEvent is the public room view: the event, its share link and its votes.
func (s *Service) GetEvent(ctx context.Context, eventID string) (models.EventResponse, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.EventResponse{}, storeError(err)
	}
	votes, err := s.ListVotes(ctx, eventID)
	if err != nil {
		return models.EventResponse{}, err
	}
	return models.EventResponse{
		Event:    event,
		ShareURL: auth.ShareURL(s.baseURL, event.ID),
		Votes:    votes,
	}, nil
}

// DeleteEvent removes the event and its votes, and announces each removed
// vote on the feed.
func (s *Service) DeleteEvent(ctx context.Context, adminID, eventID string) error {
	if _, err := s.ownedEvent(ctx, adminID, eventID); err != nil {
		return err
	}
	votes, err := s.store.ListVotes(ctx, eventID)
	if err != nil {
		return storeError(err)
	}
	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return storeError(err)
	}
	for _, v := range votes {
		s.publish(ctx, models.ChangeDeleted, v)
	}
	s.logger.Info("event deleted", "event_id", eventID, "votes", len(votes))
	return nil
}

// Votes

// CreateVote adds a pending vote with exactly three distinct judges owned by
// the admin.
func (s *Service) CreateVote(ctx context.Context, adminID, eventID string, req models.CreateVoteRequest) (models.Vote, error) {
	if _, err := s.ownedEvent(ctx, adminID, eventID); err != nil {
		return models.Vote{}, err
	}
	title, err := cleanName("title", req.Title)
	if err != nil {
		return models.Vote{}, err
	}
	presenter := strings.TrimSpace(req.Presenter)
	if utf8.RuneCountInString(presenter) > maxNameLength {
		return models.Vote{}, apperr.WithMessage(apperr.ErrInvalidInput, "presenter must be at most %d characters", maxNameLength)
	}
	// Checked in seconds; converting first can overflow.
	if req.DurationSeconds < int(models.MinVoteDuration/time.Second) ||
		req.DurationSeconds > int(models.MaxVoteDuration/time.Second) {
		return models.Vote{}, apperr.ErrInvalidDuration
	}

	judgeIDs, err := s.checkJudges(ctx, adminID, req.JudgeIDs)
	if err != nil {
		return models.Vote{}, err
	}

	vote := models.Vote{
		ID:              auth.NewID(),
		EventID:         eventID,
		Title:           title,
		Presenter:       presenter,
		DurationSeconds: req.DurationSeconds,
		Status:          models.VoteStatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateVote(ctx, vote, judgeIDs); err != nil {
		return models.Vote{}, storeError(err)
	}
	s.publish(ctx, models.ChangeCreated, vote)
	s.logger.Info("vote created", "vote_id", vote.ID, "event_id", eventID, "duration_seconds", vote.DurationSeconds)
	return vote, nil
}

func (s *Service) checkJudges(ctx context.Context, adminID string, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	var distinct []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		distinct = append(distinct, id)
	}
	if len(distinct) != models.JudgesPerVote || len(ids) != models.JudgesPerVote {
		return nil, apperr.ErrJudgeCount
	}
	for _, id := range distinct {
		judge, err := s.store.GetJudge(ctx, id)
		if err != nil {
			return nil, storeError(err)
		}
		if judge.AdminID != adminID {
			return nil, apperr.ErrJudgeNotFound
		}
	}
	return distinct, nil
}

// ListVotes returns an event's votes in creation order.
func (s *Service) ListVotes(ctx context.Context, eventID string) ([]models.Vote, error) {
	votes, err := s.store.ListVotes(ctx, eventID)
	if err != nil {
		return nil, storeError(err)
	}
	return votes, nil
}

// OwnedVote returns the vote if its event belongs to adminID.
func (s *Service) OwnedVote(ctx context.Context, adminID, voteID string) (models.Vote, error) {
	vote, err := s.store.GetVote(ctx, voteID)
	if err != nil {
		return models.Vote{}, storeError(err)
	}
	event, err := s.store.GetEvent(ctx, vote.EventID)
	if err != nil {
		return models.Vote{}, storeError(err)
	}
	if event.AdminID != adminID {
		return models.Vote{}, apperr.ErrVoteNotFound
	}
	return vote, nil
}

// Judges

func (s *Service) CreateJudge(ctx context.Context, adminID, name string) (models.JudgeResponse, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return models.JudgeResponse{}, err
	}
	token, err := auth.GenerateInviteToken()
	if err != nil {
		return models.JudgeResponse{}, err
	}

	judge := models.Judge{
		ID:          auth.NewID(),
		AdminID:     adminID,
		Name:        name,
		InviteToken: token,
		Status:      models.JudgeStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateJudge(ctx, judge); err != nil {
		return models.JudgeResponse{}, storeError(err)
	}
	s.logger.Info("judge created", "judge_id", judge.ID, "admin_id", adminID)
	return models.JudgeResponse{Judge: judge, InviteURL: auth.InviteURL(s.baseURL, token)}, nil
}

func (s *Service) ListJudges(ctx context.Context, adminID string) ([]models.Judge, error) {
	judges, err := s.store.ListJudgesByAdmin(ctx, adminID)
	if err != nil {
		return nil, storeError(err)
	}
	return judges, nil
}

// Invitations

// GetInvitation is the public view of an invite link.
func (s *Service) GetInvitation(ctx context.Context, token string) (models.InvitationResponse, error) {
	judge, err := s.judgeByToken(ctx, token)
	if err != nil {
		return models.InvitationResponse{}, err
	}
	return models.InvitationResponse{Name: judge.Name, Status: judge.Status}, nil
}

// ClaimInvitation binds the invitation to the calling device. It succeeds
// once; later claims get apperr.ErrAlreadyClaimed.
func (s *Service) ClaimInvitation(ctx context.Context, token string) (models.ClaimInvitationResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.ClaimInvitationResponse{}, apperr.ErrJudgeNotFound
	}

	judge, err := s.store.ClaimJudge(ctx, token, auth.MintVoterID(), s.now().UTC())
	if err != nil {
		return models.ClaimInvitationResponse{}, storeError(err)
	}
	s.logger.Info("invitation claimed", "judge_id", judge.ID)
	return models.ClaimInvitationResponse{
		JudgeToken:    token,
		DeviceVoterID: judge.DeviceVoterID,
		Name:          judge.Name,
	}, nil
}

func (s *Service) judgeByToken(ctx context.Context, token string) (models.Judge, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Judge{}, apperr.ErrJudgeNotFound
	}
	judge, err := s.store.JudgeByToken(ctx, token)
	if err != nil {
		return models.Judge{}, storeError(err)
	}
	return judge, nil
}

func (s *Service) ownedEvent(ctx context.Context, adminID, eventID string) (models.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.Event{}, storeError(err)
	}
	if event.AdminID != adminID {
		return models.Event{}, apperr.ErrEventNotFound
	}
	return event, nil
}

func (s *Service) publish(ctx context.Context, typ models.ChangeType, vote models.Vote) {
	if s.publisher == nil {
		return
	}
	change := models.Change{Type: typ, Vote: vote, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.Warn("failed to publish vote change", "vote_id", vote.ID, "type", typ, "error", err)
	}
}

func cleanName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.WithMessage(apperr.ErrMissingField, "%s is required", field)
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		return "", apperr.WithMessage(apperr.ErrInvalidInput, "%s must be at most %d characters", field, maxNameLength)
	}
	return value, nil
}

func storeError(err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		return apperr.Wrap(apperr.ErrStoreUnavailable, err)
	}
	return err
}
