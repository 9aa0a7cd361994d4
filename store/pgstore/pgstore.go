// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/models"
)

// Store implements every storage port on PostgreSQL through bun.
type Store struct {
	db *bun.DB
}

// Open connects to PostgreSQL with the lib/pq driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return New(bun.NewDB(sqldb, pgdialect.New())), nil
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the bun handle for schema setup and job queries.
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Events

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	row := &eventRow{ID: e.ID, Name: e.Name, AdminID: e.AdminID, CreatedAt: e.CreatedAt}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return classify(err, nil)
}

func (s *Store) GetEvent(ctx context.Context, id string) (models.Event, error) {
	row := new(eventRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return models.Event{}, classify(err, apperr.ErrEventNotFound)
	}
	return row.model(), nil
}

// ListEventsByAdmin returns the admin's events, newest first.
func (s *Store) ListEventsByAdmin(ctx context.Context, adminID string) ([]models.Event, error) {
	var rows []eventRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("admin_id = ?", adminID).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify(err, nil)
	}
	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.model())
	}
	return events, nil
}

// DeleteEvent removes the event. Foreign keys cascade to votes,
// assignments, and submissions.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().
		Model((*eventRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return classify(err, nil)
	}
	return requireRow(res, apperr.ErrEventNotFound)
}

// Votes

// CreateVote inserts the vote and its judge assignments in one transaction.
func (s *Store) CreateVote(ctx context.Context, v models.Vote, judgeIDs []string) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newVoteRow(v)).Exec(ctx); err != nil {
			return err
		}
		if len(judgeIDs) == 0 {
			return nil
		}
		assignments := make([]assignmentRow, 0, len(judgeIDs))
		for _, id := range judgeIDs {
			assignments = append(assignments, assignmentRow{VoteID: v.ID, JudgeID: id})
		}
		_, err := tx.NewInsert().Model(&assignments).Exec(ctx)
		return err
	})
	return classify(err, nil)
}

func (s *Store) GetVote(ctx context.Context, id string) (models.Vote, error) {
	row := new(voteRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return models.Vote{}, classify(err, apperr.ErrVoteNotFound)
	}
	return row.model(), nil
}

// ListVotes returns the event's votes ordered by creation time.
func (s *Store) ListVotes(ctx context.Context, eventID string) ([]models.Vote, error) {
	return s.listVotes(ctx, "event_id = ?", eventID)
}

// ListActiveVotes returns every active vote across all events.
func (s *Store) ListActiveVotes(ctx context.Context) ([]models.Vote, error) {
	return s.listVotes(ctx, "status = ?", models.VoteStatusActive)
}

func (s *Store) listVotes(ctx context.Context, where string, arg any) ([]models.Vote, error) {
	var rows []voteRow
	err := s.db.NewSelect().
		Model(&rows).
		Where(where, arg).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify(err, nil)
	}
	votes := make([]models.Vote, 0, len(rows))
	for _, r := range rows {
		votes = append(votes, r.model())
	}
	return votes, nil
}

// ActivateVote sets a pending vote active if no sibling vote in the same
// event is active. Concurrent activations of two siblings that both pass the
// NOT EXISTS check are serialized by the votes_one_active_per_event index.
func (s *Store) ActivateVote(ctx context.Context, id string, at, endsAt time.Time) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*voteRow)(nil)).
		Set("status = ?", models.VoteStatusActive).
		Set("activated_at = ?", at).
		Set("ends_at = ?", endsAt).
		Where("id = ?", id).
		Where("status = ?", models.VoteStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM votes AS sib WHERE sib.event_id = v.event_id AND sib.status = ?)",
			models.VoteStatusActive).
		Exec(ctx)
	if err != nil {
		return false, classify(err, nil)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, classify(err, nil)
	} else if n == 1 {
		return true, nil
	}

	current, err := s.GetVote(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Status == models.VoteStatusPending {
		return false, apperr.ErrAnotherVoteActive
	}
	return false, nil
}

// FinishVote sets an active vote finished. It reports false when the vote
// was not active.
func (s *Store) FinishVote(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*voteRow)(nil)).
		Set("status = ?", models.VoteStatusFinished).
		Set("finished_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", models.VoteStatusActive).
		Exec(ctx)
	if err != nil {
		return false, classify(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err, nil)
	}
	if n == 1 {
		return true, nil
	}
	if _, err := s.GetVote(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Judges

func (s *Store) CreateJudge(ctx context.Context, j models.Judge) error {
	row := &judgeRow{
		ID:          j.ID,
		AdminID:     j.AdminID,
		Name:        j.Name,
		InviteToken: j.InviteToken,
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return classify(err, nil)
}

func (s *Store) GetJudge(ctx context.Context, id string) (models.Judge, error) {
	return s.judgeWhere(ctx, "id = ?", id)
}

func (s *Store) JudgeByToken(ctx context.Context, token string) (models.Judge, error) {
	return s.judgeWhere(ctx, "invite_token = ?", token)
}

func (s *Store) judgeWhere(ctx context.Context, where string, arg any) (models.Judge, error) {
	row := new(judgeRow)
	err := s.db.NewSelect().
		Model(row).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		return models.Judge{}, classify(err, apperr.ErrJudgeNotFound)
	}
	return row.model(), nil
}

// ListJudgesByAdmin returns the admin's judges ordered by creation time.
func (s *Store) ListJudgesByAdmin(ctx context.Context, adminID string) ([]models.Judge, error) {
	var rows []judgeRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("admin_id = ?", adminID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify(err, nil)
	}
	judges := make([]models.Judge, 0, len(rows))
	for _, r := range rows {
		judges = append(judges, r.model())
	}
	return judges, nil
}

// ClaimJudge moves a pending judge to claimed and binds its device voter id.
func (s *Store) ClaimJudge(ctx context.Context, token, deviceVoterID string, at time.Time) (models.Judge, error) {
	row := new(judgeRow)
	res, err := s.db.NewUpdate().
		Model(row).
		Set("status = ?", models.JudgeStatusClaimed).
		Set("device_voter_id = ?", deviceVoterID).
		Set("claimed_at = ?", at).
		Where("invite_token = ?", token).
		Where("status = ?", models.JudgeStatusPending).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return models.Judge{}, classify(err, nil)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Judge{}, classify(err, nil)
	} else if n == 1 {
		return row.model(), nil
	}

	if _, err := s.JudgeByToken(ctx, token); err != nil {
		return models.Judge{}, err
	}
	return models.Judge{}, apperr.ErrAlreadyClaimed
}

func (s *Store) IsAssigned(ctx context.Context, voteID, judgeID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*assignmentRow)(nil)).
		Where("vote_id = ?", voteID).
		Where("judge_id = ?", judgeID).
		Exists(ctx)
	if err != nil {
		return false, classify(err, nil)
	}
	return exists, nil
}

// AssignedJudges returns the judge ids assigned to a vote, sorted.
func (s *Store) AssignedJudges(ctx context.Context, voteID string) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*assignmentRow)(nil)).
		Column("judge_id").
		Where("vote_id = ?", voteID).
		Order("judge_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, classify(err, nil)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Submissions

// InsertSubmission writes to submissions_judge or submissions_normal by
// role, but only while the vote is active. The unique constraints turn a
// second insert into ErrDuplicate.
func (s *Store) InsertSubmission(ctx context.Context, sub models.Submission) error {
	var table, identityColumn string
	switch sub.Role {
	case models.RoleJudge:
		table, identityColumn = "submissions_judge", "judge_id"
	case models.RolePublic:
		table, identityColumn = "submissions_normal", "voter_id"
	default:
		return apperr.ErrIdentityUnresolved
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ? (vote_id, ?, score, created_at)
		SELECT ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM votes WHERE id = ? AND status = ?)
	`, bun.Ident(table), bun.Ident(identityColumn),
		sub.VoteID, sub.Identity, sub.Score, sub.CreatedAt,
		sub.VoteID, models.VoteStatusActive)
	if err != nil {
		return classify(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, nil)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.GetVote(ctx, sub.VoteID); err != nil {
		return err
	}
	return apperr.ErrVoteNotActive
}

func (s *Store) HasSubmitted(ctx context.Context, voteID string, role models.Role) (bool, error) {
	var q *bun.SelectQuery
	switch role.Kind {
	case models.RoleJudge:
		q = s.db.NewSelect().Model((*judgeSubmissionRow)(nil)).Where("judge_id = ?", role.Identity)
	case models.RolePublic:
		q = s.db.NewSelect().Model((*publicSubmissionRow)(nil)).Where("voter_id = ?", role.Identity)
	default:
		return false, apperr.ErrIdentityUnresolved
	}
	exists, err := q.Where("vote_id = ?", voteID).Exists(ctx)
	if err != nil {
		return false, classify(err, nil)
	}
	return exists, nil
}

// JudgeScores returns judge scores for a vote in submission order.
func (s *Store) JudgeScores(ctx context.Context, voteID string) ([]float64, error) {
	return s.scores(ctx, (*judgeSubmissionRow)(nil), "judge_id", voteID)
}

// PublicScores returns public scores for a vote in submission order.
func (s *Store) PublicScores(ctx context.Context, voteID string) ([]float64, error) {
	return s.scores(ctx, (*publicSubmissionRow)(nil), "voter_id", voteID)
}

func (s *Store) scores(ctx context.Context, model any, identityColumn, voteID string) ([]float64, error) {
	scores := []float64{}
	err := s.db.NewSelect().
		Model(model).
		Column("score").
		Where("vote_id = ?", voteID).
		OrderExpr("created_at ASC, ? ASC", bun.Ident(identityColumn)).
		Scan(ctx, &scores)
	if err != nil {
		return nil, classify(err, nil)
	}
	return scores, nil
}

func requireRow(res sql.Result, notFound *apperr.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, nil)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
