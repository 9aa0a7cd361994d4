// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pgstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/danielhkuo/quickly-score/models"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	AdminID   string    `bun:"admin_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r eventRow) model() models.Event {
	return models.Event{ID: r.ID, Name: r.Name, AdminID: r.AdminID, CreatedAt: r.CreatedAt}
}

type voteRow struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID              string     `bun:"id,pk"`
	EventID         string     `bun:"event_id,notnull"`
	Title           string     `bun:"title,notnull"`
	Presenter       string     `bun:"presenter,notnull"`
	DurationSeconds int        `bun:"duration_seconds,notnull"`
	Status          string     `bun:"status,notnull"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	ActivatedAt     *time.Time `bun:"activated_at"`
	EndsAt          *time.Time `bun:"ends_at"`
	FinishedAt      *time.Time `bun:"finished_at"`
}

func newVoteRow(v models.Vote) *voteRow {
	return &voteRow{
		ID:              v.ID,
		EventID:         v.EventID,
		Title:           v.Title,
		Presenter:       v.Presenter,
		DurationSeconds: v.DurationSeconds,
		Status:          v.Status,
		CreatedAt:       v.CreatedAt,
		ActivatedAt:     v.ActivatedAt,
		EndsAt:          v.EndsAt,
		FinishedAt:      v.FinishedAt,
	}
}

func (r voteRow) model() models.Vote {
	return models.Vote{
		ID:              r.ID,
		EventID:         r.EventID,
		Title:           r.Title,
		Presenter:       r.Presenter,
		DurationSeconds: r.DurationSeconds,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		ActivatedAt:     r.ActivatedAt,
		EndsAt:          r.EndsAt,
		FinishedAt:      r.FinishedAt,
	}
}

type judgeRow struct {
	bun.BaseModel `bun:"table:judges,alias:j"`

	ID            string     `bun:"id,pk"`
	AdminID       string     `bun:"admin_id,notnull"`
	Name          string     `bun:"name,notnull"`
	InviteToken   string     `bun:"invite_token,notnull"`
	Status        string     `bun:"status,notnull"`
	DeviceVoterID string     `bun:"device_voter_id,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,notnull"`
	ClaimedAt     *time.Time `bun:"claimed_at"`
}

func (r judgeRow) model() models.Judge {
	return models.Judge{
		ID:            r.ID,
		AdminID:       r.AdminID,
		Name:          r.Name,
		InviteToken:   r.InviteToken,
		Status:        r.Status,
		DeviceVoterID: r.DeviceVoterID,
		CreatedAt:     r.CreatedAt,
		ClaimedAt:     r.ClaimedAt,
	}
}

type assignmentRow struct {
	bun.BaseModel `bun:"table:vote_assignments,alias:va"`

	VoteID  string `bun:"vote_id,pk"`
	JudgeID string `bun:"judge_id,pk"`
}

type judgeSubmissionRow struct {
	bun.BaseModel `bun:"table:submissions_judge,alias:sj"`

	VoteID    string    `bun:"vote_id,notnull"`
	JudgeID   string    `bun:"judge_id,notnull"`
	Score     float64   `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type publicSubmissionRow struct {
	bun.BaseModel `bun:"table:submissions_normal,alias:sn"`

	VoteID    string    `bun:"vote_id,notnull"`
	VoterID   string    `bun:"voter_id,notnull"`
	Score     float64   `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
