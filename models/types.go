// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Vote status constants
const (
	VoteStatusPending  = "pending"
	VoteStatusActive   = "active"
	VoteStatusFinished = "finished"
)

// Judge claim status constants
const (
	JudgeStatusPending = "pending"
	JudgeStatusClaimed = "claimed"
)

// Scoring bounds
const (
	JudgesPerVote = 3
	MinScore      = 1.0
	MaxScore      = 10.0
)

// Vote duration bounds
const (
	MinVoteDuration = time.Second
	MaxVoteDuration = 24 * time.Hour
)

// RoleKind classifies a caller against one vote.
type RoleKind string

const (
	RoleJudge        RoleKind = "judge"
	RolePublic       RoleKind = "public"
	RoleUnresolvable RoleKind = "unresolvable"
)

// Role is the outcome of identity resolution for one vote. Identity is the
// judge id for RoleJudge and an anonymous voter id for RolePublic.
type Role struct {
	Kind     RoleKind `json:"kind"`
	Identity string   `json:"identity,omitempty"`
}

// Resolved reports whether the role may cast a score.
func (r Role) Resolved() bool {
	return (r.Kind == RoleJudge || r.Kind == RolePublic) && r.Identity != ""
}

// Unresolvable is the zero-identity role.
var Unresolvable = Role{Kind: RoleUnresolvable}

// Domain types

type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	ID              string     `json:"id"`
	EventID         string     `json:"event_id"`
	Title           string     `json:"title"`
	Presenter       string     `json:"presenter"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Duration returns the configured voting window.
func (v Vote) Duration() time.Duration {
	return time.Duration(v.DurationSeconds) * time.Second
}

type Judge struct {
	ID            string     `json:"id"`
	AdminID       string     `json:"admin_id"`
	Name          string     `json:"name"`
	InviteToken   string     `json:"invite_token,omitempty"`
	Status        string     `json:"status"`
	DeviceVoterID string     `json:"device_voter_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}

// Claimed reports whether the invitation was accepted on some device.
func (j Judge) Claimed() bool {
	return j.Status == JudgeStatusClaimed
}

// Submission is one immutable score by one identity for one vote.
type Submission struct {
	VoteID    string    `json:"vote_id"`
	Role      RoleKind  `json:"role"`
	Identity  string    `json:"identity"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is the read-only projection of a finished vote.
type Result struct {
	VoteID        string    `json:"vote_id"`
	JudgeScores   []float64 `json:"judge_scores"`
	MissingJudges int       `json:"missing_judges"`
	JudgePoints   float64   `json:"judge_points"`
	PublicCount   int       `json:"public_count"`
	PublicAverage float64   `json:"public_average"`
	PublicPoints  float64   `json:"public_points"`
	Total         float64   `json:"total"`
}

// ChangeType tags a live feed notification.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one vote-record notification on the live feed.
type Change struct {
	Type ChangeType `json:"type"`
	Vote Vote       `json:"vote"`
	At   time.Time  `json:"at"`
}
