// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Request types

type CreateEventRequest struct {
	Name string `json:"name"`
}

type CreateVoteRequest struct {
	Title           string   `json:"title"`
	Presenter       string   `json:"presenter"`
	DurationSeconds int      `json:"duration_seconds"`
	JudgeIDs        []string `json:"judge_ids"`
}

type CreateJudgeRequest struct {
	Name string `json:"name"`
}

// Score is a pointer so a missing field is told apart from zero.
type SubmitScoreRequest struct {
	Score *float64 `json:"score"`
}

// Response types

type IdentityResponse struct {
	VoterID string `json:"voter_id"`
}

type EventResponse struct {
	Event    Event  `json:"event"`
	ShareURL string `json:"share_url"`
	Votes    []Vote `json:"votes"`
}

type JudgeResponse struct {
	Judge     Judge  `json:"judge"`
	InviteURL string `json:"invite_url"`
}

type InvitationResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ClaimInvitationResponse struct {
	JudgeToken    string `json:"judge_token"`
	DeviceVoterID string `json:"device_voter_id"`
	Name          string `json:"name"`
}

type TransitionResponse struct {
	Vote         Vote `json:"vote"`
	Transitioned bool `json:"transitioned"`
}

type SubmitScoreResponse struct {
	Role    RoleKind `json:"role"`
	Message string   `json:"message"`
}

type VoterStatusResponse struct {
	Role     Role `json:"role"`
	HasVoted bool `json:"has_voted"`
}

type ErrorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Code         string `json:"code,omitempty"`
	AlreadyVoted bool   `json:"already_voted,omitempty"`
}
