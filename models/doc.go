// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateEventRequest: name
  - CreateVoteRequest: title, presenter, duration_seconds, judge_ids
  - CreateJudgeRequest: name
  - SubmitScoreRequest: score (1-10)

# Response Types

  - IdentityResponse: voter_id
  - EventResponse: event, share_url, votes
  - JudgeResponse: judge, invite_url
  - InvitationResponse / ClaimInvitationResponse
  - TransitionResponse: vote, transitioned
  - SubmitScoreResponse / VoterStatusResponse
  - ErrorResponse: error, message, code, already_voted

# Domain Types

  - Event: a room owned by one admin
  - Vote: one scored presentation, pending → active → finished
  - Judge: an invited scorer, pending → claimed
  - Role: judge, public, or unresolvable for one vote
  - Submission: one immutable score
  - Result: weighted projection of a finished vote
  - Change: live feed notification (created, updated, deleted)

# Constants

Vote status values:

	VoteStatusPending  = "pending"
	VoteStatusActive   = "active"
	VoteStatusFinished = "finished"

Scoring:

	JudgesPerVote = 3
	MinScore      = 1.0
	MaxScore      = 10.0
*/
package models
