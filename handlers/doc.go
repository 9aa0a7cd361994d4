// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Score API.

# Handler Types

Each handler is a thin struct over one or two services:

  - IdentityHandler: mints anonymous voter ids
  - AdminHandler: events, votes, judges and vote transitions
  - RoomHandler: public event view and judge invitations
  - VotingHandler: score submission and per-caller status
  - ResultsHandler: weighted results of finished votes
  - FeedHandler: server-sent vote changes

Handlers decode the request, call the service and write the result with
middleware.JSONResponse. Errors go through middleware.WriteError, which maps
them to a status in one place.

# Vote Lifecycle

Votes move pending → active → finished and never go back:

	POST /admin/votes/{id}/activate → ActivateVote
	POST /admin/votes/{id}/finish   → FinishVote

Both answer 200 with transitioned=false when the vote is already in the
target state, so two admin tabs racing on the same button both succeed.
An active vote finishes by itself when its duration runs out.

# Voting Flow

Callers identify themselves with headers:

	X-Judge-Token: <invite token of a claimed judge>
	X-Voter-ID:    <id from POST /identity>

A judge assigned to the vote scores as a judge. Anyone else, including a
judge who is not assigned to that vote, scores as public under their voter
id (a judge's device voter id). A second score from the same identity gets
409 with already_voted=true.

# Live Feed

	GET /events/{id}/feed[?vote=<id>]

Sends the current votes as "updated" events, then every change. Clients
upsert by vote id, so replays are harmless.
*/
package handlers
