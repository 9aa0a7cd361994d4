// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/submission"
)

type VotingHandler struct {
	resolver    *identity.Resolver
	submissions *submission.Service
}

func NewVotingHandler(resolver *identity.Resolver, submissions *submission.Service) *VotingHandler {
	return &VotingHandler{resolver: resolver, submissions: submissions}
}

// SubmitScore handles POST /votes/{id}/submissions
// The caller's role is resolved from X-Judge-Token and X-Voter-ID. A judge
// not assigned to this vote scores as public under their device voter id.
func (h *VotingHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	voteID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req models.SubmitScoreRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if req.Score == nil {
		middleware.WriteError(w, r, apperr.WithMessage(apperr.ErrMissingField, "score is required"))
		return
	}

	role := h.resolver.Resolve(r.Context(), voteID, credentials(r))
	sub, err := h.submissions.Submit(r.Context(), voteID, role, *req.Score)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitScoreResponse{
		Role:    sub.Role,
		Message: "score recorded",
	})
}

// GetMyStatus handles GET /votes/{id}/me
// Reports the caller's role for the vote and whether they already scored.
func (h *VotingHandler) GetMyStatus(w http.ResponseWriter, r *http.Request) {
	voteID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	role := h.resolver.Resolve(r.Context(), voteID, credentials(r))
	hasVoted, err := h.submissions.Status(r.Context(), voteID, role)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.VoterStatusResponse{Role: role, HasVoted: hasVoted})
}
