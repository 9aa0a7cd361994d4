// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/quickly-score/lifecycle"
	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/rooms"
)

// AdminHandler serves the /admin routes. Every method expects
// middleware.RequireAdmin in front of it.
type AdminHandler struct {
	rooms     *rooms.Service
	lifecycle *lifecycle.Manager
}

func NewAdminHandler(rs *rooms.Service, lm *lifecycle.Manager) *AdminHandler {
	return &AdminHandler{rooms: rs, lifecycle: lm}
}

// CreateEvent handles POST /admin/events
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	event, err := h.rooms.CreateEvent(r.Context(), admin, req.Name)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	view, err := h.rooms.GetEvent(r.Context(), event.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, view)
}

// ListEvents handles GET /admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	events, err := h.rooms.ListEvents(r.Context(), admin)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, events)
}

// DeleteEvent handles DELETE /admin/events/{id}
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.rooms.DeleteEvent(r.Context(), admin, eventID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateVote handles POST /admin/events/{id}/votes
func (h *AdminHandler) CreateVote(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	eventID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	var req models.CreateVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	vote, err := h.rooms.CreateVote(r.Context(), admin, eventID, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, vote)
}

// ActivateVote handles POST /admin/votes/{id}/activate
// A second activation of the same vote answers 200 with transitioned=false.
func (h *AdminHandler) ActivateVote(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Activate)
}

// FinishVote handles POST /admin/votes/{id}/finish
func (h *AdminHandler) FinishVote(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Finish)
}

type transitionFunc func(ctx context.Context, voteID string) (models.Vote, bool, error)

func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	voteID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.rooms.OwnedVote(r.Context(), admin, voteID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	vote, transitioned, err := fn(r.Context(), voteID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.TransitionResponse{Vote: vote, Transitioned: transitioned})
}

// CreateJudge handles POST /admin/judges
func (h *AdminHandler) CreateJudge(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.CreateJudgeRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	judge, err := h.rooms.CreateJudge(r.Context(), admin, req.Name)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, judge)
}

// ListJudges handles GET /admin/judges
func (h *AdminHandler) ListJudges(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	judges, err := h.rooms.ListJudges(r.Context(), admin)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, judges)
}
