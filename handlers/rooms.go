// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/rooms"
)

// RoomHandler serves the public room page and judge invitations.
type RoomHandler struct {
	rooms *rooms.Service
}

func NewRoomHandler(rs *rooms.Service) *RoomHandler {
	return &RoomHandler{rooms: rs}
}

// GetEvent handles GET /events/{id}
func (h *RoomHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.rooms.GetEvent(r.Context(), eventID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetInvitation handles GET /invitations/{token}
func (h *RoomHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := pathParam(w, r, "token")
	if !ok {
		return
	}
	inv, err := h.rooms.GetInvitation(r.Context(), token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, inv)
}

// ClaimInvitation handles POST /invitations/{token}/claim
// The first claim binds the judge to this device; later claims get 409.
func (h *RoomHandler) ClaimInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := pathParam(w, r, "token")
	if !ok {
		return
	}
	claim, err := h.rooms.ClaimInvitation(r.Context(), token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, claim)
}
