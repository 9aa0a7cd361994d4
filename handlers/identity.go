// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-score/auth"
	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/models"
)

type IdentityHandler struct {
	logger *slog.Logger
}

func NewIdentityHandler(logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{logger: logger}
}

// Mint handles POST /identity
// Issues a fresh anonymous voter id. The client keeps it and sends it back
// in X-Voter-ID; the server stores nothing until a score is cast.
func (h *IdentityHandler) Mint(w http.ResponseWriter, r *http.Request) {
	voterID := auth.MintVoterID()
	h.logger.Debug("voter id minted")
	middleware.JSONResponse(w, http.StatusCreated, models.IdentityResponse{VoterID: voterID})
}
