// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/middleware"
)

// Credential headers sent by voting clients.
const (
	HeaderJudgeToken = "X-Judge-Token"
	HeaderVoterID    = "X-Voter-ID"
)

func credentials(r *http.Request) identity.Credentials {
	return identity.Credentials{
		JudgeToken: r.Header.Get(HeaderJudgeToken),
		VoterID:    r.Header.Get(HeaderVoterID),
	}
}

// pathParam returns a required URL parameter or writes a 400.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if v == "" {
		middleware.WriteError(w, r, apperr.WithMessage(apperr.ErrMissingField, "%s is required", name))
		return "", false
	}
	return v, true
}

func adminID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.AdminID(r.Context())
	if !ok {
		middleware.WriteError(w, r, apperr.ErrUnauthorized)
		return "", false
	}
	return id, true
}
