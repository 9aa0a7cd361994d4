// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/scoring"
)

type ResultsHandler struct {
	aggregator *scoring.Aggregator
}

func NewResultsHandler(aggregator *scoring.Aggregator) *ResultsHandler {
	return &ResultsHandler{aggregator: aggregator}
}

// GetResults handles GET /votes/{id}/results
// Results stay sealed (403) until the vote is finished.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	voteID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.aggregator.ComputeResult(r.Context(), voteID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
