// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/danielhkuo/quickly-score/apperr"
	"github.com/danielhkuo/quickly-score/feed"
	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/rooms"
)

const defaultHeartbeat = 15 * time.Second

// FeedHandler streams vote changes as server-sent events.
type FeedHandler struct {
	broker    feed.Broker
	rooms     *rooms.Service
	logger    *slog.Logger
	Heartbeat time.Duration
}

func NewFeedHandler(broker feed.Broker, rs *rooms.Service, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{broker: broker, rooms: rs, logger: logger, Heartbeat: defaultHeartbeat}
}

// Stream handles GET /events/{id}/feed
// Sends every current vote of the event as an "updated" event, then live
// changes. ?vote=<id> narrows the stream to one vote. The stream ends when
// the client disconnects.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	voteID := r.URL.Query().Get("vote")

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	event, err := h.rooms.GetEvent(r.Context(), eventID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if voteID != "" && !slices.ContainsFunc(event.Votes, func(v models.Vote) bool { return v.ID == voteID }) {
		middleware.WriteError(w, r, apperr.ErrVoteNotFound)
		return
	}

	scope := feed.Scope{EventID: eventID}
	if voteID != "" {
		scope = feed.Scope{VoteID: voteID}
	}
	snapshot := func(ctx context.Context) ([]models.Vote, error) {
		votes, err := h.rooms.ListVotes(ctx, eventID)
		if err != nil || voteID == "" {
			return votes, err
		}
		for _, v := range votes {
			if v.ID == voteID {
				return []models.Vote{v}, nil
			}
		}
		return nil, nil
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, err := feed.Follow(ctx, h.broker, scope, snapshot)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	h.logger.Debug("feed subscriber connected", "event_id", eventID, "vote_id", voteID)
	defer h.logger.Debug("feed subscriber disconnected", "event_id", eventID, "vote_id", voteID)

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := writeEvent(w, change); err != nil {
				h.logger.Warn("failed to write feed event", "event_id", eventID, "error", err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, change models.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Type, payload)
	return err
}
