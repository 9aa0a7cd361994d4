// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-score/cliparse"
	"github.com/danielhkuo/quickly-score/feed"
	"github.com/danielhkuo/quickly-score/handlers"
	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/lifecycle"
	"github.com/danielhkuo/quickly-score/middleware"
	"github.com/danielhkuo/quickly-score/rooms"
	"github.com/danielhkuo/quickly-score/scoring"
	"github.com/danielhkuo/quickly-score/submission"
)

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps is everything the HTTP surface needs. Health is optional.
type Deps struct {
	Config      cliparse.Config
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	Tokens      middleware.TokenValidator
	Rooms       *rooms.Service
	Lifecycle   *lifecycle.Manager
	Resolver    *identity.Resolver
	Submissions *submission.Service
	Aggregator  *scoring.Aggregator
	Broker      feed.Broker
	Health      HealthChecker
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Initialize handlers
	identityHandler := handlers.NewIdentityHandler(d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Rooms, d.Lifecycle)
	roomHandler := handlers.NewRoomHandler(d.Rooms)
	votingHandler := handlers.NewVotingHandler(d.Resolver, d.Submissions)
	resultsHandler := handlers.NewResultsHandler(d.Aggregator)
	feedHandler := handlers.NewFeedHandler(d.Broker, d.Rooms, d.Logger)

	limiter := middleware.NewRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst)

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithLogging(d.Logger))
	r.Use(middleware.CORS(d.Config.CORSOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health.HealthCheck(r.Context()); err != nil {
				d.Logger.Warn("health check failed", "error", err)
				http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	// Live feed stays open past the request timeout
	r.Get("/events/{id}/feed", feedHandler.Stream)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(d.Config.RequestTimeout))

		// Identity and voting (public)
		r.With(limiter.Limit).Post("/identity", identityHandler.Mint)
		r.With(limiter.Limit).Post("/votes/{id}/submissions", votingHandler.SubmitScore)
		r.Get("/votes/{id}/me", votingHandler.GetMyStatus)

		// Results (public, sealed until the vote finishes)
		r.Get("/votes/{id}/results", resultsHandler.GetResults)

		// Rooms and invitations (public)
		r.Get("/events/{id}", roomHandler.GetEvent)
		r.Get("/invitations/{token}", roomHandler.GetInvitation)
		r.With(limiter.Limit).Post("/invitations/{token}/claim", roomHandler.ClaimInvitation)

		// Room management (admin, requires a bearer session)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Tokens))

			r.Post("/events", adminHandler.CreateEvent)
			r.Get("/events", adminHandler.ListEvents)
			r.Delete("/events/{id}", adminHandler.DeleteEvent)
			r.Post("/events/{id}/votes", adminHandler.CreateVote)
			r.Post("/votes/{id}/activate", adminHandler.ActivateVote)
			r.Post("/votes/{id}/finish", adminHandler.FinishVote)
			r.Post("/judges", adminHandler.CreateJudge)
			r.Get("/judges", adminHandler.ListJudges)
		})
	})

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-score API v1"))
	})

	return r
}
