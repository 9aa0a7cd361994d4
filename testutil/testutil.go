// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/quickly-score/auth"
	"github.com/danielhkuo/quickly-score/cliparse"
	"github.com/danielhkuo/quickly-score/feed"
	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/lifecycle"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/rooms"
	"github.com/danielhkuo/quickly-score/router"
	"github.com/danielhkuo/quickly-score/scoring"
	"github.com/danielhkuo/quickly-score/store/memstore"
	"github.com/danielhkuo/quickly-score/submission"
)

// TestJWTSecret signs admin sessions in tests.
const TestJWTSecret = "test-jwt-secret-0123456789"

// Env is a complete in-memory server: memstore, local broker, local timer,
// every service and the router.
type Env struct {
	Config      cliparse.Config
	Store       *memstore.Store
	Broker      *feed.Local
	Timer       *lifecycle.LocalTimer
	Lifecycle   *lifecycle.Manager
	Rooms       *rooms.Service
	Resolver    *identity.Resolver
	Submissions *submission.Service
	Aggregator  *scoring.Aggregator
	Tokens      *auth.Provider
	Registry    *prometheus.Registry
	Handler     http.Handler
	Faker       *gofakeit.Faker
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	cfg := cliparse.Defaults()
	cfg.DatabaseURL = cliparse.MemoryURL
	cfg.JWTSecret = TestJWTSecret
	cfg.BaseURL = "https://score.example.com"
	cfg.CORSOrigins = []string{"https://score.example.com"}
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewEnv wires a fresh environment and stops its timer and broker when the
// test ends.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	return NewEnvWithConfig(t, GetTestConfig())
}

func NewEnvWithConfig(t *testing.T, cfg cliparse.Config) *Env {
	t.Helper()

	logger := DiscardLogger()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	st := memstore.New()
	broker := feed.NewLocal(logger, m)

	manager := lifecycle.NewManager(st, broker, logger, m)
	timer := lifecycle.NewLocalTimer(manager.Expire, logger)
	manager.UseTimer(timer)

	env := &Env{
		Config:      cfg,
		Store:       st,
		Broker:      broker,
		Timer:       timer,
		Lifecycle:   manager,
		Rooms:       rooms.NewService(st, broker, cfg.BaseURL, logger),
		Resolver:    identity.NewResolver(st, logger, m),
		Submissions: submission.NewService(st, logger, m),
		Aggregator:  scoring.NewAggregator(st, logger, m),
		Tokens:      auth.NewProvider(cfg.JWTSecret),
		Registry:    registry,
		Faker:       gofakeit.New(7),
	}
	env.Handler = router.NewRouter(router.Deps{
		Config:      cfg,
		Logger:      logger,
		Registry:    registry,
		Tokens:      env.Tokens,
		Rooms:       env.Rooms,
		Lifecycle:   env.Lifecycle,
		Resolver:    env.Resolver,
		Submissions: env.Submissions,
		Aggregator:  env.Aggregator,
		Broker:      broker,
	})

	t.Cleanup(func() {
		timer.Stop()
		broker.Close()
	})
	return env
}

// AdminToken issues a bearer token for adminID.
func (e *Env) AdminToken(t *testing.T, adminID string) string {
	t.Helper()
	token, err := e.Tokens.GenerateToken(adminID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate admin token: %v", err)
	}
	return token
}

// AdminHeaders returns the Authorization header for adminID.
func (e *Env) AdminHeaders(t *testing.T, adminID string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + e.AdminToken(t, adminID)}
}

// CreateTestEvent creates an event owned by adminID.
func (e *Env) CreateTestEvent(t *testing.T, adminID string) models.Event {
	t.Helper()
	event, err := e.Rooms.CreateEvent(context.Background(), adminID, e.Faker.Company())
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return event
}

// CreateTestJudge creates a pending judge invitation owned by adminID.
func (e *Env) CreateTestJudge(t *testing.T, adminID string) models.Judge {
	t.Helper()
	resp, err := e.Rooms.CreateJudge(context.Background(), adminID, e.Faker.Name())
	if err != nil {
		t.Fatalf("Failed to create test judge: %v", err)
	}
	return resp.Judge
}

// ClaimTestJudge claims judge's invitation and returns the judge token and
// the device voter id minted for it.
func (e *Env) ClaimTestJudge(t *testing.T, judge models.Judge) (token, deviceVoterID string) {
	t.Helper()
	resp, err := e.Rooms.ClaimInvitation(context.Background(), judge.InviteToken)
	if err != nil {
		t.Fatalf("Failed to claim test judge: %v", err)
	}
	return resp.JudgeToken, resp.DeviceVoterID
}

// CreateTestVote creates a pending vote in event with the given judges.
func (e *Env) CreateTestVote(t *testing.T, adminID, eventID string, duration time.Duration, judges ...models.Judge) models.Vote {
	t.Helper()
	ids := make([]string, 0, len(judges))
	for _, j := range judges {
		ids = append(ids, j.ID)
	}
	vote, err := e.Rooms.CreateVote(context.Background(), adminID, eventID, models.CreateVoteRequest{
		Title:           e.Faker.AppName(),
		Presenter:       e.Faker.Name(),
		DurationSeconds: int(duration / time.Second),
		JudgeIDs:        ids,
	})
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	return vote
}

// ActivateTestVote opens vote for scoring.
func (e *Env) ActivateTestVote(t *testing.T, voteID string) models.Vote {
	t.Helper()
	vote, _, err := e.Lifecycle.Activate(context.Background(), voteID)
	if err != nil {
		t.Fatalf("Failed to activate test vote: %v", err)
	}
	return vote
}

// Do serves req against the environment's router.
func (e *Env) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.Handler.ServeHTTP(w, req)
	return w
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
