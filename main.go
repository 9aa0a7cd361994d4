package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/danielhkuo/quickly-score/auth"
	"github.com/danielhkuo/quickly-score/cliparse"
	"github.com/danielhkuo/quickly-score/db"
	"github.com/danielhkuo/quickly-score/feed"
	"github.com/danielhkuo/quickly-score/identity"
	"github.com/danielhkuo/quickly-score/lifecycle"
	"github.com/danielhkuo/quickly-score/logger"
	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/queue"
	"github.com/danielhkuo/quickly-score/rooms"
	"github.com/danielhkuo/quickly-score/router"
	"github.com/danielhkuo/quickly-score/scoring"
	"github.com/danielhkuo/quickly-score/store"
	"github.com/danielhkuo/quickly-score/store/memstore"
	"github.com/danielhkuo/quickly-score/store/pgstore"
	"github.com/danielhkuo/quickly-score/submission"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "quickly-score",
		Usage: "live scoring rooms for judges and audiences",
		Flags: cliparse.Flags(),
		Before: func(c *cli.Context) error {
			return cliparse.LoadEnvFile(c.String("env-file"))
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the database schema and River tables",
				Action: migrate,
			},
			{
				Name:  "token",
				Usage: "issue an admin session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-id", Usage: "admin id to embed as the subject", Required: true},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
				},
				Action: issueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("quickly-score failed", "error", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := cliparse.FromContext(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	st, pg, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	broker, err := openBroker(cfg, log, m)
	if err != nil {
		return err
	}
	defer broker.Close()

	manager := lifecycle.NewManager(st, broker, log, m)
	health, stopTimer, err := startTimer(ctx, cfg, pg, manager, log)
	if err != nil {
		return err
	}
	defer stopTimer()

	if _, err := manager.ResumeTimers(ctx); err != nil {
		log.Warn("failed to resume vote timers", "error", err)
	}

	handler := router.NewRouter(router.Deps{
		Config:      cfg,
		Logger:      log,
		Registry:    registry,
		Tokens:      auth.NewProvider(cfg.JWTSecret),
		Rooms:       rooms.NewService(st, broker, cfg.BaseURL, log),
		Lifecycle:   manager,
		Resolver:    identity.NewResolver(st, log, m),
		Submissions: submission.NewService(st, log, m),
		Aggregator:  scoring.NewAggregator(st, log, m),
		Broker:      broker,
		Health:      health,
	})

	server := &http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", "port", cfg.Port, "memory_store", cfg.UsesMemory(), "durable_timers", cfg.DurableTimers)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		server.Close()
	}
	log.Info("Server closed")
	return nil
}

// openStore returns the configured store. pg is nil for the in-memory store.
func openStore(ctx context.Context, cfg cliparse.Config, log *slog.Logger) (st store.Store, pg *pgstore.Store, err error) {
	if cfg.UsesMemory() {
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil, nil
	}

	pg, err = pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CreateSchema(ctx, pg.DB().DB); err != nil {
		pg.Close()
		return nil, nil, err
	}
	log.Info("Database schema ready")
	return pg, pg, nil
}

func openBroker(cfg cliparse.Config, log *slog.Logger, m *metrics.Metrics) (feed.Broker, error) {
	if cfg.NATSURL == "" {
		return feed.NewLocal(log, m), nil
	}
	broker, err := feed.NewNATS(cfg.NATSURL, log, m)
	if err != nil {
		return nil, err
	}
	log.Info("live feed on NATS", "url", cfg.NATSURL)
	return broker, nil
}

// startTimer installs the finish timer on manager and returns its health
// check (nil for the local timer) and stop func.
func startTimer(ctx context.Context, cfg cliparse.Config, pg *pgstore.Store, manager *lifecycle.Manager, log *slog.Logger) (router.HealthChecker, func(), error) {
	if !cfg.DurableTimers {
		timer := lifecycle.NewLocalTimer(manager.Expire, log)
		manager.UseTimer(timer)
		return nil, timer.Stop, nil
	}

	timer, err := queue.NewRiverTimer(ctx, pg.DB(), cfg.DatabaseURL, manager.Expire, log)
	if err != nil {
		return nil, nil, err
	}
	if err := timer.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	if err := timer.Start(ctx); err != nil {
		return nil, nil, err
	}
	manager.UseTimer(timer)
	return timer, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := timer.Stop(stopCtx); err != nil {
			log.Error("failed to stop river timer", "error", err)
		}
	}, nil
}

func migrate(c *cli.Context) error {
	cfg, err := cliparse.FromContext(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.Setup(cfg.LogLevel)
	if cfg.UsesMemory() {
		return errors.New("migrate needs a PostgreSQL database URL")
	}

	pg, err := pgstore.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := db.CreateSchema(c.Context, pg.DB().DB); err != nil {
		return err
	}
	if err := queue.Migrate(c.Context, cfg.DatabaseURL); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func issueToken(c *cli.Context) error {
	secret := c.String("jwt-secret")
	if len(secret) < 16 {
		return errors.New("JWT_SECRET must be set and at least 16 characters")
	}
	token, err := auth.NewProvider(secret).GenerateToken(c.String("admin-id"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}
