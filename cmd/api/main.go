// Command api is the Quiniela survivor API server. Besides serving reads it
// runs the scheduled elimination and reminder jobs and the recompute
// listener.
//
// Usage:
//
//	quiniela-api
//	API_PORT=8080 quiniela-api

// @title Quiniela Survivor API
// @version 1.0.0
// @description Survivor pool status service. Participant lives, eliminations and standings are replayed from picks and live match results on every read.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Quiniela Turbo
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/api"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/api/handler"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/cache"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/config"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/db"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/elimination"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/events"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/fixture"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/listener"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/maintenance"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/reminder"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"

	_ "github.com/Aguirregzz97/quiniela-turbo-sub001/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "fixture_ttl", cfg.FixtureCacheTTL)

	client, err := fixture.NewClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to create fixture provider", "error", err)
		os.Exit(1)
	}
	fixtures := fixture.NewSource(client, appCache, cfg.FixtureCacheTTL, cfg.ProviderTimeout, logger)
	engine := survivor.NewEngine(fixtures,
		survivor.WithLocation(cfg.GameLocation),
		survivor.WithConcurrency(cfg.EliminationWorkers),
		survivor.WithLogger(logger),
	)
	logger.Info("Survivor engine ready", "provider", cfg.FixtureProvider, "timezone", cfg.GameLocation)

	st := store.New(pool.Pool)

	publisher := events.New(cfg.NATSURL, cfg.NATSToken, logger)
	defer publisher.Close()

	writer := elimination.NewWriter(st, engine, publisher, logger)
	planner := reminder.NewPlanner(st, fixtures, engine, cfg.GameLocation, cfg.ReminderWindow, logger)

	// Recompute a game as soon as a result or pick lands
	go listener.Start(ctx, cfg.DatabaseURL, writer, logger)

	// Scheduled elimination sweep, reminders and cleanup
	jobs := maintenance.DefaultConfig()
	jobs.EliminationInterval = cfg.EliminationInterval
	jobs.EliminationWorkers = cfg.EliminationWorkers
	jobs.ReminderInterval = cfg.ReminderInterval
	go func() {
		tasks := maintenance.Tasks{Eliminator: writer, Reminders: planner, Cleaner: st}
		if err := maintenance.Start(ctx, jobs, tasks, logger); err != nil {
			logger.Error("Maintenance scheduler failed", "error", err)
		}
	}()

	h := handler.New(handler.Deps{
		Store:    st,
		DB:       pool,
		Engine:   engine,
		Fixtures: fixtures,
		Cache:    appCache,
		Logger:   logger,
	})
	router := api.NewRouter(h, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Quiniela Survivor API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
