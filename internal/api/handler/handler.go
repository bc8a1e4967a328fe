// Package handler provides HTTP handlers for all API endpoints.
// Survivor status is replayed on every uncached read; nothing here trusts
// the lives or elimination columns in storage.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/api/respond"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/cache"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

// Store is the read side of the survivor repository. *store.Store
// satisfies it.
type Store interface {
	Game(ctx context.Context, gameID string) (survivor.Game, error)
	Participants(ctx context.Context, gameID string) ([]store.Participant, error)
	Participant(ctx context.Context, gameID, participantID string) (store.Participant, error)
	GamePicks(ctx context.Context, gameID string) (map[string][]survivor.Pick, error)
	ParticipantPicks(ctx context.Context, participantID string) ([]survivor.Pick, error)
}

// Pinger checks database connectivity. *db.Pool satisfies it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the handler dependencies.
type Deps struct {
	Store    Store
	DB       Pinger
	Engine   *survivor.Engine
	Fixtures survivor.FixtureSource
	Cache    *cache.Cache
	Logger   *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store    Store
	db       Pinger
	engine   *survivor.Engine
	fixtures survivor.FixtureSource
	cache    *cache.Cache
	logger   *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Cache == nil {
		d.Cache = cache.New(false)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		store:    d.Store,
		db:       d.DB,
		engine:   d.Engine,
		fixtures: d.Fixtures,
		cache:    d.Cache,
		logger:   d.Logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Quiniela Survivor API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (fixture rounds and rendered standings).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// idParam reads a UUID path parameter, writing a 400 when it is malformed.
func idParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if err := uuid.Validate(id); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", name+" must be a UUID")
		return "", false
	}
	return id, true
}

// writeStoreError maps repository errors to responses.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
		return
	}
	h.logger.Error("Store query failed", "what", what, "error", err)
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load "+what)
}
