// Package listener provides a Postgres LISTEN/NOTIFY consumer for on-demand
// survivor recomputation. It holds a dedicated pgx connection (not from the
// pool) listening on the `survivor_recompute` channel.
//
// Whatever changes a game's inputs (a pick submitted, a round schedule
// edited, an admin correction) can pg_notify the game id, and that game is
// recomputed right away instead of waiting for the next scheduled run.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/elimination"
)

const (
	Channel          = "survivor_recompute"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// RecomputeEvent is the JSON payload from pg_notify('survivor_recompute', ...).
type RecomputeEvent struct {
	GameID string `json:"game_id"`
}

// GameRunner recomputes one game. *elimination.Writer satisfies it.
type GameRunner interface {
	RunGame(ctx context.Context, gameID string) elimination.GameResult
}

// Start opens a dedicated connection and listens on the survivor_recompute
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, runner GameRunner, logger *slog.Logger) {
	backoff := reconnectBackoff
	d := newDispatcher(ctx, runner, logger)

	for {
		err := listenLoop(ctx, dbURL, d, logger)
		if ctx.Err() != nil {
			logger.Info("Recompute listener stopped (context cancelled)")
			return
		}

		logger.Error("Recompute listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, d *dispatcher, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Recompute listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		d.handle(notification.Payload)
	}
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// dispatcher runs recomputations off the listener goroutine. A game already
// being recomputed is marked dirty instead of starting a second run, and is
// run once more when the current run finishes.
type dispatcher struct {
	ctx    context.Context
	runner GameRunner
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]bool // game id -> rerun requested
	wg      sync.WaitGroup
}

func newDispatcher(ctx context.Context, runner GameRunner, logger *slog.Logger) *dispatcher {
	return &dispatcher{
		ctx:     ctx,
		runner:  runner,
		logger:  logger,
		running: make(map[string]bool),
	}
}

func (d *dispatcher) handle(payload string) {
	var event RecomputeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil || event.GameID == "" {
		d.logger.Warn("Failed to parse recompute event", "payload", payload, "error", err)
		return
	}

	d.mu.Lock()
	if _, busy := d.running[event.GameID]; busy {
		d.running[event.GameID] = true
		d.mu.Unlock()
		return
	}
	d.running[event.GameID] = false
	d.mu.Unlock()

	d.logger.Info("Recompute event received", "game_id", event.GameID)
	d.wg.Add(1)
	go d.run(event.GameID)
}

func (d *dispatcher) run(gameID string) {
	defer d.wg.Done()
	for {
		res := d.runner.RunGame(d.ctx, gameID)
		if !res.Success() {
			d.logger.Warn("Recompute failed", "game_id", gameID, "errors", res.Errors)
		}

		d.mu.Lock()
		if !d.running[gameID] || d.ctx.Err() != nil {
			delete(d.running, gameID)
			d.mu.Unlock()
			return
		}
		d.running[gameID] = false
		d.mu.Unlock()
	}
}

// wait blocks until in-flight recomputations finish.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
