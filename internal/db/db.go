// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

const participantColumns = "id::text, game_id::text, user_id::text, lives_remaining, is_eliminated, eliminated_at_round, updated_at"

// registerPreparedStatements registers all statements the API, the CLI and
// the background jobs use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Games
		"game_by_id":   "SELECT id::text, league_id, season, total_lives, rounds FROM " + config.GamesTable + " WHERE id = $1",
		"active_games": "SELECT id::text FROM " + config.GamesTable + " WHERE is_active ORDER BY id",

		// Participants
		"game_participants": "SELECT " + participantColumns + " FROM " + config.ParticipantsTable + " WHERE game_id = $1 ORDER BY id",
		"participant_by_id": "SELECT " + participantColumns + " FROM " + config.ParticipantsTable + " WHERE game_id = $1 AND id = $2",

		// Picks, oldest first so a later re-pick of a round overrides
		"game_picks": "SELECT p.participant_id::text, p.round_name, p.fixture_id, p.picked_team_id, p.picked_team_name FROM " +
			config.PicksTable + " p JOIN " + config.ParticipantsTable + " sp ON sp.id = p.participant_id" +
			" WHERE sp.game_id = $1 ORDER BY p.created_at, p.id",
		"participant_picks": "SELECT participant_id::text, round_name, fixture_id, picked_team_id, picked_team_name FROM " +
			config.PicksTable + " WHERE participant_id = $1 ORDER BY created_at, id",

		// Elimination writer. The is_eliminated guard keeps elimination
		// permanent even against a concurrent writer.
		"update_participant_status": "UPDATE " + config.ParticipantsTable +
			" SET lives_remaining = $2, is_eliminated = $3, eliminated_at_round = $4, updated_at = NOW()" +
			" WHERE id = $1 AND NOT is_eliminated",

		// Reminders
		"insert_reminder": "INSERT INTO " + config.RemindersTable +
			" (participant_id, game_id, round_name, send_at) VALUES ($1, $2, $3, $4)" +
			" ON CONFLICT (participant_id, round_name) DO NOTHING",
		"cleanup_reminders": "DELETE FROM " + config.RemindersTable + " WHERE send_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
