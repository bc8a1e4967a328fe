// Command survivor is the Quiniela survivor operations CLI.
//
// Usage:
//
//	quiniela-survivor eliminations run --workers 4
//	quiniela-survivor eliminations run --game <uuid> --dry-run
//	quiniela-survivor status --game <uuid> [--participant <uuid>]
//	quiniela-survivor rounds active --game <uuid> --as-of 2025-03-01
//	quiniela-survivor rounds list --league 262 --season 2024
//	quiniela-survivor reminders run
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/cache"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/config"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/db"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/elimination"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/events"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/fixture"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/reminder"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "quiniela-survivor",
		Short:        "Quiniela survivor operations CLI",
		SilenceUsage: true,
	}

	root.AddCommand(eliminationsCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(roundsCmd())
	root.AddCommand(remindersCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// eliminations command
// --------------------------------------------------------------------------

func eliminationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eliminations",
		Short: "Recompute and persist participant lives and eliminations",
	}
	cmd.AddCommand(eliminationsRunCmd())
	return cmd
}

func eliminationsRunCmd() *cobra.Command {
	var (
		gameID  string
		workers int
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay every active game (or one game) and write changed statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvivor(func(ctx context.Context, app *app) error {
				if workers <= 0 {
					workers = app.cfg.EliminationWorkers
				}
				publisher := events.New(app.cfg.NATSURL, app.cfg.NATSToken, logger)
				defer publisher.Close()

				writer := elimination.NewWriter(app.store, app.engine, publisher, logger)
				result := writer.Run(ctx, elimination.RunOptions{GameID: gameID, Workers: workers, DryRun: dryRun})
				for _, g := range result.Games {
					for _, c := range g.Changes {
						logger.Info("Status change",
							"game_id", g.GameID, "participant_id", c.ParticipantID,
							"lives_before", c.LivesBefore, "lives_after", c.LivesAfter,
							"eliminated", c.Eliminated, "eliminated_at", c.EliminatedAt)
					}
				}
				for _, e := range result.Errors {
					logger.Error("elimination error", "error", e)
				}
				if result.GamesFailed > 0 {
					return fmt.Errorf("%d of %d games failed", result.GamesFailed, result.GamesFound)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game ID; empty = all active games")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent games (default ELIMINATION_WORKERS)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report changes without writing")
	return cmd
}

// --------------------------------------------------------------------------
// status command
// --------------------------------------------------------------------------

func statusCmd() *cobra.Command {
	var gameID, participantID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print replayed standings of a game, or one participant's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("--game is required")
			}
			return runSurvivor(func(ctx context.Context, app *app) error {
				game, err := app.store.Game(ctx, gameID)
				if err != nil {
					return err
				}

				if participantID != "" {
					if _, err := app.store.Participant(ctx, gameID, participantID); err != nil {
						return fmt.Errorf("participant %s: %w", participantID, err)
					}
					picks, err := app.store.ParticipantPicks(ctx, participantID)
					if err != nil {
						return err
					}
					return printJSON(app.engine.ComputeStatus(ctx, game, picks))
				}

				participants, err := app.store.Participants(ctx, gameID)
				if err != nil {
					return err
				}
				picks, err := app.store.GamePicks(ctx, gameID)
				if err != nil {
					return err
				}
				// Participants without picks still need a status.
				for _, p := range participants {
					if _, ok := picks[p.ID]; !ok {
						picks[p.ID] = nil
					}
				}
				statuses := app.engine.ComputeStatusBatch(ctx, game, picks)
				return printJSON(survivor.BuildStandings(game, statuses, app.engine.Concluded(game)))
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game ID")
	cmd.Flags().StringVar(&participantID, "participant", "", "Participant ID; empty = whole game")
	return cmd
}

// --------------------------------------------------------------------------
// rounds command
// --------------------------------------------------------------------------

func roundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Inspect round schedules",
	}
	cmd.AddCommand(roundsActiveCmd())
	cmd.AddCommand(roundsListCmd())
	return cmd
}

func roundsActiveCmd() *cobra.Command {
	var gameID, asOf string
	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the round open for picks in a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("--game is required")
			}
			return runSurvivor(func(ctx context.Context, app *app) error {
				date := app.engine.Today()
				if asOf != "" {
					d, err := round.ParseDate(asOf)
					if err != nil {
						return fmt.Errorf("--as-of: %w", err)
					}
					date = d
				}
				game, err := app.store.Game(ctx, gameID)
				if err != nil {
					return err
				}
				active, ok := round.ActiveRound(game.Rounds, date)
				if !ok {
					return fmt.Errorf("game %s has no scheduled rounds", gameID)
				}
				return printJSON(map[string]interface{}{
					"as_of":     date,
					"round":     active,
					"index":     round.ActiveIndex(game.Rounds, date),
					"concluded": round.Concluded(game.Rounds, date),
				})
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game ID")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (default today in GAME_TIMEZONE)")
	return cmd
}

func roundsListCmd() *cobra.Command {
	var leagueID, season int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a league season's rounds from the fixture provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leagueID <= 0 || season <= 0 {
				return fmt.Errorf("--league and --season are required")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			client, err := fixture.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			rounds, err := client.Rounds(ctx, leagueID, season)
			if err != nil {
				return err
			}
			logger.Info("Rounds fetched",
				"provider", cfg.FixtureProvider, "league_id", leagueID, "season", season,
				"rounds", len(rounds), "duration", time.Since(start).Round(time.Millisecond))
			return printJSON(rounds)
		},
	}
	cmd.Flags().IntVar(&leagueID, "league", 0, "Provider league ID")
	cmd.Flags().IntVar(&season, "season", 0, "Season year")
	return cmd
}

// --------------------------------------------------------------------------
// reminders command
// --------------------------------------------------------------------------

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Plan pick reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Schedule reminders for participants without a pick in the upcoming round",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvivor(func(ctx context.Context, app *app) error {
				planner := reminder.NewPlanner(app.store, app.fixtures, app.engine,
					app.cfg.GameLocation, app.cfg.ReminderWindow, logger)
				result := planner.Run(ctx)
				for _, e := range result.Errors {
					logger.Error("reminder error", "error", e)
				}
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

type app struct {
	cfg      *config.Config
	store    *store.Store
	fixtures *fixture.Source
	engine   *survivor.Engine
}

// runSurvivor handles config loading, DB connection, provider wiring and
// context cancellation.
func runSurvivor(fn func(ctx context.Context, app *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	client, err := fixture.NewClient(cfg, logger)
	if err != nil {
		return err
	}
	// One process, one run: the cache only dedupes fetches within it.
	c := cache.New(cfg.CacheEnabled)
	defer c.Close()

	fixtures := fixture.NewSource(client, c, cfg.FixtureCacheTTL, cfg.ProviderTimeout, logger)
	return fn(ctx, &app{
		cfg:      cfg,
		store:    store.New(pool.Pool),
		fixtures: fixtures,
		engine: survivor.NewEngine(fixtures,
			survivor.WithLocation(cfg.GameLocation),
			survivor.WithConcurrency(cfg.EliminationWorkers),
			survivor.WithLogger(logger)),
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
