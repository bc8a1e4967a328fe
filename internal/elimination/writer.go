// Package elimination persists replayed survivor status. It recomputes every
// participant of every active game and writes back lives and elimination
// only where the stored row disagrees, so repeated runs over unchanged data
// write nothing.
package elimination

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/events"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

// Store is the persistence the writer needs. *store.Store satisfies it.
type Store interface {
	ActiveGameIDs(ctx context.Context) ([]string, error)
	Game(ctx context.Context, gameID string) (survivor.Game, error)
	Participants(ctx context.Context, gameID string) ([]store.Participant, error)
	GamePicks(ctx context.Context, gameID string) (map[string][]survivor.Pick, error)
	UpdateParticipantStatus(ctx context.Context, participantID string, st survivor.Status) (bool, error)
}

// StatusEngine computes statuses for a whole game. *survivor.Engine
// satisfies it.
type StatusEngine interface {
	ComputeStatusBatch(ctx context.Context, game survivor.Game, picksByParticipant map[string][]survivor.Pick) map[string]survivor.Status
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// RunOptions selects what a run touches.
type RunOptions struct {
	GameID  string // empty means every active game
	Workers int
	DryRun  bool
}

// Change is one participant whose stored status differs from the replay.
type Change struct {
	ParticipantID string
	LivesBefore   int
	LivesAfter    int
	Eliminated    bool
	EliminatedAt  string
}

// GameResult tracks one game's recomputation.
type GameResult struct {
	GameID       string
	Participants int
	Skipped      int // already eliminated in storage
	Held         int // lives increase withheld while fixture data is missing
	Invalid      bool
	Changed      int
	Updated      int
	Eliminated   int
	Changes      []Change
	Duration     time.Duration
	Errors       []string
}

// Success reports whether the game was processed without errors.
func (r *GameResult) Success() bool {
	return len(r.Errors) == 0
}

func (r *GameResult) addErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// RunResult aggregates a run over many games.
type RunResult struct {
	RunID          string
	DryRun         bool
	GamesFound     int
	GamesProcessed int
	GamesFailed    int
	GamesInvalid   int
	Changed        int
	Updated        int
	Eliminated     int
	Held           int
	Duration       time.Duration
	Errors         []string
	Games          []GameResult
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"run=%s found=%d processed=%d failed=%d invalid=%d changed=%d updated=%d eliminated=%d held=%d dry_run=%t dur=%s",
		r.RunID, r.GamesFound, r.GamesProcessed, r.GamesFailed, r.GamesInvalid,
		r.Changed, r.Updated, r.Eliminated, r.Held, r.DryRun,
		r.Duration.Round(time.Millisecond))
}

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer runs the elimination job.
type Writer struct {
	store     Store
	engine    StatusEngine
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	// One lock per game id so the scheduled sweep and listener-triggered
	// runs never recompute the same game at once.
	locks sync.Map
}

// NewWriter creates a writer. A nil publisher discards events.
func NewWriter(s Store, engine StatusEngine, publisher events.Publisher, logger *slog.Logger) *Writer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:     s,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Run recomputes the selected games on a pool of workers. A failure in one
// game is recorded and never stops the others.
func (w *Writer) Run(ctx context.Context, opts RunOptions) RunResult {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString(), DryRun: opts.DryRun}
	logger := w.logger.With("run_id", result.RunID)

	gameIDs := []string{opts.GameID}
	if opts.GameID == "" {
		ids, err := w.store.ActiveGameIDs(ctx)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			result.Duration = time.Since(start)
			return result
		}
		gameIDs = ids
	}

	result.GamesFound = len(gameIDs)
	if len(gameIDs) == 0 {
		logger.Info("No active games to evaluate")
		result.Duration = time.Since(start)
		return result
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(gameIDs) {
		workers = len(gameIDs)
	}

	ch := make(chan string, len(gameIDs))
	for _, id := range gameIDs {
		ch <- id
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gameID := range ch {
				gr := w.runGame(ctx, result.RunID, gameID, opts.DryRun)

				mu.Lock()
				result.Games = append(result.Games, gr)
				result.GamesProcessed++
				result.Changed += gr.Changed
				result.Updated += gr.Updated
				result.Eliminated += gr.Eliminated
				result.Held += gr.Held
				if gr.Invalid {
					result.GamesInvalid++
				}
				if !gr.Success() {
					result.GamesFailed++
					for _, e := range gr.Errors {
						result.Errors = append(result.Errors, fmt.Sprintf("game %s: %s", gameID, e))
					}
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	result.Duration = time.Since(start)

	logger.Info("Elimination run complete", "summary", result.Summary())
	return result
}

// RunGame recomputes and persists a single game.
func (w *Writer) RunGame(ctx context.Context, gameID string) GameResult {
	return w.runGame(ctx, uuid.NewString(), gameID, false)
}

// gameLock returns the mutex serializing runs of one game.
func (w *Writer) gameLock(gameID string) *sync.Mutex {
	mu, _ := w.locks.LoadOrStore(gameID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (w *Writer) runGame(ctx context.Context, runID, gameID string, dryRun bool) (result GameResult) {
	mu := w.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	result.GameID = gameID
	logger := w.logger.With("run_id", runID, "game_id", gameID)
	defer func() { result.Duration = time.Since(start) }()

	game, err := w.store.Game(ctx, gameID)
	if err != nil {
		result.addErrorf("load game: %v", err)
		logger.Error("Failed to load game", "error", err)
		return result
	}
	if !game.Valid() {
		// Nothing can be evaluated; stored statuses stay as they are.
		result.Invalid = true
		logger.Warn("Game configuration cannot be evaluated, skipping",
			"league_id", game.LeagueID, "season", game.Season,
			"total_lives", game.TotalLives, "rounds", len(game.Rounds))
		return result
	}
	participants, err := w.store.Participants(ctx, gameID)
	if err != nil {
		result.addErrorf("load participants: %v", err)
		logger.Error("Failed to load participants", "error", err)
		return result
	}
	picks, err := w.store.GamePicks(ctx, gameID)
	if err != nil {
		result.addErrorf("load picks: %v", err)
		logger.Error("Failed to load picks", "error", err)
		return result
	}

	result.Participants = len(participants)

	// Elimination never reverts, so stored eliminations are final.
	alive := make([]store.Participant, 0, len(participants))
	picksByParticipant := make(map[string][]survivor.Pick, len(participants))
	for _, p := range participants {
		if p.IsEliminated {
			result.Skipped++
			continue
		}
		alive = append(alive, p)
		picksByParticipant[p.ID] = picks[p.ID]
	}
	if len(alive) == 0 {
		return result
	}

	statuses := w.engine.ComputeStatusBatch(ctx, game, picksByParticipant)

	for _, p := range alive {
		st, ok := statuses[p.ID]
		if !ok || st.Equal(p.Stored()) {
			continue
		}
		// Missing fixture data can only hide losses. A replay over a gap
		// may confirm lost lives but never restores stored ones.
		if st.Incomplete && st.LivesRemaining > p.LivesRemaining {
			result.Held++
			logger.Debug("Holding status until fixture data returns",
				"participant_id", p.ID, "stored_lives", p.LivesRemaining, "replayed_lives", st.LivesRemaining)
			continue
		}

		result.Changed++
		change := Change{
			ParticipantID: p.ID,
			LivesBefore:   p.LivesRemaining,
			LivesAfter:    st.LivesRemaining,
			Eliminated:    st.IsEliminated,
			EliminatedAt:  st.EliminatedAt(),
		}
		result.Changes = append(result.Changes, change)
		if dryRun {
			continue
		}

		updated, err := w.store.UpdateParticipantStatus(ctx, p.ID, st)
		if err != nil {
			result.addErrorf("participant %s: %v", p.ID, err)
			logger.Error("Failed to write participant status", "participant_id", p.ID, "error", err)
			continue
		}
		if !updated {
			continue
		}
		result.Updated++
		if st.IsEliminated {
			result.Eliminated++
			logger.Info("Participant eliminated", "participant_id", p.ID, "round", st.EliminatedAt())
		}

		ev := events.StatusChanged{
			RunID:             runID,
			GameID:            gameID,
			ParticipantID:     p.ID,
			LivesBefore:       p.LivesRemaining,
			LivesRemaining:    st.LivesRemaining,
			IsEliminated:      st.IsEliminated,
			EliminatedAtRound: st.EliminatedAtRound,
			OccurredAt:        w.now().UTC(),
		}
		if err := w.publisher.PublishStatusChanged(ctx, ev); err != nil {
			logger.Warn("Failed to publish status change", "participant_id", p.ID, "error", err)
		}
	}

	logger.Info("Game evaluated",
		"participants", result.Participants, "skipped", result.Skipped,
		"changed", result.Changed, "updated", result.Updated,
		"eliminated", result.Eliminated, "held", result.Held, "dry_run", dryRun)
	return result
}
