package survivor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/fixture"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

const defaultConcurrency = 4

// FixtureSource supplies round fixtures. Implementations must not fail:
// unavailable data is an empty slice.
type FixtureSource interface {
	Fixtures(ctx context.Context, leagueID, season int, roundName string) []provider.Fixture
}

// Engine replays pick histories against match results.
type Engine struct {
	source      FixtureSource
	now         func() time.Time
	loc         *time.Location
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the reference clock used to find the active round.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone in which "today" is determined.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithConcurrency bounds parallel fixture fetches and participant replays
// in batch evaluation.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading fixtures from src.
func NewEngine(src FixtureSource, opts ...Option) *Engine {
	e := &Engine{
		source:      src,
		now:         time.Now,
		loc:         time.UTC,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Location returns the time zone that defines "today".
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns the engine's reference date.
func (e *Engine) Today() round.Date {
	return round.DateOf(e.Now(), e.loc)
}

// ActiveRound returns the game's active round as of today.
func (e *Engine) ActiveRound(game Game) (round.Round, bool) {
	return round.ActiveRound(game.Rounds, e.Today())
}

// Concluded reports whether every scheduled round of the game has ended.
func (e *Engine) Concluded(game Game) bool {
	return round.Concluded(game.Rounds, e.Today())
}

// ComputeStatus replays one participant's picks as of today.
func (e *Engine) ComputeStatus(ctx context.Context, game Game, picks []Pick) Status {
	return e.ComputeStatusAsOf(ctx, game, picks, e.Today())
}

// ComputeStatusAsOf replays one participant's picks with asOf deciding the
// active round.
func (e *Engine) ComputeStatusAsOf(ctx context.Context, game Game, picks []Pick, asOf round.Date) Status {
	if !game.Valid() {
		return invalidStatus(game)
	}
	book := newRoundBook(e.source, game)
	return replay(ctx, game, picks, book, round.ActiveIndex(game.Rounds, asOf))
}

// ComputeStatusBatch replays every participant of a game as of today.
func (e *Engine) ComputeStatusBatch(ctx context.Context, game Game, picksByParticipant map[string][]Pick) map[string]Status {
	return e.ComputeStatusBatchAsOf(ctx, game, picksByParticipant, e.Today())
}

// ComputeStatusBatchAsOf replays every participant of a game. Each round's
// fixtures are fetched once for the whole batch; fetches run concurrently
// across rounds and participants replay in parallel, each in strict round
// order. Callers that also report the active round should pass the same
// asOf to keep one view of the calendar.
func (e *Engine) ComputeStatusBatchAsOf(ctx context.Context, game Game, picksByParticipant map[string][]Pick, asOf round.Date) map[string]Status {
	out := make(map[string]Status, len(picksByParticipant))
	if !game.Valid() {
		for id := range picksByParticipant {
			out[id] = invalidStatus(game)
		}
		return out
	}
	if len(picksByParticipant) == 0 {
		return out
	}

	start := time.Now()
	book := newRoundBook(e.source, game)
	book.prefetch(ctx, game.Rounds, e.concurrency)
	activeIdx := round.ActiveIndex(game.Rounds, asOf)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for id, picks := range picksByParticipant {
		g.Go(func() error {
			st := replay(ctx, game, picks, book, activeIdx)
			mu.Lock()
			out[id] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("Batch status computed",
		"game_id", game.ID, "participants", len(out), "rounds", len(game.Rounds),
		"duration", time.Since(start).Round(time.Millisecond))
	return out
}

// invalidStatus is returned for games that cannot be evaluated: nothing is
// evaluated and nobody is eliminated.
func invalidStatus(game Game) Status {
	return Status{
		LivesRemaining: max(game.TotalLives, 0),
		RoundResults:   []RoundResult{},
		Incomplete:     true,
	}
}

// replay is the life-tally state machine. It is sequential by construction:
// an elimination in round N stops evaluation of every later round.
func replay(ctx context.Context, game Game, picks []Pick, book *roundBook, activeIdx int) Status {
	st := Status{
		LivesRemaining: game.TotalLives,
		RoundResults:   make([]RoundResult, 0, len(game.Rounds)),
	}
	byRound := latestPicks(picks)

	for i, r := range game.Rounds {
		if st.IsEliminated {
			break
		}

		fixtures := book.get(ctx, r.Name)
		if len(fixtures) == 0 && (activeIdx < 0 || i <= activeIdx) {
			st.Incomplete = true
		}
		res := RoundResult{RoundName: r.Name, Outcome: OutcomePending}

		if pick, ok := byRound[r.Name]; ok {
			res.FixtureID = pick.FixtureID
			res.PickedTeamID = pick.PickedTeamID
			res.PickedTeamName = pick.PickedTeamName
			if f, found := fixture.Find(fixtures, pick.FixtureID); found {
				res.Outcome = outcomeOf(Evaluate(f, pick.PickedTeamID))
			}
		} else if roundOver(i, activeIdx, fixtures) {
			res.Outcome = OutcomeNoPick
		}

		if res.Outcome.CostsLife() {
			st.LivesRemaining--
			if st.LivesRemaining <= 0 {
				st.LivesRemaining = 0
				st.IsEliminated = true
				st.EliminatedAtRound = strPtr(r.Name)
			}
		}
		res.LivesAfter = st.LivesRemaining
		st.RoundResults = append(st.RoundResults, res)
	}
	return st
}

// roundOver reports whether an unpicked round can be penalized: it is before
// the active round or all its fixtures are final. A round with no fixture
// data is never over, since empty data may be a provider outage.
func roundOver(idx, activeIdx int, fixtures []provider.Fixture) bool {
	if len(fixtures) == 0 {
		return false
	}
	return (activeIdx >= 0 && idx < activeIdx) || fixture.AllFinished(fixtures)
}

// --------------------------------------------------------------------------
// roundBook: per-evaluation fixture memo
// --------------------------------------------------------------------------

// roundBook holds the fixtures of one evaluation run, keyed by round name.
// Each round is fetched at most once; concurrent readers of the same round
// wait for the single fetch. A book is created per call and discarded.
type roundBook struct {
	source   FixtureSource
	leagueID int
	season   int

	mu      sync.Mutex
	entries map[string]*bookEntry
}

type bookEntry struct {
	once     sync.Once
	fixtures []provider.Fixture
}

func newRoundBook(src FixtureSource, game Game) *roundBook {
	return &roundBook{
		source:   src,
		leagueID: game.LeagueID,
		season:   game.Season,
		entries:  make(map[string]*bookEntry, len(game.Rounds)),
	}
}

func (b *roundBook) get(ctx context.Context, roundName string) []provider.Fixture {
	b.mu.Lock()
	e, ok := b.entries[roundName]
	if !ok {
		e = &bookEntry{}
		b.entries[roundName] = e
	}
	b.mu.Unlock()

	e.once.Do(func() {
		e.fixtures = b.source.Fixtures(ctx, b.leagueID, b.season, roundName)
	})
	return e.fixtures
}

// prefetch loads every round concurrently, bounded by limit.
func (b *roundBook) prefetch(ctx context.Context, rounds []round.Round, limit int) {
	var g errgroup.Group
	g.SetLimit(limit)
	for _, r := range rounds {
		g.Go(func() error {
			b.get(ctx, r.Name)
			return nil
		})
	}
	_ = g.Wait()
}
