package elimination

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/events"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeStore struct {
	mu           sync.Mutex
	games        map[string]survivor.Game
	gameErr      map[string]error
	participants map[string][]store.Participant
	picks        map[string]map[string][]survivor.Pick
	updateErr    error
	writes       int
}

func (s *fakeStore) ActiveGameIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range s.games {
		ids = append(ids, id)
	}
	for id := range s.gameErr {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) Game(ctx context.Context, gameID string) (survivor.Game, error) {
	if err := s.gameErr[gameID]; err != nil {
		return survivor.Game{}, err
	}
	g, ok := s.games[gameID]
	if !ok {
		return survivor.Game{}, store.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) Participants(ctx context.Context, gameID string) ([]store.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Participant(nil), s.participants[gameID]...), nil
}

func (s *fakeStore) GamePicks(ctx context.Context, gameID string) (map[string][]survivor.Pick, error) {
	return s.picks[gameID], nil
}

func (s *fakeStore) UpdateParticipantStatus(ctx context.Context, participantID string, st survivor.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return false, s.updateErr
	}
	for gameID, ps := range s.participants {
		for i, p := range ps {
			if p.ID != participantID || p.IsEliminated {
				continue
			}
			ps[i].LivesRemaining = st.LivesRemaining
			ps[i].IsEliminated = st.IsEliminated
			ps[i].EliminatedAtRound = st.EliminatedAtRound
			s.participants[gameID] = ps
			s.writes++
			return true, nil
		}
	}
	return false, nil
}

type fakeSource map[string][]provider.Fixture

func (f fakeSource) Fixtures(ctx context.Context, leagueID, season int, roundName string) []provider.Fixture {
	return f[roundName]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, ev events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() {}

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

func finished(id, home, away string, hg, ag int) provider.Fixture {
	return provider.Fixture{
		ID: id, Home: provider.Team{ID: home}, Away: provider.Team{ID: away},
		Status: provider.StatusFinished, HomeGoals: provider.IntPtr(hg), AwayGoals: provider.IntPtr(ag),
	}
}

func testEngine() *survivor.Engine {
	src := fakeSource{
		"R1": {finished("1", "10", "20", 2, 0)},
		"R2": {finished("2", "10", "30", 0, 3)},
	}
	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	return survivor.NewEngine(src, survivor.WithClock(func() time.Time { return at }))
}

func testGame(id string) survivor.Game {
	return survivor.Game{
		ID: id, LeagueID: 39, Season: 2024, TotalLives: 2,
		Rounds: []round.Round{
			{Name: "R1", Dates: []round.Date{round.MustParseDate("2024-01-01")}},
			{Name: "R2", Dates: []round.Date{round.MustParseDate("2024-01-08")}},
		},
	}
}

func participant(id, gameID string, lives int) store.Participant {
	return store.Participant{ID: id, GameID: gameID, LivesRemaining: lives}
}

func newTestStore() *fakeStore {
	return &fakeStore{
		games: map[string]survivor.Game{"g1": testGame("g1")},
		participants: map[string][]store.Participant{
			"g1": {
				participant("safe", "g1", 2),
				participant("lost-one", "g1", 2),
				participant("idle", "g1", 2),
			},
		},
		picks: map[string]map[string][]survivor.Pick{
			"g1": {
				"safe": {
					{ParticipantID: "safe", RoundName: "R1", FixtureID: "1", PickedTeamID: "10"},
					{ParticipantID: "safe", RoundName: "R2", FixtureID: "2", PickedTeamID: "30"},
				},
				"lost-one": {
					{ParticipantID: "lost-one", RoundName: "R1", FixtureID: "1", PickedTeamID: "20"},
					{ParticipantID: "lost-one", RoundName: "R2", FixtureID: "2", PickedTeamID: "30"},
				},
			},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestRunWritesChangesOnce(t *testing.T) {
	s := newTestStore()
	pub := &recordingPublisher{}
	w := NewWriter(s, testEngine(), pub, quietLogger())

	first := w.Run(context.Background(), RunOptions{Workers: 2})
	if first.GamesProcessed != 1 || first.GamesFailed != 0 {
		t.Fatalf("first run: %s, errors %v", first.Summary(), first.Errors)
	}
	// lost-one drops to 1 life; idle misses both rounds and is out at R2.
	if first.Updated != 2 || first.Eliminated != 1 {
		t.Fatalf("first run updated=%d eliminated=%d, want 2 and 1", first.Updated, first.Eliminated)
	}
	if len(pub.events) != 2 {
		t.Fatalf("events = %d, want 2", len(pub.events))
	}

	idle := s.participants["g1"][2]
	if !idle.IsEliminated || idle.LivesRemaining != 0 || *idle.EliminatedAtRound != "R2" {
		t.Fatalf("idle = %+v", idle)
	}

	second := w.Run(context.Background(), RunOptions{Workers: 2})
	if second.Changed != 0 || second.Updated != 0 {
		t.Fatalf("second run changed=%d updated=%d, want 0", second.Changed, second.Updated)
	}
	if s.writes != 2 {
		t.Fatalf("store writes = %d, want 2", s.writes)
	}
}

func TestRunIsolatesFailingGame(t *testing.T) {
	s := newTestStore()
	s.gameErr = map[string]error{"broken": errors.New("connection reset")}
	w := NewWriter(s, testEngine(), nil, quietLogger())

	res := w.Run(context.Background(), RunOptions{Workers: 1})
	if res.GamesFound != 2 || res.GamesProcessed != 2 {
		t.Fatalf("summary = %s", res.Summary())
	}
	if res.GamesFailed != 1 || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "broken") {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Updated != 2 {
		t.Fatalf("healthy game updated = %d, want 2", res.Updated)
	}
}

func TestRunSkipsStoredEliminations(t *testing.T) {
	s := newTestStore()
	at := "R1"
	// Stored as eliminated even though a replay would keep them alive.
	s.participants["g1"][0] = store.Participant{ID: "safe", GameID: "g1", IsEliminated: true, EliminatedAtRound: &at}
	w := NewWriter(s, testEngine(), nil, quietLogger())

	gr := w.RunGame(context.Background(), "g1")
	if gr.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", gr.Skipped)
	}
	safe := s.participants["g1"][0]
	if !safe.IsEliminated || *safe.EliminatedAtRound != "R1" {
		t.Fatalf("eliminated participant was revived: %+v", safe)
	}
}

func TestRunDryRun(t *testing.T) {
	s := newTestStore()
	pub := &recordingPublisher{}
	w := NewWriter(s, testEngine(), pub, quietLogger())

	res := w.Run(context.Background(), RunOptions{GameID: "g1", DryRun: true})
	if res.Changed != 2 || res.Updated != 0 {
		t.Fatalf("dry run changed=%d updated=%d", res.Changed, res.Updated)
	}
	if s.writes != 0 || len(pub.events) != 0 {
		t.Fatalf("dry run wrote %d rows and %d events", s.writes, len(pub.events))
	}
	if len(res.Games) != 1 || len(res.Games[0].Changes) != 2 {
		t.Fatalf("games = %+v", res.Games)
	}
}

func TestRunGameWriteFailure(t *testing.T) {
	s := newTestStore()
	s.updateErr = errors.New("deadlock detected")
	w := NewWriter(s, testEngine(), nil, quietLogger())

	gr := w.RunGame(context.Background(), "g1")
	if gr.Success() || len(gr.Errors) != 2 {
		t.Fatalf("errors = %v, want one per failed write", gr.Errors)
	}
	if gr.Updated != 0 {
		t.Fatalf("updated = %d", gr.Updated)
	}
}

func TestRunGameUnknown(t *testing.T) {
	w := NewWriter(newTestStore(), testEngine(), nil, quietLogger())
	gr := w.RunGame(context.Background(), "nope")
	if gr.Success() || !strings.Contains(gr.Errors[0], store.ErrNotFound.Error()) {
		t.Fatalf("errors = %v", gr.Errors)
	}
}

func TestOutageNeverRestoresLives(t *testing.T) {
	s := newTestStore()
	// lost-one already lost R1 in an earlier run.
	s.participants["g1"][1].LivesRemaining = 1
	pub := &recordingPublisher{}
	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	engine := survivor.NewEngine(fakeSource{}, survivor.WithClock(func() time.Time { return at }))
	w := NewWriter(s, engine, pub, quietLogger())

	res := w.Run(context.Background(), RunOptions{GameID: "g1"})
	if res.Updated != 0 || s.writes != 0 || len(pub.events) != 0 {
		t.Fatalf("outage wrote %d rows and %d events: %s", s.writes, len(pub.events), res.Summary())
	}
	if res.Held != 1 {
		t.Fatalf("held = %d, want 1", res.Held)
	}
	if lives := s.participants["g1"][1].LivesRemaining; lives != 1 {
		t.Fatalf("lost-one lives = %d, want stored 1 kept", lives)
	}
}

func TestPartialOutageStillConfirmsLosses(t *testing.T) {
	s := newTestStore()
	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	// R2 results are unavailable; R1 is final.
	src := fakeSource{"R1": {finished("1", "10", "20", 2, 0)}}
	w := NewWriter(s, survivor.NewEngine(src, survivor.WithClock(func() time.Time { return at })), nil, quietLogger())

	res := w.RunGame(context.Background(), "g1")
	if res.Updated != 2 || res.Held != 0 || res.Eliminated != 0 {
		t.Fatalf("updated=%d held=%d eliminated=%d, want 2, 0, 0", res.Updated, res.Held, res.Eliminated)
	}
	for _, i := range []int{1, 2} {
		p := s.participants["g1"][i]
		if p.LivesRemaining != 1 || p.IsEliminated {
			t.Fatalf("%s = %+v, want 1 life", p.ID, p)
		}
	}
}

func TestInvalidGameLeavesStoredStatus(t *testing.T) {
	s := newTestStore()
	g := s.games["g1"]
	g.Rounds = nil
	s.games["g1"] = g
	s.participants["g1"][1].LivesRemaining = 1
	w := NewWriter(s, testEngine(), nil, quietLogger())

	res := w.Run(context.Background(), RunOptions{})
	if res.GamesInvalid != 1 || res.GamesFailed != 0 {
		t.Fatalf("summary = %s", res.Summary())
	}
	if s.writes != 0 || s.participants["g1"][1].LivesRemaining != 1 {
		t.Fatalf("invalid game wrote %d rows", s.writes)
	}
}

// trackingEngine records how many evaluations of a game overlap.
type trackingEngine struct {
	inner *survivor.Engine

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (e *trackingEngine) ComputeStatusBatch(ctx context.Context, game survivor.Game, picks map[string][]survivor.Pick) map[string]survivor.Status {
	e.mu.Lock()
	e.inFlight++
	e.peak = max(e.peak, e.inFlight)
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	time.Sleep(5 * time.Millisecond)
	return e.inner.ComputeStatusBatch(ctx, game, picks)
}

func TestSweepAndTriggeredRunsAreSerialized(t *testing.T) {
	s := newTestStore()
	pub := &recordingPublisher{}
	engine := &trackingEngine{inner: testEngine()}
	w := NewWriter(s, engine, pub, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.RunGame(context.Background(), "g1")
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(context.Background(), RunOptions{Workers: 2})
	}()
	wg.Wait()

	if engine.peak != 1 {
		t.Fatalf("%d evaluations of g1 overlapped", engine.peak)
	}
	if s.writes != 2 || len(pub.events) != 2 {
		t.Fatalf("writes=%d events=%d, want each change once", s.writes, len(pub.events))
	}
}
