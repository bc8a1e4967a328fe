package survivor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

// fakeSource serves fixed fixtures per round and counts fetches.
type fakeSource struct {
	mu     sync.Mutex
	rounds map[string][]provider.Fixture
	calls  map[string]int
}

func newFakeSource(rounds map[string][]provider.Fixture) *fakeSource {
	return &fakeSource{rounds: rounds, calls: map[string]int{}}
}

func (f *fakeSource) Fixtures(ctx context.Context, leagueID, season int, roundName string) []provider.Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[roundName]++
	return f.rounds[roundName]
}

func result(id, home, away string, homeGoals, awayGoals int) provider.Fixture {
	return provider.Fixture{
		ID:        id,
		Home:      provider.Team{ID: home},
		Away:      provider.Team{ID: away},
		Status:    provider.StatusFinished,
		HomeGoals: provider.IntPtr(homeGoals),
		AwayGoals: provider.IntPtr(awayGoals),
	}
}

func upcoming(id, home, away string) provider.Fixture {
	return provider.Fixture{
		ID:     id,
		Home:   provider.Team{ID: home},
		Away:   provider.Team{ID: away},
		Status: provider.StatusNotStarted,
	}
}

func scheduled(name, date string) round.Round {
	return round.Round{Name: name, Dates: []round.Date{round.MustParseDate(date)}}
}

// Three weekly rounds: team 10 beats 20, 10 draws 30, 30 beats 20.
func testGame(lives int) Game {
	return Game{
		ID:         "g1",
		LeagueID:   39,
		Season:     2024,
		TotalLives: lives,
		Rounds: []round.Round{
			scheduled("R1", "2024-01-01"),
			scheduled("R2", "2024-01-08"),
			scheduled("R3", "2024-01-15"),
		},
	}
}

func finishedRounds() map[string][]provider.Fixture {
	return map[string][]provider.Fixture{
		"R1": {result("1", "10", "20", 2, 0)},
		"R2": {result("2", "10", "30", 1, 1)},
		"R3": {result("3", "20", "30", 0, 1)},
	}
}

func clockAt(date string) Option {
	d := round.MustParseDate(date)
	at := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
	return WithClock(func() time.Time { return at })
}

func pick(participant, roundName, fixtureID, teamID string) Pick {
	return Pick{ParticipantID: participant, RoundName: roundName, FixtureID: fixtureID, PickedTeamID: teamID}
}

func outcomes(st Status) []Outcome {
	out := make([]Outcome, len(st.RoundResults))
	for i, r := range st.RoundResults {
		out[i] = r.Outcome
	}
	return out
}

// --------------------------------------------------------------------------
// ComputeStatus
// --------------------------------------------------------------------------

func TestLossDrawNoPickScenario(t *testing.T) {
	engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
	picks := []Pick{
		pick("p1", "R1", "1", "20"),
		pick("p1", "R2", "2", "30"),
	}

	st := engine.ComputeStatus(context.Background(), testGame(2), picks)

	if st.LivesRemaining != 0 || !st.IsEliminated || st.EliminatedAt() != "R3" {
		t.Fatalf("status = {%d, %v, %q}, want {0, true, \"R3\"}",
			st.LivesRemaining, st.IsEliminated, st.EliminatedAt())
	}
	want := []Outcome{OutcomeLoss, OutcomeDraw, OutcomeNoPick}
	if got := outcomes(st); !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes = %v, want %v", got, want)
	}
	if lives := st.RoundResults[1].LivesAfter; lives != 1 {
		t.Fatalf("lives after R2 = %d, want 1", lives)
	}
}

func TestDrawsNeverEliminate(t *testing.T) {
	src := newFakeSource(map[string][]provider.Fixture{
		"R1": {result("1", "10", "20", 0, 0)},
		"R2": {result("2", "10", "30", 2, 2)},
		"R3": {result("3", "20", "30", 1, 1)},
	})
	engine := NewEngine(src, clockAt("2024-02-01"))
	picks := []Pick{
		pick("p1", "R1", "1", "10"),
		pick("p1", "R2", "2", "30"),
		pick("p1", "R3", "3", "20"),
	}

	st := engine.ComputeStatus(context.Background(), testGame(1), picks)
	if st.IsEliminated || st.LivesRemaining != 1 {
		t.Fatalf("status = %+v, want alive with 1 life", st)
	}
	for _, r := range st.RoundResults {
		if r.Outcome != OutcomeDraw {
			t.Fatalf("round %s outcome = %s, want draw", r.RoundName, r.Outcome)
		}
	}
}

func TestZeroPicksEliminateAtMinRoundsLives(t *testing.T) {
	tests := []struct {
		lives     int
		wantRound string
		wantLives int
	}{
		{lives: 1, wantRound: "R1"},
		{lives: 2, wantRound: "R2"},
		{lives: 3, wantRound: "R3"},
		{lives: 4, wantLives: 1},
		{lives: 5, wantLives: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("lives=%d", tt.lives), func(t *testing.T) {
			engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
			st := engine.ComputeStatus(context.Background(), testGame(tt.lives), nil)

			if st.EliminatedAt() != tt.wantRound {
				t.Fatalf("eliminated at %q, want %q", st.EliminatedAt(), tt.wantRound)
			}
			if st.IsEliminated != (tt.wantRound != "") {
				t.Fatalf("IsEliminated = %v", st.IsEliminated)
			}
			if st.LivesRemaining != tt.wantLives {
				t.Fatalf("lives = %d, want %d", st.LivesRemaining, tt.wantLives)
			}
		})
	}
}

func TestEliminationStopsReplay(t *testing.T) {
	engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
	st := engine.ComputeStatus(context.Background(), testGame(1), []Pick{pick("p1", "R1", "1", "20")})

	if len(st.RoundResults) != 1 {
		t.Fatalf("round results = %d, want 1", len(st.RoundResults))
	}
	if st.EliminatedAt() != "R1" {
		t.Fatalf("eliminated at %q, want R1", st.EliminatedAt())
	}
}

func TestUnknownFixturePending(t *testing.T) {
	engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
	picks := []Pick{
		pick("p1", "R1", "999", "10"),
		pick("p1", "R2", "2", "10"),
		pick("p1", "R3", "3", "30"),
	}

	st := engine.ComputeStatus(context.Background(), testGame(1), picks)
	if st.IsEliminated || st.LivesRemaining != 1 {
		t.Fatalf("status = %+v, want alive", st)
	}
	if st.RoundResults[0].Outcome != OutcomePending {
		t.Fatalf("R1 outcome = %s, want pending", st.RoundResults[0].Outcome)
	}
}

func TestProviderOutageNeverEliminates(t *testing.T) {
	engine := NewEngine(newFakeSource(nil), clockAt("2024-02-01"))
	st := engine.ComputeStatus(context.Background(), testGame(1), []Pick{pick("p1", "R1", "1", "20")})

	if st.IsEliminated || st.LivesRemaining != 1 {
		t.Fatalf("status = %+v, want alive", st)
	}
	for _, r := range st.RoundResults {
		if r.Outcome != OutcomePending {
			t.Fatalf("round %s outcome = %s, want pending", r.RoundName, r.Outcome)
		}
	}
}

func TestNoLookahead(t *testing.T) {
	src := newFakeSource(map[string][]provider.Fixture{
		"R1": {result("1", "10", "20", 2, 0)},
		"R2": {upcoming("2", "10", "30")},
		"R3": {upcoming("3", "20", "30")},
	})
	engine := NewEngine(src, clockAt("2024-01-08"))

	st := engine.ComputeStatus(context.Background(), testGame(3), nil)
	want := []Outcome{OutcomeNoPick, OutcomePending, OutcomePending}
	if got := outcomes(st); !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes = %v, want %v", got, want)
	}
	if st.LivesRemaining != 2 {
		t.Fatalf("lives = %d, want 2", st.LivesRemaining)
	}
}

func TestActiveRoundPenalizedOnceFinished(t *testing.T) {
	src := newFakeSource(map[string][]provider.Fixture{
		"R1": {result("1", "10", "20", 2, 0)},
		"R2": {result("2", "10", "30", 1, 1)},
		"R3": {upcoming("3", "20", "30")},
	})
	// R2 is still the active round by date, but every match is final.
	engine := NewEngine(src, clockAt("2024-01-08"))

	st := engine.ComputeStatus(context.Background(), testGame(3), []Pick{pick("p1", "R1", "1", "10")})
	want := []Outcome{OutcomeWin, OutcomeNoPick, OutcomePending}
	if got := outcomes(st); !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes = %v, want %v", got, want)
	}
}

func TestDuplicatePickLastWins(t *testing.T) {
	engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
	picks := []Pick{
		pick("p1", "R1", "1", "20"),
		pick("p1", "R1", "1", "10"),
	}
	st := engine.ComputeStatus(context.Background(), testGame(3), picks)
	if st.RoundResults[0].Outcome != OutcomeWin {
		t.Fatalf("R1 outcome = %s, want win", st.RoundResults[0].Outcome)
	}
}

func TestTeamIDsNormalized(t *testing.T) {
	src := newFakeSource(map[string][]provider.Fixture{
		"R1": {result("A1", "Team-X", "team-y", 3, 1)},
	})
	game := Game{ID: "g", LeagueID: 1, Season: 2024, TotalLives: 1, Rounds: []round.Round{scheduled("R1", "2024-01-01")}}
	engine := NewEngine(src, clockAt("2024-02-01"))

	st := engine.ComputeStatus(context.Background(), game, []Pick{pick("p1", "R1", " a1 ", "team-x ")})
	if st.RoundResults[0].Outcome != OutcomeWin {
		t.Fatalf("outcome = %s, want win", st.RoundResults[0].Outcome)
	}
}

func TestInvalidGame(t *testing.T) {
	valid := testGame(3)
	tests := []struct {
		name      string
		mutate    func(g *Game)
		wantLives int
	}{
		{name: "no rounds", mutate: func(g *Game) { g.Rounds = nil }, wantLives: 3},
		{name: "no lives", mutate: func(g *Game) { g.TotalLives = 0 }, wantLives: 0},
		{name: "negative lives", mutate: func(g *Game) { g.TotalLives = -2 }, wantLives: 0},
		{name: "no league", mutate: func(g *Game) { g.LeagueID = 0 }, wantLives: 3},
		{name: "no season", mutate: func(g *Game) { g.Season = 0 }, wantLives: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			src := newFakeSource(finishedRounds())
			engine := NewEngine(src, clockAt("2024-02-01"))

			st := engine.ComputeStatus(context.Background(), g, nil)
			if st.IsEliminated || st.LivesRemaining != tt.wantLives || len(st.RoundResults) != 0 {
				t.Fatalf("status = %+v, want %d lives and no rounds", st, tt.wantLives)
			}
			if len(src.calls) != 0 {
				t.Fatalf("fetched %v for invalid game", src.calls)
			}
		})
	}
}

func TestComputeStatusIdempotent(t *testing.T) {
	engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
	picks := []Pick{pick("p1", "R1", "1", "20"), pick("p1", "R2", "2", "10")}

	first := engine.ComputeStatus(context.Background(), testGame(3), picks)
	second := engine.ComputeStatus(context.Background(), testGame(3), picks)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second run differs:\n%+v\n%+v", first, second)
	}
}

// --------------------------------------------------------------------------
// ComputeStatusBatch
// --------------------------------------------------------------------------

func batchPicks() map[string][]Pick {
	return map[string][]Pick{
		"winner":  {pick("winner", "R1", "1", "10"), pick("winner", "R2", "2", "10"), pick("winner", "R3", "3", "30")},
		"loser":   {pick("loser", "R1", "1", "20"), pick("loser", "R2", "2", "10"), pick("loser", "R3", "3", "20")},
		"idle":    nil,
		"missing": {pick("missing", "R1", "404", "10")},
		"early":   {pick("early", "R1", "1", "20")},
	}
}

func TestBatchMatchesSingle(t *testing.T) {
	for _, lives := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("lives=%d", lives), func(t *testing.T) {
			engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"), WithConcurrency(3))
			game := testGame(lives)
			picks := batchPicks()

			batch := engine.ComputeStatusBatch(context.Background(), game, picks)
			if len(batch) != len(picks) {
				t.Fatalf("batch size = %d, want %d", len(batch), len(picks))
			}
			for id, p := range picks {
				single := engine.ComputeStatus(context.Background(), game, p)
				if !reflect.DeepEqual(batch[id], single) {
					t.Fatalf("%s: batch %+v != single %+v", id, batch[id], single)
				}
			}
		})
	}
}

func TestBatchFetchesEachRoundOnce(t *testing.T) {
	src := newFakeSource(finishedRounds())
	engine := NewEngine(src, clockAt("2024-02-01"))

	engine.ComputeStatusBatch(context.Background(), testGame(3), batchPicks())
	for _, name := range []string{"R1", "R2", "R3"} {
		if src.calls[name] != 1 {
			t.Fatalf("round %s fetched %d times, want 1", name, src.calls[name])
		}
	}
}

func TestBatchOutageKeepsEveryoneAlive(t *testing.T) {
	engine := NewEngine(newFakeSource(nil), clockAt("2024-02-01"))
	for id, st := range engine.ComputeStatusBatch(context.Background(), testGame(1), batchPicks()) {
		if st.IsEliminated || st.LivesRemaining != 1 {
			t.Fatalf("%s: status = %+v, want alive", id, st)
		}
	}
}

func TestLifeTallyInvariants(t *testing.T) {
	for _, lives := range []int{1, 2, 3, 4} {
		engine := NewEngine(newFakeSource(finishedRounds()), clockAt("2024-02-01"))
		for id, st := range engine.ComputeStatusBatch(context.Background(), testGame(lives), batchPicks()) {
			if st.LivesRemaining < 0 || st.LivesRemaining > lives {
				t.Fatalf("%s: lives %d outside [0, %d]", id, st.LivesRemaining, lives)
			}
			if st.IsEliminated != (st.LivesRemaining == 0) {
				t.Fatalf("%s: eliminated=%v with %d lives", id, st.IsEliminated, st.LivesRemaining)
			}
			prev := lives
			for i, r := range st.RoundResults {
				if r.LivesAfter > prev {
					t.Fatalf("%s: lives rose in %s", id, r.RoundName)
				}
				if r.LivesAfter == 0 && i != len(st.RoundResults)-1 {
					t.Fatalf("%s: rounds evaluated after elimination", id)
				}
				if r.Outcome == OutcomeDraw && r.LivesAfter != prev {
					t.Fatalf("%s: draw cost a life in %s", id, r.RoundName)
				}
				prev = r.LivesAfter
			}
		}
	}
}

func TestBatchInvalidGame(t *testing.T) {
	src := newFakeSource(finishedRounds())
	engine := NewEngine(src, clockAt("2024-02-01"))
	game := testGame(2)
	game.Rounds = nil

	out := engine.ComputeStatusBatch(context.Background(), game, batchPicks())
	for id, st := range out {
		if st.LivesRemaining != 2 || st.IsEliminated {
			t.Fatalf("%s: status = %+v", id, st)
		}
	}
	if len(out) != len(batchPicks()) {
		t.Fatalf("batch size = %d", len(out))
	}
}

func TestIncompleteMarksDataGaps(t *testing.T) {
	withoutR3 := finishedRounds()
	delete(withoutR3, "R3")
	withoutR1 := finishedRounds()
	delete(withoutR1, "R1")

	noRounds := testGame(2)
	noRounds.Rounds = nil

	tests := []struct {
		name   string
		rounds map[string][]provider.Fixture
		asOf   string
		game   Game
		want   bool
	}{
		{name: "all data", rounds: finishedRounds(), asOf: "2024-02-01", game: testGame(2)},
		{name: "outage", rounds: nil, asOf: "2024-02-01", game: testGame(2), want: true},
		{name: "past round missing", rounds: withoutR1, asOf: "2024-02-01", game: testGame(2), want: true},
		{name: "future round unpublished", rounds: withoutR3, asOf: "2024-01-08", game: testGame(2)},
		{name: "invalid game", rounds: finishedRounds(), asOf: "2024-02-01", game: noRounds, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(newFakeSource(tt.rounds), clockAt(tt.asOf))
			st := engine.ComputeStatus(context.Background(), tt.game, []Pick{pick("p1", "R1", "1", "10")})
			if st.Incomplete != tt.want {
				t.Fatalf("incomplete = %v, want %v (%+v)", st.Incomplete, tt.want, st)
			}
		})
	}
}

func TestComputeStatusAsOfIgnoresClock(t *testing.T) {
	src := newFakeSource(map[string][]provider.Fixture{
		"R1": {result("1", "10", "20", 2, 0)},
		"R2": {upcoming("2", "10", "30")},
		"R3": {upcoming("3", "20", "30")},
	})
	// The clock says the season is over; asOf pins it to R2's week.
	engine := NewEngine(src, clockAt("2024-03-01"))

	st := engine.ComputeStatusAsOf(context.Background(), testGame(3), nil, round.MustParseDate("2024-01-08"))
	want := []Outcome{OutcomeNoPick, OutcomePending, OutcomePending}
	if got := outcomes(st); !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes = %v, want %v", got, want)
	}
}
