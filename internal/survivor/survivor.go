// Package survivor computes participant status in survivor (attrition)
// pools. Each round every living participant picks one team; a win or draw
// survives, a loss or a missed pick costs a life, and a participant with no
// lives left is eliminated for good.
//
// Status is never read from storage as ground truth. It is replayed from the
// pick history and upstream match results on every evaluation, by both the
// read path and the elimination job, so the two cannot diverge.
package survivor

import (
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Outcome classifies one participant's round.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeDraw    Outcome = "draw"
	OutcomeLoss    Outcome = "loss"
	OutcomeNoPick  Outcome = "no_pick"
	OutcomePending Outcome = "pending"
)

// Survived reports whether the outcome keeps the participant's lives intact.
func (o Outcome) Survived() bool {
	return o == OutcomeWin || o == OutcomeDraw
}

// CostsLife reports whether the outcome removes a life.
func (o Outcome) CostsLife() bool {
	return o == OutcomeLoss || o == OutcomeNoPick
}

// Pick is a participant's team selection for one round.
type Pick struct {
	ParticipantID  string  `json:"participant_id"`
	RoundName      string  `json:"round_name"`
	FixtureID      string  `json:"fixture_id"`
	PickedTeamID   string  `json:"picked_team_id"`
	PickedTeamName *string `json:"picked_team_name,omitempty"`
}

// TeamName returns the picked team's name, or "" when it was not recorded.
func (p Pick) TeamName() string {
	if p.PickedTeamName == nil {
		return ""
	}
	return *p.PickedTeamName
}

// Game is the configuration a status computation needs.
type Game struct {
	ID         string        `json:"id"`
	LeagueID   int           `json:"league_id"`
	Season     int           `json:"season"`
	TotalLives int           `json:"total_lives"`
	Rounds     []round.Round `json:"rounds"`
}

// Valid reports whether the game can be evaluated at all.
func (g Game) Valid() bool {
	return g.LeagueID > 0 && g.Season > 0 && g.TotalLives > 0 && len(g.Rounds) > 0
}

// RoundResult is the derived outcome of one round for one participant.
type RoundResult struct {
	RoundName      string  `json:"round_name"`
	Outcome        Outcome `json:"outcome"`
	FixtureID      string  `json:"fixture_id,omitempty"`
	PickedTeamID   string  `json:"picked_team_id,omitempty"`
	PickedTeamName *string `json:"picked_team_name,omitempty"`
	LivesAfter     int     `json:"lives_after"`
}

// Status is a participant's replayed survivor state.
type Status struct {
	LivesRemaining    int           `json:"lives_remaining"`
	IsEliminated      bool          `json:"is_eliminated"`
	EliminatedAtRound *string       `json:"eliminated_at_round"`
	RoundResults      []RoundResult `json:"round_results"`

	// Incomplete is set when a round up to the active one returned no
	// fixture data, or the game could not be evaluated at all. Lives are
	// then an upper bound, not a settled count.
	Incomplete bool `json:"incomplete,omitempty"`
}

// EliminatedAt returns the elimination round name, or "".
func (s Status) EliminatedAt() string {
	if s.EliminatedAtRound == nil {
		return ""
	}
	return *s.EliminatedAtRound
}

// Equal compares the persisted fields of two statuses: lives, elimination
// flag and elimination round. Round results are derived and ignored.
func (s Status) Equal(other Status) bool {
	return s.LivesRemaining == other.LivesRemaining &&
		s.IsEliminated == other.IsEliminated &&
		s.EliminatedAt() == other.EliminatedAt()
}

// latestPicks indexes picks by round. A re-pick of the same round overwrites
// the earlier one.
func latestPicks(picks []Pick) map[string]Pick {
	byRound := make(map[string]Pick, len(picks))
	for _, p := range picks {
		byRound[p.RoundName] = p
	}
	return byRound
}

func strPtr(s string) *string {
	return &s
}
