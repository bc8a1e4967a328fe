package survivor

import (
	"sort"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

// StandingEntry is one participant's line in the standings table.
type StandingEntry struct {
	Position      int    `json:"position"`
	ParticipantID string `json:"participant_id"`
	Status
}

// Standings is the ordered table of a game plus its winners, if decided.
type Standings struct {
	Entries []StandingEntry `json:"entries"`
	Winners []string        `json:"winners"`
}

// BuildStandings orders participants and derives winners from statuses
// produced by a single batch computation.
//
// Alive participants rank before eliminated ones, by lives remaining. The
// eliminated rank by how late they went out. Equal lines share a position
// and are listed by participant id.
//
// concluded says whether every round of the game has ended. When more than
// one participant survives, they share the win only once the game is
// concluded and none of their results is still pending.
func BuildStandings(game Game, statuses map[string]Status, concluded bool) Standings {
	entries := make([]StandingEntry, 0, len(statuses))
	for id, st := range statuses {
		entries = append(entries, StandingEntry{ParticipantID: id, Status: st})
	}

	elimIdx := func(st Status) int {
		return round.IndexOf(game.Rounds, st.EliminatedAt())
	}
	rank := func(a, b StandingEntry) int {
		switch {
		case a.IsEliminated != b.IsEliminated:
			if !a.IsEliminated {
				return -1
			}
			return 1
		case !a.IsEliminated:
			return b.LivesRemaining - a.LivesRemaining
		default:
			return elimIdx(b.Status) - elimIdx(a.Status)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if c := rank(entries[i], entries[j]); c != 0 {
			return c < 0
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	for i := range entries {
		if i > 0 && rank(entries[i-1], entries[i]) == 0 {
			entries[i].Position = entries[i-1].Position
		} else {
			entries[i].Position = i + 1
		}
	}

	return Standings{Entries: entries, Winners: winners(game, entries, concluded)}
}

func winners(game Game, entries []StandingEntry, concluded bool) []string {
	if len(entries) == 0 {
		return []string{}
	}

	var alive []string
	final := true
	for _, e := range entries {
		if e.IsEliminated {
			continue
		}
		alive = append(alive, e.ParticipantID)
		if len(e.RoundResults) < len(game.Rounds) {
			final = false
		}
		for _, r := range e.RoundResults {
			if r.Outcome == OutcomePending {
				final = false
			}
		}
	}

	switch {
	case len(alive) == 1:
		return alive
	case len(alive) > 1 && concluded && final:
		return alive
	case len(alive) > 1:
		return []string{}
	}

	// Everyone is out: the last to fall share the win. Entries are already
	// ordered latest elimination first.
	last := entries[0].EliminatedAt()
	out := []string{}
	for _, e := range entries {
		if e.EliminatedAt() == last {
			out = append(out, e.ParticipantID)
		}
	}
	return out
}
