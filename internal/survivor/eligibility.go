package survivor

import (
	"errors"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/fixture"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
)

var (
	ErrEliminated        = errors.New("participant is eliminated")
	ErrRoundLocked       = errors.New("round has already kicked off")
	ErrFixtureNotInRound = errors.New("fixture is not part of the round")
	ErrTeamNotInFixture  = errors.New("team does not play in the fixture")
	ErrTeamAlreadyUsed   = errors.New("team already picked in another round")
)

// CheckPick validates a candidate pick against the participant's current
// status, their earlier picks and the fixtures of the candidate's round.
// A round may be re-picked until its first kickoff; a team may be used only
// once per game.
func CheckPick(status Status, history []Pick, candidate Pick, roundFixtures []provider.Fixture, now time.Time) error {
	if status.IsEliminated {
		return ErrEliminated
	}
	if first, ok := fixture.FirstKickoff(roundFixtures); ok && !now.Before(first) {
		return ErrRoundLocked
	}

	f, ok := fixture.Find(roundFixtures, candidate.FixtureID)
	if !ok {
		return ErrFixtureNotInRound
	}
	if !f.HasTeam(candidate.PickedTeamID) {
		return ErrTeamNotInFixture
	}

	for _, p := range history {
		if p.RoundName == candidate.RoundName {
			continue
		}
		if provider.SameID(p.PickedTeamID, candidate.PickedTeamID) {
			return ErrTeamAlreadyUsed
		}
	}
	return nil
}
