package survivor

import "github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"

// Evaluation is the verdict on one pick against its fixture.
type Evaluation struct {
	Success  bool // picked team won, or the match was drawn
	Finished bool // the fixture has a final result
	Draw     bool // the match ended level
}

// Evaluate decides whether pickedTeamID survived fixture f.
//
// Unfinished fixtures are never a success. A draw is a success for either
// side. Otherwise the picked team must be the side that scored more. Missing
// goal counts read as zero; team ids compare by normalized external id.
func Evaluate(f provider.Fixture, pickedTeamID string) Evaluation {
	if !f.Status.Finished() {
		return Evaluation{}
	}

	home, away := f.Goals()
	if home == away {
		return Evaluation{Success: true, Finished: true, Draw: true}
	}

	winner := f.Home.ID
	if away > home {
		winner = f.Away.ID
	}
	return Evaluation{
		Success:  provider.SameID(winner, pickedTeamID),
		Finished: true,
	}
}

// outcomeOf maps an evaluation of a finished fixture to a round outcome.
func outcomeOf(e Evaluation) Outcome {
	switch {
	case !e.Finished:
		return OutcomePending
	case e.Draw:
		return OutcomeDraw
	case e.Success:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}
