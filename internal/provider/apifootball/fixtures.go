package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

// --------------------------------------------------------------------------
// Status codes
// --------------------------------------------------------------------------

// statusCodes maps API-Football fixture.status.short to canonical states.
// AWD (technical loss) and WO (walkover) are decided off the pitch and are
// not treated as finished results.
var statusCodes = map[string]provider.Status{
	"TBD":  provider.StatusNotStarted,
	"NS":   provider.StatusNotStarted,
	"1H":   provider.StatusInProgress,
	"HT":   provider.StatusInProgress,
	"2H":   provider.StatusInProgress,
	"ET":   provider.StatusInProgress,
	"BT":   provider.StatusInProgress,
	"P":    provider.StatusInProgress,
	"SUSP": provider.StatusInProgress,
	"INT":  provider.StatusInProgress,
	"LIVE": provider.StatusInProgress,
	"FT":   provider.StatusFinished,
	"AET":  provider.StatusFinishedExtraTime,
	"PEN":  provider.StatusFinishedPenalties,
	"PST":  provider.StatusPostponed,
	"CANC": provider.StatusCancelled,
	"ABD":  provider.StatusCancelled,
}

// NormalizeStatus maps a short status code to a canonical Status.
func NormalizeStatus(short string) provider.Status {
	if s, ok := statusCodes[short]; ok {
		return s
	}
	return provider.StatusUnknown
}

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

type afFixtureRaw struct {
	Fixture struct {
		ID     interface{} `json:"id"`
		Date   string      `json:"date"`
		Status struct {
			Long    string `json:"long"`
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home afTeamRaw `json:"home"`
		Away afTeamRaw `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home interface{} `json:"home"`
		Away interface{} `json:"away"`
	} `json:"goals"`
}

type afTeamRaw struct {
	ID     interface{} `json:"id"`
	Name   string      `json:"name"`
	Winner *bool       `json:"winner"`
}

// RoundFixtures fetches every fixture of a league round in canonical form.
func (c *Client) RoundFixtures(ctx context.Context, leagueID, season int, roundName string) ([]provider.Fixture, error) {
	resp, err := c.get(ctx, "/fixtures", url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
		"round":  {roundName},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch round fixtures: %w", err)
	}

	var raw []afFixtureRaw
	if err := json.Unmarshal(resp.Response, &raw); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	fixtures := make([]provider.Fixture, 0, len(raw))
	for _, item := range raw {
		f := normalizeFixture(item)
		if f.ID == "" {
			c.logger.Warn("fixture without id", "league", leagueID, "round", roundName)
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func normalizeFixture(raw afFixtureRaw) provider.Fixture {
	f := provider.Fixture{
		ID:          provider.ExtractID(raw.Fixture.ID),
		Round:       raw.League.Round,
		StatusShort: raw.Fixture.Status.Short,
		Status:      NormalizeStatus(raw.Fixture.Status.Short),
		Home: provider.Team{
			ID:   provider.ExtractID(raw.Teams.Home.ID),
			Name: raw.Teams.Home.Name,
		},
		Away: provider.Team{
			ID:   provider.ExtractID(raw.Teams.Away.ID),
			Name: raw.Teams.Away.Name,
		},
	}
	if n, ok := provider.ExtractGoals(raw.Goals.Home); ok {
		f.HomeGoals = provider.IntPtr(n)
	}
	if n, ok := provider.ExtractGoals(raw.Goals.Away); ok {
		f.AwayGoals = provider.IntPtr(n)
	}
	if t, err := time.Parse(time.RFC3339, raw.Fixture.Date); err == nil {
		f.Kickoff = t.UTC()
	}
	return f
}

// --------------------------------------------------------------------------
// Rounds
// --------------------------------------------------------------------------

type afRoundRaw struct {
	Round string   `json:"round"`
	Dates []string `json:"dates"`
}

// Rounds fetches the season's rounds in schedule order, with their match
// dates when the API provides them.
func (c *Client) Rounds(ctx context.Context, leagueID, season int) ([]round.Round, error) {
	resp, err := c.get(ctx, "/fixtures/rounds", url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
		"dates":  {"true"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch rounds: %w", err)
	}

	// With dates=true the response is a list of objects; older plans return
	// bare round names.
	var withDates []afRoundRaw
	if err := json.Unmarshal(resp.Response, &withDates); err == nil {
		rounds := make([]round.Round, 0, len(withDates))
		for _, r := range withDates {
			rd := round.Round{Name: r.Round}
			for _, s := range r.Dates {
				d, err := round.ParseDate(s)
				if err != nil {
					c.logger.Warn("skip malformed round date", "round", r.Round, "date", s)
					continue
				}
				rd.Dates = append(rd.Dates, d)
			}
			rounds = append(rounds, rd)
		}
		return rounds, nil
	}

	var names []string
	if err := json.Unmarshal(resp.Response, &names); err != nil {
		return nil, fmt.Errorf("decode rounds: %w", err)
	}
	rounds := make([]round.Round, len(names))
	for i, n := range names {
		rounds[i] = round.Round{Name: n}
	}
	return rounds, nil
}
