package sportmonks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

const fixtureIncludes = "fixtures.participants;fixtures.scores;fixtures.state"

var digitsRegex = regexp.MustCompile(`\d+`)

// --------------------------------------------------------------------------
// State codes: SportMonks state.developer_name to canonical status
// --------------------------------------------------------------------------

var stateCodes = map[string]provider.Status{
	"NS":                 provider.StatusNotStarted,
	"TBA":                provider.StatusNotStarted,
	"INPLAY_1ST_HALF":    provider.StatusInProgress,
	"HT":                 provider.StatusInProgress,
	"BREAK":              provider.StatusInProgress,
	"INPLAY_2ND_HALF":    provider.StatusInProgress,
	"INPLAY_ET":          provider.StatusInProgress,
	"EXTRA_TIME_BREAK":   provider.StatusInProgress,
	"INPLAY_ET_2ND_HALF": provider.StatusInProgress,
	"PEN_BREAK":          provider.StatusInProgress,
	"INPLAY_PENALTIES":   provider.StatusInProgress,
	"SUSPENDED":          provider.StatusInProgress,
	"INTERRUPTED":        provider.StatusInProgress,
	"FT":                 provider.StatusFinished,
	"AET":                provider.StatusFinishedExtraTime,
	"FT_PEN":             provider.StatusFinishedPenalties,
	"POSTPONED":          provider.StatusPostponed,
	"CANCELLED":          provider.StatusCancelled,
	"ABANDONED":          provider.StatusCancelled,
}

// NormalizeState maps a SportMonks developer state name to a canonical Status.
func NormalizeState(developerName string) provider.Status {
	if s, ok := stateCodes[strings.ToUpper(developerName)]; ok {
		return s
	}
	return provider.StatusUnknown
}

// --------------------------------------------------------------------------
// Seasons
// --------------------------------------------------------------------------

type smSeason struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DiscoverSeasonIDs maps target years to SportMonks season IDs for a league.
func (c *Client) DiscoverSeasonIDs(ctx context.Context, leagueID int, targetYears []int) (map[int]int, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/leagues/%d", leagueID), url.Values{
		"include": {"seasons"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch league seasons: %w", err)
	}

	var leagueData struct {
		Seasons []smSeason `json:"seasons"`
	}
	if err := json.Unmarshal(resp.Data, &leagueData); err != nil {
		return nil, fmt.Errorf("decode league seasons: %w", err)
	}

	targetSet := make(map[int]bool, len(targetYears))
	for _, y := range targetYears {
		targetSet[y] = true
	}

	result := make(map[int]int)
	for _, season := range leagueData.Seasons {
		parts := strings.Split(season.Name, "/")
		startYear, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		if targetSet[startYear] {
			if _, exists := result[startYear]; !exists {
				result[startYear] = season.ID
			}
		}
	}

	return result, nil
}

// seasonID resolves and memoizes the SportMonks season for a league year.
func (c *Client) seasonID(ctx context.Context, leagueID, year int) (int, error) {
	key := seasonKey{leagueID, year}
	c.mu.Lock()
	id, ok := c.seasonIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	found, err := c.DiscoverSeasonIDs(ctx, leagueID, []int{year})
	if err != nil {
		return 0, err
	}
	id, ok = found[year]
	if !ok {
		return 0, fmt.Errorf("no SportMonks season for league %d year %d", leagueID, year)
	}

	c.mu.Lock()
	c.seasonIDs[key] = id
	c.mu.Unlock()
	return id, nil
}

// --------------------------------------------------------------------------
// Rounds
// --------------------------------------------------------------------------

type smRound struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	StartingAt string `json:"starting_at"`
	EndingAt   string `json:"ending_at"`
}

// Rounds lists the season's rounds in schedule order. SportMonks reports a
// start and end date per round; every day in between becomes a round date.
func (c *Client) Rounds(ctx context.Context, leagueID, season int) ([]round.Round, error) {
	raw, err := c.seasonRounds(ctx, leagueID, season)
	if err != nil {
		return nil, err
	}
	rounds := make([]round.Round, 0, len(raw))
	for _, r := range raw {
		rounds = append(rounds, round.Round{Name: r.Name, Dates: spanDates(r.StartingAt, r.EndingAt)})
	}
	return rounds, nil
}

func (c *Client) seasonRounds(ctx context.Context, leagueID, season int) ([]smRound, error) {
	sid, err := c.seasonID(ctx, leagueID, season)
	if err != nil {
		return nil, err
	}
	items, err := c.getPaginated(ctx, fmt.Sprintf("/rounds/seasons/%d", sid), nil, 50)
	if err != nil {
		return nil, fmt.Errorf("fetch season rounds: %w", err)
	}
	rounds := make([]smRound, 0, len(items))
	for _, item := range items {
		var r smRound
		if err := json.Unmarshal(item, &r); err != nil {
			c.logger.Warn("decode round", "error", err)
			continue
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

func spanDates(start, end string) []round.Date {
	from, err := round.ParseDate(start)
	if err != nil {
		return nil
	}
	to, err := round.ParseDate(end)
	if err != nil || to.Before(from) {
		return []round.Date{from}
	}
	var out []round.Date
	t := time.Date(from.Year, from.Month, from.Day, 0, 0, 0, 0, time.UTC)
	for d := from; !d.After(to); d = round.DateOf(t, time.UTC) {
		out = append(out, d)
		t = t.AddDate(0, 0, 1)
	}
	return out
}

// matchRound finds a round by exact name, falling back to the round number
// so "Regular Season - 3" matches SportMonks' "3".
func matchRound(rounds []smRound, name string) (smRound, bool) {
	for _, r := range rounds {
		if r.Name == name {
			return r, true
		}
	}
	want := lastNumber(name)
	if want == "" {
		return smRound{}, false
	}
	for _, r := range rounds {
		if lastNumber(r.Name) == want {
			return r, true
		}
	}
	return smRound{}, false
}

func lastNumber(s string) string {
	all := digitsRegex.FindAllString(s, -1)
	if len(all) == 0 {
		return ""
	}
	return strings.TrimLeft(all[len(all)-1], "0")
}

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

type smFixtureRaw struct {
	ID                  interface{} `json:"id"`
	StartingAt          string      `json:"starting_at"`
	StartingAtTimestamp *int64      `json:"starting_at_timestamp"`
	State               *struct {
		DeveloperName string `json:"developer_name"`
		ShortName     string `json:"short_name"`
	} `json:"state"`
	Participants []struct {
		ID   interface{} `json:"id"`
		Name string      `json:"name"`
		Meta struct {
			Location string `json:"location"`
		} `json:"meta"`
	} `json:"participants"`
	Scores []struct {
		Description string                 `json:"description"`
		Score       map[string]interface{} `json:"score"`
	} `json:"scores"`
}

// RoundFixtures fetches every fixture of the named round in canonical form.
// An unknown round name yields no fixtures and no error.
func (c *Client) RoundFixtures(ctx context.Context, leagueID, season int, roundName string) ([]provider.Fixture, error) {
	rounds, err := c.seasonRounds(ctx, leagueID, season)
	if err != nil {
		return nil, err
	}
	r, ok := matchRound(rounds, roundName)
	if !ok {
		c.logger.Warn("round not found upstream", "league", leagueID, "season", season, "round", roundName)
		return nil, nil
	}

	resp, err := c.get(ctx, fmt.Sprintf("/rounds/%d", r.ID), url.Values{
		"include": {fixtureIncludes},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch round fixtures: %w", err)
	}

	var data struct {
		Fixtures []smFixtureRaw `json:"fixtures"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode round fixtures: %w", err)
	}

	fixtures := make([]provider.Fixture, 0, len(data.Fixtures))
	for _, raw := range data.Fixtures {
		f := normalizeFixture(raw, roundName)
		if f.ID == "" {
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func normalizeFixture(raw smFixtureRaw, roundName string) provider.Fixture {
	f := provider.Fixture{
		ID:     provider.ExtractID(raw.ID),
		Round:  roundName,
		Status: provider.StatusUnknown,
	}
	if raw.State != nil {
		f.StatusShort = raw.State.DeveloperName
		f.Status = NormalizeState(raw.State.DeveloperName)
	}

	for _, p := range raw.Participants {
		team := provider.Team{ID: provider.ExtractID(p.ID), Name: p.Name}
		switch p.Meta.Location {
		case "home":
			f.Home = team
		case "away":
			f.Away = team
		}
	}

	for _, s := range raw.Scores {
		if s.Description != "CURRENT" {
			continue
		}
		goals, ok := provider.ExtractGoals(s.Score)
		if !ok {
			continue
		}
		side, _ := s.Score["participant"].(string)
		switch side {
		case "home":
			f.HomeGoals = provider.IntPtr(goals)
		case "away":
			f.AwayGoals = provider.IntPtr(goals)
		}
	}

	switch {
	case raw.StartingAtTimestamp != nil:
		f.Kickoff = time.Unix(*raw.StartingAtTimestamp, 0).UTC()
	case raw.StartingAt != "":
		if t, err := time.Parse("2006-01-02 15:04:05", raw.StartingAt); err == nil {
			f.Kickoff = t.UTC()
		}
	}
	return f
}
