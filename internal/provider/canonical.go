// Package provider defines the canonical match data that every fixture
// provider normalizes into. These structs are the contract between provider
// clients and the survivor engine: clients output these, the engine reads
// them.
//
// Adding a new provider means implementing Fetcher. The engine never
// changes.
package provider

import (
	"context"
	"strings"
	"time"
)

// Status is the normalized lifecycle state of a fixture.
type Status string

const (
	StatusNotStarted        Status = "not_started"
	StatusInProgress        Status = "in_progress"
	StatusFinished          Status = "finished"
	StatusFinishedExtraTime Status = "finished_extra_time"
	StatusFinishedPenalties Status = "finished_penalties"
	StatusPostponed         Status = "postponed"
	StatusCancelled         Status = "cancelled"
	StatusUnknown           Status = "unknown"
)

// Finished reports whether the result is final: normal time, extra time or
// penalties. Everything else is undecided.
func (s Status) Finished() bool {
	switch s {
	case StatusFinished, StatusFinishedExtraTime, StatusFinishedPenalties:
		return true
	}
	return false
}

// Team is one side of a fixture.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fixture is the canonical match shape.
// Goals are nil until the provider reports them.
type Fixture struct {
	ID          string    `json:"id"`
	Round       string    `json:"round,omitempty"`
	Home        Team      `json:"home"`
	Away        Team      `json:"away"`
	Status      Status    `json:"status"`
	StatusShort string    `json:"status_short,omitempty"` // provider's raw code
	HomeGoals   *int      `json:"home_goals,omitempty"`
	AwayGoals   *int      `json:"away_goals,omitempty"`
	Kickoff     time.Time `json:"kickoff"`
}

// Goals returns both scores with missing values read as zero.
func (f Fixture) Goals() (home, away int) {
	if f.HomeGoals != nil {
		home = *f.HomeGoals
	}
	if f.AwayGoals != nil {
		away = *f.AwayGoals
	}
	return home, away
}

// HasTeam reports whether teamID plays in the fixture.
func (f Fixture) HasTeam(teamID string) bool {
	return SameID(f.Home.ID, teamID) || SameID(f.Away.ID, teamID)
}

// Fetcher retrieves the fixtures of one league round from an upstream
// provider. Implementations return errors; callers decide how to degrade.
type Fetcher interface {
	RoundFixtures(ctx context.Context, leagueID, season int, roundName string) ([]Fixture, error)
}

// NormalizeID canonicalizes an external identifier for comparison.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameID compares two external identifiers after normalization.
// Empty identifiers never match.
func SameID(a, b string) bool {
	na := NormalizeID(a)
	return na != "" && na == NormalizeID(b)
}
