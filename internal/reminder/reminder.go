// Package reminder schedules "make your pick" reminders. For the active
// round of each game it finds living participants with no pick yet and,
// once the round's first kickoff is near, stores one reminder per
// participant and round with a delivery time in local waking hours.
//
// Writing and sending the message is someone else's job.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/fixture"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

const (
	defaultWindow = 24 * time.Hour
	leadTime      = 3 * time.Hour // aim this long before kickoff
	quietStart    = 22            // 10 PM
	quietEnd      = 9             // 9 AM
)

// Store is the persistence the planner needs. *store.Store satisfies it.
type Store interface {
	ActiveGameIDs(ctx context.Context) ([]string, error)
	Game(ctx context.Context, gameID string) (survivor.Game, error)
	Participants(ctx context.Context, gameID string) ([]store.Participant, error)
	GamePicks(ctx context.Context, gameID string) (map[string][]survivor.Pick, error)
	InsertReminders(ctx context.Context, reminders []store.Reminder) (int, error)
}

// StatusEngine decides who is still alive.
type StatusEngine interface {
	ComputeStatusBatchAsOf(ctx context.Context, game survivor.Game, picksByParticipant map[string][]survivor.Pick, asOf round.Date) map[string]survivor.Status
}

// Result tracks one reminder run.
type Result struct {
	GamesChecked int
	RoundsDue    int
	Targets      int
	Inserted     int
	Duration     time.Duration
	Errors       []string
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("games=%d rounds_due=%d targets=%d inserted=%d errors=%d dur=%s",
		r.GamesChecked, r.RoundsDue, r.Targets, r.Inserted, len(r.Errors),
		r.Duration.Round(time.Millisecond))
}

// Planner finds and stores due reminders.
type Planner struct {
	store  Store
	source survivor.FixtureSource
	engine StatusEngine
	loc    *time.Location
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewPlanner creates a planner. window is how far ahead of the first
// kickoff reminders start; loc is the game time zone.
func NewPlanner(s Store, source survivor.FixtureSource, engine StatusEngine, loc *time.Location, window time.Duration, logger *slog.Logger) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = defaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		store:  s,
		source: source,
		engine: engine,
		loc:    loc,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Run checks every active game.
func (p *Planner) Run(ctx context.Context) Result {
	start := time.Now()
	var result Result

	ids, err := p.store.ActiveGameIDs(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	for _, id := range ids {
		result.GamesChecked++
		due, targets, inserted, err := p.runGame(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("game %s: %v", id, err))
			p.logger.Warn("Reminder planning failed", "game_id", id, "error", err)
			continue
		}
		if due {
			result.RoundsDue++
		}
		result.Targets += targets
		result.Inserted += inserted
	}

	result.Duration = time.Since(start)
	p.logger.Info("Reminder run complete", "summary", result.Summary())
	return result
}

func (p *Planner) runGame(ctx context.Context, gameID string) (due bool, targets, inserted int, err error) {
	game, err := p.store.Game(ctx, gameID)
	if err != nil {
		return false, 0, 0, err
	}

	now := p.now()
	today := round.DateOf(now, p.loc)
	active, ok := round.ActiveRound(game.Rounds, today)
	if !ok {
		return false, 0, 0, nil
	}
	kickoff, ok := fixture.FirstKickoff(p.source.Fixtures(ctx, game.LeagueID, game.Season, active.Name))
	if !ok || !kickoff.After(now) || kickoff.Sub(now) > p.window {
		return false, 0, 0, nil
	}

	participants, err := p.store.Participants(ctx, gameID)
	if err != nil {
		return true, 0, 0, err
	}
	picks, err := p.store.GamePicks(ctx, gameID)
	if err != nil {
		return true, 0, 0, err
	}

	byParticipant := make(map[string][]survivor.Pick, len(participants))
	for _, pt := range participants {
		if !pt.IsEliminated {
			byParticipant[pt.ID] = picks[pt.ID]
		}
	}
	statuses := p.engine.ComputeStatusBatchAsOf(ctx, game, byParticipant, today)

	sendAt := ScheduleDelivery(kickoff, now, p.loc)
	var reminders []store.Reminder
	for _, pt := range Targets(participants, statuses, picks, active.Name) {
		reminders = append(reminders, store.Reminder{
			ParticipantID: pt.ID,
			GameID:        gameID,
			RoundName:     active.Name,
			SendAt:        sendAt,
		})
	}
	if len(reminders) == 0 {
		return true, 0, 0, nil
	}

	inserted, err = p.store.InsertReminders(ctx, reminders)
	if err != nil {
		return true, len(reminders), inserted, fmt.Errorf("insert reminders: %w", err)
	}
	p.logger.Info("Reminders scheduled",
		"game_id", gameID, "round", active.Name, "targets", len(reminders),
		"inserted", inserted, "send_at", sendAt)
	return true, len(reminders), inserted, nil
}

// Targets returns participants who are alive and have not picked roundName.
// A participant missing from statuses is treated as eliminated.
func Targets(participants []store.Participant, statuses map[string]survivor.Status, picks map[string][]survivor.Pick, roundName string) []store.Participant {
	var out []store.Participant
	for _, pt := range participants {
		st, ok := statuses[pt.ID]
		if pt.IsEliminated || !ok || st.IsEliminated {
			continue
		}
		if hasPick(picks[pt.ID], roundName) {
			continue
		}
		out = append(out, pt)
	}
	return out
}

func hasPick(picks []survivor.Pick, roundName string) bool {
	for _, p := range picks {
		if p.RoundName == roundName {
			return true
		}
	}
	return false
}

// ScheduleDelivery picks when to send a reminder for a round kicking off at
// kickoff. It aims leadTime before kickoff and moves the time back into
// waking hours (9:00 to 22:00) in loc. A time already past becomes now.
func ScheduleDelivery(kickoff, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	at := kickoff.Add(-leadTime).In(loc)

	switch h := at.Hour(); {
	case h >= quietStart:
		at = time.Date(at.Year(), at.Month(), at.Day(), quietStart-1, 0, 0, 0, loc)
	case h < quietEnd:
		prev := at.AddDate(0, 0, -1)
		at = time.Date(prev.Year(), prev.Month(), prev.Day(), quietStart-1, 0, 0, 0, loc)
	}

	if at.Before(now) {
		return now.In(loc)
	}
	return at
}
