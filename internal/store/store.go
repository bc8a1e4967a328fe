// Package store reads survivor games, participants and picks from Postgres
// and writes back recomputed participant status. All statements are
// prepared on connect by internal/db.
//
// Stored lives and elimination flags are a cache of the replayed status,
// never an input to it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

// ErrNotFound is returned when a game or participant does not exist.
var ErrNotFound = errors.New("not found")

// Participant is a stored pool entry.
type Participant struct {
	ID                string    `json:"id"`
	GameID            string    `json:"game_id"`
	UserID            string    `json:"user_id"`
	LivesRemaining    int       `json:"lives_remaining"`
	IsEliminated      bool      `json:"is_eliminated"`
	EliminatedAtRound *string   `json:"eliminated_at_round"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Stored returns the persisted status fields as a Status for comparison
// with a replayed one.
func (p Participant) Stored() survivor.Status {
	return survivor.Status{
		LivesRemaining:    p.LivesRemaining,
		IsEliminated:      p.IsEliminated,
		EliminatedAtRound: p.EliminatedAtRound,
	}
}

// Reminder is a scheduled "make your pick" notice.
type Reminder struct {
	ParticipantID string
	GameID        string
	RoundName     string
	SendAt        time.Time
}

// Store is the Postgres-backed survivor repository.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Games
// --------------------------------------------------------------------------

// ActiveGameIDs returns the ids of games still being played.
func (s *Store) ActiveGameIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "active_games")
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Game loads a game's configuration, including its round schedule.
func (s *Store) Game(ctx context.Context, gameID string) (survivor.Game, error) {
	var g survivor.Game
	var rounds []byte
	err := s.pool.QueryRow(ctx, "game_by_id", gameID).Scan(
		&g.ID, &g.LeagueID, &g.Season, &g.TotalLives, &rounds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return survivor.Game{}, ErrNotFound
	}
	if err != nil {
		return survivor.Game{}, fmt.Errorf("get game %s: %w", gameID, err)
	}

	g.Rounds, err = DecodeRounds(rounds)
	if err != nil {
		return survivor.Game{}, fmt.Errorf("decode rounds of game %s: %w", gameID, err)
	}
	return g, nil
}

// DecodeRounds parses the stored round schedule: a JSON array of
// {"roundName": "...", "dates": ["YYYY-MM-DD", ...]} in schedule order.
// A NULL column is an empty schedule.
func DecodeRounds(data []byte) ([]round.Round, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rounds []round.Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// --------------------------------------------------------------------------
// Participants
// --------------------------------------------------------------------------

// Participants returns every participant of a game.
func (s *Store) Participants(ctx context.Context, gameID string) ([]Participant, error) {
	rows, err := s.pool.Query(ctx, "game_participants", gameID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Participant returns one participant of a game.
func (s *Store) Participant(ctx context.Context, gameID, participantID string) (Participant, error) {
	p, err := scanParticipant(s.pool.QueryRow(ctx, "participant_by_id", gameID, participantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	return p, err
}

func scanParticipant(row pgx.Row) (Participant, error) {
	var p Participant
	err := row.Scan(
		&p.ID, &p.GameID, &p.UserID,
		&p.LivesRemaining, &p.IsEliminated, &p.EliminatedAtRound, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, err
		}
		return Participant{}, fmt.Errorf("scan participant: %w", err)
	}
	return p, nil
}

// UpdateParticipantStatus persists a replayed status. It reports false when
// no row changed, which happens when the participant was already eliminated.
func (s *Store) UpdateParticipantStatus(ctx context.Context, participantID string, st survivor.Status) (bool, error) {
	tag, err := s.pool.Exec(ctx, "update_participant_status",
		participantID, st.LivesRemaining, st.IsEliminated, st.EliminatedAtRound)
	if err != nil {
		return false, fmt.Errorf("update participant %s: %w", participantID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// --------------------------------------------------------------------------
// Picks
// --------------------------------------------------------------------------

// GamePicks returns every pick of a game grouped by participant, oldest
// first within each participant.
func (s *Store) GamePicks(ctx context.Context, gameID string) (map[string][]survivor.Pick, error) {
	picks, err := s.queryPicks(ctx, "game_picks", gameID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]survivor.Pick)
	for _, p := range picks {
		out[p.ParticipantID] = append(out[p.ParticipantID], p)
	}
	return out, nil
}

// ParticipantPicks returns one participant's picks, oldest first.
func (s *Store) ParticipantPicks(ctx context.Context, participantID string) ([]survivor.Pick, error) {
	return s.queryPicks(ctx, "participant_picks", participantID)
}

func (s *Store) queryPicks(ctx context.Context, stmt, id string) ([]survivor.Pick, error) {
	rows, err := s.pool.Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}
	defer rows.Close()

	var picks []survivor.Pick
	for rows.Next() {
		var p survivor.Pick
		if err := rows.Scan(&p.ParticipantID, &p.RoundName, &p.FixtureID, &p.PickedTeamID, &p.PickedTeamName); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// --------------------------------------------------------------------------
// Reminders
// --------------------------------------------------------------------------

// InsertReminders persists reminders, skipping any participant already
// reminded for the round. It returns how many were new.
func (s *Store) InsertReminders(ctx context.Context, reminders []Reminder) (int, error) {
	inserted := 0
	for _, r := range reminders {
		tag, err := s.pool.Exec(ctx, "insert_reminder", r.ParticipantID, r.GameID, r.RoundName, r.SendAt)
		if err != nil {
			return inserted, fmt.Errorf("insert reminder: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// CleanupReminders deletes reminders scheduled before cutoff.
func (s *Store) CleanupReminders(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "cleanup_reminders", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}
