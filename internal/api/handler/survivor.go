package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/api/respond"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/cache"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/store"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/survivor"
)

// ActiveRoundResponse describes the round currently open for picks.
type ActiveRoundResponse struct {
	GameID    string      `json:"game_id"`
	AsOf      round.Date  `json:"as_of"`
	Index     int         `json:"index"`
	Round     round.Round `json:"round"`
	Concluded bool        `json:"concluded"`
}

// StandingsResponse is a game's full table.
type StandingsResponse struct {
	GameID      string                   `json:"game_id"`
	TotalLives  int                      `json:"total_lives"`
	ActiveRound *string                  `json:"active_round"`
	Concluded   bool                     `json:"concluded"`
	Entries     []survivor.StandingEntry `json:"entries"`
	Winners     []string                 `json:"winners"`
	ComputedAt  time.Time                `json:"computed_at"`
}

// ParticipantStatusResponse is one participant's replayed status.
type ParticipantStatusResponse struct {
	GameID        string `json:"game_id"`
	ParticipantID string `json:"participant_id"`
	UserID        string `json:"user_id"`
	survivor.Status
}

// EligibilityResponse answers whether a pick would be accepted.
type EligibilityResponse struct {
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
	RoundName string `json:"round_name"`
	FixtureID string `json:"fixture_id"`
	TeamID    string `json:"team_id"`
}

// GetActiveRound returns the active round of a game.
// @Summary Get active round
// @Description Returns the round currently open for picks: the first round whose last date is today or later. After the final round it keeps returning the final round.
// @Tags survivor
// @Produce json
// @Param gameID path string true "Game UUID"
// @Param as_of query string false "Reference date (YYYY-MM-DD), defaults to today in the game time zone"
// @Success 200 {object} ActiveRoundResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/rounds/active [get]
func (h *Handler) GetActiveRound(w http.ResponseWriter, r *http.Request) {
	gameID, ok := idParam(w, r, "gameID")
	if !ok {
		return
	}

	asOf := h.engine.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := round.ParseDate(s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = d
	}

	game, err := h.store.Game(r.Context(), gameID)
	if err != nil {
		h.writeStoreError(w, err, "game")
		return
	}

	idx := round.ActiveIndex(game.Rounds, asOf)
	if idx < 0 {
		respond.WriteError(w, http.StatusNotFound, "NO_ACTIVE_ROUND", "Game has no scheduled rounds")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, ActiveRoundResponse{
		GameID:    game.ID,
		AsOf:      asOf,
		Index:     idx,
		Round:     game.Rounds[idx],
		Concluded: round.Concluded(game.Rounds, asOf),
	})
}

// GetStandings returns every participant's status in one batch evaluation.
// @Summary Get survivor standings
// @Description Replays all participants of a game against current results and returns the ordered table and winners. Responses are cached briefly and support ETag revalidation.
// @Tags survivor
// @Produce json
// @Param gameID path string true "Game UUID"
// @Success 200 {object} StandingsResponse
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/survivor/standings [get]
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	gameID, ok := idParam(w, r, "gameID")
	if !ok {
		return
	}

	cacheKey := "standings:" + gameID
	ttl := cache.TTLStandings

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	ctx := r.Context()
	game, err := h.store.Game(ctx, gameID)
	if err != nil {
		h.writeStoreError(w, err, "game")
		return
	}
	participants, err := h.store.Participants(ctx, gameID)
	if err != nil {
		h.writeStoreError(w, err, "participants")
		return
	}
	picks, err := h.store.GamePicks(ctx, gameID)
	if err != nil {
		h.writeStoreError(w, err, "picks")
		return
	}

	byParticipant := make(map[string][]survivor.Pick, len(participants))
	for _, p := range participants {
		byParticipant[p.ID] = picks[p.ID]
	}
	// One clock read for statuses, the active round and concluded.
	now := h.engine.Now()
	today := round.DateOf(now, h.engine.Location())

	statuses := h.engine.ComputeStatusBatchAsOf(ctx, game, byParticipant, today)
	concluded := round.Concluded(game.Rounds, today)
	table := survivor.BuildStandings(game, statuses, concluded)

	resp := StandingsResponse{
		GameID:     game.ID,
		TotalLives: game.TotalLives,
		Concluded:  concluded,
		Entries:    table.Entries,
		Winners:    table.Winners,
		ComputedAt: now.UTC(),
	}
	if active, ok := round.ActiveRound(game.Rounds, today); ok {
		resp.ActiveRound = &active.Name
	}

	data, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to encode standings")
		return
	}
	etag := h.cache.Set(cacheKey, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}

// GetParticipantStatus returns one participant's replayed status.
// @Summary Get participant status
// @Description Replays one participant's picks and returns lives remaining, elimination state and per-round outcomes.
// @Tags survivor
// @Produce json
// @Param gameID path string true "Game UUID"
// @Param participantID path string true "Participant UUID"
// @Success 200 {object} ParticipantStatusResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/survivor/participants/{participantID} [get]
func (h *Handler) GetParticipantStatus(w http.ResponseWriter, r *http.Request) {
	game, participant, picks, ok := h.loadParticipant(w, r)
	if !ok {
		return
	}
	st := h.engine.ComputeStatus(r.Context(), game, picks)
	respond.WriteJSONObject(w, http.StatusOK, ParticipantStatusResponse{
		GameID:        game.ID,
		ParticipantID: participant.ID,
		UserID:        participant.UserID,
		Status:        st,
	})
}

// GetPickEligibility checks a candidate pick without storing it.
// @Summary Check pick eligibility
// @Description Reports whether a participant may pick team_id in fixture_id for a round. The round defaults to the active round.
// @Tags survivor
// @Produce json
// @Param gameID path string true "Game UUID"
// @Param participantID path string true "Participant UUID"
// @Param round query string false "Round name, defaults to the active round"
// @Param fixture_id query string true "Fixture id from the fixture provider"
// @Param team_id query string true "Team id from the fixture provider"
// @Success 200 {object} EligibilityResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/survivor/participants/{participantID}/eligibility [get]
func (h *Handler) GetPickEligibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fixtureID, teamID := q.Get("fixture_id"), q.Get("team_id")
	if fixtureID == "" || teamID == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_PARAMS", "fixture_id and team_id are required")
		return
	}

	game, participant, picks, ok := h.loadParticipant(w, r)
	if !ok {
		return
	}

	now := h.engine.Now()
	today := round.DateOf(now, h.engine.Location())

	roundName := q.Get("round")
	if roundName == "" {
		active, ok := round.ActiveRound(game.Rounds, today)
		if !ok {
			respond.WriteError(w, http.StatusNotFound, "NO_ACTIVE_ROUND", "Game has no scheduled rounds")
			return
		}
		roundName = active.Name
	} else if round.IndexOf(game.Rounds, roundName) < 0 {
		respond.WriteError(w, http.StatusNotFound, "ROUND_NOT_FOUND", "Round "+roundName+" is not part of the game")
		return
	}

	ctx := r.Context()
	st := h.engine.ComputeStatusAsOf(ctx, game, picks, today)
	candidate := survivor.Pick{
		ParticipantID: participant.ID,
		RoundName:     roundName,
		FixtureID:     fixtureID,
		PickedTeamID:  teamID,
	}
	fixtures := h.fixtures.Fixtures(ctx, game.LeagueID, game.Season, roundName)

	resp := EligibilityResponse{
		Eligible:  true,
		RoundName: roundName,
		FixtureID: fixtureID,
		TeamID:    teamID,
	}
	if err := survivor.CheckPick(st, picks, candidate, fixtures, now); err != nil {
		resp.Eligible = false
		resp.Reason = reasonCode(err)
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

// loadParticipant resolves the game, participant and pick history named by
// the path, writing an error response on failure.
func (h *Handler) loadParticipant(w http.ResponseWriter, r *http.Request) (game survivor.Game, p store.Participant, picks []survivor.Pick, ok bool) {
	gameID, ok := idParam(w, r, "gameID")
	if !ok {
		return game, p, nil, false
	}
	participantID, ok := idParam(w, r, "participantID")
	if !ok {
		return game, p, nil, false
	}

	ctx := r.Context()
	game, err := h.store.Game(ctx, gameID)
	if err != nil {
		h.writeStoreError(w, err, "game")
		return game, p, nil, false
	}
	if p, err = h.store.Participant(ctx, gameID, participantID); err != nil {
		h.writeStoreError(w, err, "participant")
		return game, p, nil, false
	}
	if picks, err = h.store.ParticipantPicks(ctx, participantID); err != nil {
		h.writeStoreError(w, err, "picks")
		return game, p, nil, false
	}
	return game, p, picks, true
}

func reasonCode(err error) string {
	switch {
	case errors.Is(err, survivor.ErrEliminated):
		return "ELIMINATED"
	case errors.Is(err, survivor.ErrRoundLocked):
		return "ROUND_LOCKED"
	case errors.Is(err, survivor.ErrFixtureNotInRound):
		return "FIXTURE_NOT_IN_ROUND"
	case errors.Is(err, survivor.ErrTeamNotInFixture):
		return "TEAM_NOT_IN_FIXTURE"
	case errors.Is(err, survivor.ErrTeamAlreadyUsed):
		return "TEAM_ALREADY_USED"
	}
	return "INVALID_PICK"
}
