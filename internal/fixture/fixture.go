// Package fixture is the read-through fixture source the survivor engine
// consumes. It wraps an upstream provider.Fetcher with a TTL cache, collapses
// concurrent misses for the same round into one upstream call and bounds
// each call with a timeout.
//
// Failures are never surfaced: an unreachable provider yields an empty
// fixture list, which the engine reads as "cannot evaluate yet". A provider
// outage must never produce eliminations.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/cache"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultTimeout = 15 * time.Second
	keyPrefix      = "fixtures"
)

// --------------------------------------------------------------------------
// Source
// --------------------------------------------------------------------------

// Source serves round fixtures from cache, falling back to the provider.
type Source struct {
	fetcher provider.Fetcher
	cache   *cache.Cache
	ttl     time.Duration
	timeout time.Duration
	flight  singleflight.Group
	logger  *slog.Logger
}

// NewSource creates a cached fixture source. Zero ttl or timeout select the
// defaults.
func NewSource(fetcher provider.Fetcher, c *cache.Cache, ttl, timeout time.Duration, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = cache.TTLFixtures
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if c == nil {
		c = cache.New(false)
	}
	return &Source{
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// Key returns the cache key for a league round.
func Key(leagueID, season int, roundName string) string {
	return fmt.Sprintf("%s:%d:%d:%s", keyPrefix, leagueID, season, roundName)
}

// Fixtures returns the fixtures of one league round. It never fails: missing
// configuration, upstream errors and timeouts all yield an empty slice.
// Failed fetches are not cached so the next call retries.
func (s *Source) Fixtures(ctx context.Context, leagueID, season int, roundName string) []provider.Fixture {
	if leagueID <= 0 || season <= 0 || roundName == "" {
		return nil
	}

	key := Key(leagueID, season, roundName)
	if data, _, ok := s.cache.Get(key); ok {
		var cached []provider.Fixture
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
		s.cache.Delete(key)
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		start := time.Now()
		fixtures, err := s.fetcher.RoundFixtures(fetchCtx, leagueID, season, roundName)
		if err != nil {
			return nil, err
		}
		if fixtures == nil {
			fixtures = []provider.Fixture{}
		}
		if data, err := json.Marshal(fixtures); err == nil {
			s.cache.Set(key, data, s.ttl)
		}
		s.logger.Debug("Fetched round fixtures",
			"league", leagueID, "season", season, "round", roundName,
			"count", len(fixtures), "duration", time.Since(start).Round(time.Millisecond))
		return fixtures, nil
	})
	if err != nil {
		s.logger.Warn("Fixture fetch failed, treating round as pending",
			"league", leagueID, "season", season, "round", roundName, "error", err)
		return nil
	}
	return v.([]provider.Fixture)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// Find returns the fixture with the given id.
func Find(fixtures []provider.Fixture, id string) (provider.Fixture, bool) {
	for _, f := range fixtures {
		if provider.SameID(f.ID, id) {
			return f, true
		}
	}
	return provider.Fixture{}, false
}

// AllFinished reports whether every fixture has a final result. An empty list
// is never finished.
func AllFinished(fixtures []provider.Fixture) bool {
	if len(fixtures) == 0 {
		return false
	}
	for _, f := range fixtures {
		if !f.Status.Finished() {
			return false
		}
	}
	return true
}

// FirstKickoff returns the earliest known kickoff of the round.
func FirstKickoff(fixtures []provider.Fixture) (time.Time, bool) {
	var first time.Time
	for _, f := range fixtures {
		if f.Kickoff.IsZero() {
			continue
		}
		if first.IsZero() || f.Kickoff.Before(first) {
			first = f.Kickoff
		}
	}
	return first, !first.IsZero()
}
