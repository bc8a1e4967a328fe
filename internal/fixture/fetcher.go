package fixture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/config"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider/apifootball"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/provider/sportmonks"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/round"
)

// Client is a provider client that can also list a season's rounds.
// Both API-Football and SportMonks clients satisfy it.
type Client interface {
	provider.Fetcher
	Rounds(ctx context.Context, leagueID, season int) ([]round.Round, error)
}

// NewClient builds the client of the configured fixture provider.
func NewClient(cfg *config.Config, logger *slog.Logger) (Client, error) {
	key := cfg.ProviderKey()
	if key == "" {
		return nil, fmt.Errorf("no credential configured for provider %q", cfg.FixtureProvider)
	}
	switch cfg.FixtureProvider {
	case config.ProviderAPIFootball:
		return apifootball.NewClient(cfg.APIFootballBaseURL, key, cfg.ProviderRequestsPerMinute, logger), nil
	case config.ProviderSportMonks:
		return sportmonks.NewClient("", key, cfg.ProviderRequestsPerMinute, logger), nil
	}
	return nil, fmt.Errorf("unknown fixture provider %q", cfg.FixtureProvider)
}
