// Package events publishes participant status changes so other services
// (notifications, live scoreboards) can react without polling Postgres.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectStatusChanged carries StatusChanged messages.
const SubjectStatusChanged = "survivor.status.changed"

// StatusChanged is emitted after a participant's stored status was updated.
type StatusChanged struct {
	RunID             string    `json:"run_id"`
	GameID            string    `json:"game_id"`
	ParticipantID     string    `json:"participant_id"`
	LivesBefore       int       `json:"lives_before"`
	LivesRemaining    int       `json:"lives_remaining"`
	IsEliminated      bool      `json:"is_eliminated"`
	EliminatedAtRound *string   `json:"eliminated_at_round,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Publisher delivers status change events.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
	Close()
}

// --------------------------------------------------------------------------
// NATS
// --------------------------------------------------------------------------

// NATSPublisher publishes events as JSON on a NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// ConnectNATS dials url. An empty token connects without authentication.
func ConnectNATS(url, token string, logger *slog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("survivor"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// PublishStatusChanged publishes ev on SubjectStatusChanged.
func (p *NATSPublisher) PublishStatusChanged(_ context.Context, ev StatusChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(SubjectStatusChanged, data); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectStatusChanged, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", "error", err)
	}
}

// --------------------------------------------------------------------------
// No-op
// --------------------------------------------------------------------------

// Nop discards every event. Used when NATS_URL is not configured.
type Nop struct{}

func (Nop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
func (Nop) Close()                                                    {}

// New returns a NATS publisher when url is set, otherwise Nop. A failed
// connection degrades to Nop so status writes never depend on the broker.
func New(url, token string, logger *slog.Logger) Publisher {
	if url == "" {
		return Nop{}
	}
	p, err := ConnectNATS(url, token, logger)
	if err != nil {
		logger.Warn("Event publishing disabled", "error", err)
		return Nop{}
	}
	logger.Info("Publishing status events", "url", url, "subject", SubjectStatusChanged)
	return p
}
