// Package publish broadcasts ship updates to NATS subscribers.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/dispatcher"
	"github.com/sailboard/dashboard/pkg/core"
)

// Message is the JSON body published for one ship update.
type Message struct {
	IMO        string                `json:"imo"`
	Name       string                `json:"name"`
	Position   core.Location         `json:"position"`
	HasData    bool                  `json:"hasData"`
	Latest     *core.TelemetrySample `json:"latest,omitempty"`
	Statistics core.Statistics       `json:"statistics"`
	Error      string                `json:"error,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// NewMessage builds the published form of an event.
func NewMessage(e dispatcher.Event) Message {
	m := Message{
		IMO:        e.Ship.RegistrationNumber,
		Name:       e.Ship.Name,
		Position:   e.Ship.CurrentPosition,
		HasData:    e.Ship.HasData,
		Statistics: e.Ship.Statistics,
		Timestamp:  e.Timestamp.UTC(),
	}
	if m.IMO == "" {
		m.IMO = e.Ship.ID
	}
	if n := len(e.Ship.Samples); n > 0 {
		latest := e.Ship.Samples[n-1]
		m.Latest = &latest
	}
	if e.Err != nil {
		m.Error = e.Err.Error()
	}
	return m
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher sends ship updates on <prefix>.<imo>.
type Publisher struct {
	conn   conn
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server with unlimited reconnects.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name("sailboard"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl())

	return newPublisher(nc, cfg.SubjectPrefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = "ships"
	}
	return &Publisher{conn: c, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject returns the subject of one ship.
func (p *Publisher) Subject(imo string) string {
	return p.prefix + "." + imo
}

// Publish sends one event.
func (p *Publisher) Publish(e dispatcher.Event) error {
	msg := NewMessage(e)
	if msg.IMO == "" {
		return fmt.Errorf("publish: ship has no IMO")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding ship %s: %w", msg.IMO, err)
	}
	if err := p.conn.Publish(p.Subject(msg.IMO), data); err != nil {
		return fmt.Errorf("publishing ship %s: %w", msg.IMO, err)
	}
	return nil
}

// Handler adapts the publisher to the dispatcher.
func (p *Publisher) Handler() dispatcher.HandlerFunc {
	return p.Publish
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
