// Package websocket streams fleet snapshots to a live dashboard server.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sailboard/dashboard/pkg/core"
	"github.com/sailboard/dashboard/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams snapshots over WebSocket.
// It implements storage.Backend but not storage.Exportable.
type Backend struct {
	conn  *connection
	cfg   Config
	ships atomic.Int64
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartExport announces the snapshot and waits for the server ack.
func (b *Backend) StartExport(meta *core.ExportMeta) error {
	data, err := marshalEnvelope(streaming.TypeStartExport, streaming.StartExportPayload{Export: meta})
	if err != nil {
		return err
	}

	b.conn.setReplay(data)
	b.ships.Store(0)

	return b.conn.sendAndWait(data, streaming.TypeStartExport, ackTimeout)
}

// EndExport sends end_export and waits for server ack.
func (b *Backend) EndExport() error {
	data, err := marshalEnvelope(streaming.TypeEndExport, streaming.EndExportPayload{ShipCount: int(b.ships.Load())})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndExport, ackTimeout)

	b.conn.setReplay(nil)

	return err
}

// SaveShip streams one ship (fire-and-forget). Outside an export it acts
// as a live update.
func (b *Backend) SaveShip(s *core.Ship) error {
	data, err := marshalEnvelope(streaming.TypeShip, streaming.ShipPayload{Ship: s})
	if err != nil {
		return err
	}
	if err := b.conn.send(data); err != nil {
		return err
	}
	b.ships.Add(1)
	return nil
}
