// Package streaming defines the wire protocol between the sailboard
// websocket sink and a live dashboard server.
package streaming

import (
	"encoding/json"

	"github.com/sailboard/dashboard/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartExport = "start_export"
	TypeEndExport   = "end_export"
	TypeShip        = "ship"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartExportPayload announces a new fleet snapshot.
type StartExportPayload struct {
	Export *core.ExportMeta `json:"export"`
}

// EndExportPayload closes a snapshot.
type EndExportPayload struct {
	ShipCount int `json:"shipCount"`
}

// ShipPayload carries one assembled ship.
type ShipPayload struct {
	Ship *core.Ship `json:"ship"`
}
