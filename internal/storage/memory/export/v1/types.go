// Package v1 contains the v1 export format for fleet snapshots.
package v1

import "github.com/sailboard/dashboard/pkg/core"

// FormatVersion is written into every v1 export.
const FormatVersion = "1"

// Export is the root JSON structure for v1 format
type Export struct {
	Version     string `json:"version"`
	Mode        string `json:"mode"`
	WindowStart int64  `json:"windowStart"`
	WindowEnd   int64  `json:"windowEnd"`
	ExportedAt  string `json:"exportedAt"`
	Ships       []Ship `json:"ships"`
}

// Ship is one vessel of the snapshot.
// Samples are compact rows in SampleColumns order.
type Ship struct {
	IMO         string          `json:"imo"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Destination string          `json:"destination"`
	ETA         string          `json:"eta"`
	Color       string          `json:"color"`
	HasData     bool            `json:"hasData"`
	Position    [2]float64      `json:"position"`
	Path        [][2]float64    `json:"path"`
	Statistics  core.Statistics `json:"statistics"`
	Samples     [][]float64     `json:"samples"`
}

// SampleColumns names the columns of Ship.Samples.
var SampleColumns = []string{
	"timestamp", "wind_speed", "fan_speed", "windAngle",
	"latitude", "longitude", "sog", "cog", "hdg", "rudderAngle",
}
