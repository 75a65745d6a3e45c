package core

import "time"

// ExportMeta describes one fleet snapshot written to a storage backend.
type ExportMeta struct {
	Mode      string     `json:"mode"`
	Window    TimeWindow `json:"window"`
	StartedAt time.Time  `json:"startedAt"`
}
