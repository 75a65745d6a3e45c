package storage

import "github.com/sailboard/dashboard/pkg/core"

// Backend is the interface all snapshot storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Export management
	StartExport(meta *core.ExportMeta) error
	EndExport() error

	// SaveShip records one assembled ship in the current export.
	SaveShip(ship *core.Ship) error
}

// Exportable is an optional interface for backends that write a file
// per export.
type Exportable interface {
	ExportedFilePath() string
}
