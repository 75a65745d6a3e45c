// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/pkg/core"
)

// ErrNoExport is returned when ships are saved outside StartExport/EndExport.
var ErrNoExport = errors.New("no export in progress")

// Backend stores fleet snapshots in memory and exports to JSON
type Backend struct {
	cfg  config.MemoryConfig
	meta *core.ExportMeta
	now  func() time.Time

	ships map[string]core.Ship // keyed by registration number
	order []string

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		now:   time.Now,
		ships: make(map[string]core.Ship),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartExport begins collecting a new snapshot.
func (b *Backend) StartExport(meta *core.ExportMeta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.meta = meta
	b.ships = make(map[string]core.Ship)
	b.order = nil

	return nil
}

// EndExport finalizes and writes the snapshot.
func (b *Backend) EndExport() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.meta == nil {
		return ErrNoExport
	}
	err := b.exportJSON()
	b.meta = nil
	return err
}

// SaveShip records a ship. Saving the same registration number again
// replaces the earlier entry but keeps its position.
func (b *Backend) SaveShip(s *core.Ship) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.meta == nil {
		return ErrNoExport
	}
	key := s.RegistrationNumber
	if _, ok := b.ships[key]; !ok {
		b.order = append(b.order, key)
	}
	b.ships[key] = *s
	return nil
}

// GetShip returns a saved ship by registration number.
func (b *Backend) GetShip(imo string) (core.Ship, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.ships[imo]
	return s, ok
}

// Ships returns the saved ships in save order.
func (b *Backend) Ships() []core.Ship {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.shipsLocked()
}

func (b *Backend) shipsLocked() []core.Ship {
	ships := make([]core.Ship, 0, len(b.order))
	for _, key := range b.order {
		ships = append(ships, b.ships[key])
	}
	return ships
}
