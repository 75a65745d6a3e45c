// Package gormstorage implements storage.Backend on a relational database through GORM.
// Snapshots are queued by SaveShip and written in one transaction per flush.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sailboard/dashboard/internal/database"
	"github.com/sailboard/dashboard/internal/model"
	"github.com/sailboard/dashboard/internal/model/convert"
	"github.com/sailboard/dashboard/internal/queue"
	"github.com/sailboard/dashboard/pkg/core"
	"gorm.io/gorm"
)

// ErrNoExport is returned when ships are saved outside StartExport/EndExport.
var ErrNoExport = errors.New("no export in progress")

// maxQueued bounds the pending snapshots kept while the database is unreachable.
const maxQueued = 10_000

// Dependencies holds what the backend needs from its owner.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend writes fleet snapshots through GORM.
type Backend struct {
	db       *gorm.DB
	log      *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	export *model.FleetExport
	saved  int

	pending  *queue.Queue[model.ShipSnapshot]
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		db:       deps.DB,
		log:      logger,
		interval: deps.FlushInterval,
	}
}

// Init migrates the schema and starts the periodic flush.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	if err := database.Migrate(b.db); err != nil {
		return err
	}

	b.pending = queue.NewBounded[model.ShipSnapshot](maxQueued)
	b.stopChan = make(chan struct{})

	if b.interval > 0 {
		b.wg.Add(1)
		go b.flushLoop()
	}
	return nil
}

// Close stops the flush loop and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	b.wg.Wait()
	return b.flush()
}

// StartExport records the export row that subsequent ships belong to.
func (b *Backend) StartExport(meta *core.ExportMeta) error {
	row := convert.CoreToExport(*meta)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("creating export: %w", err)
	}

	b.mu.Lock()
	b.export = &row
	b.saved = 0
	b.mu.Unlock()
	return nil
}

// SaveShip queues a snapshot for the current export.
func (b *Backend) SaveShip(s *core.Ship) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.export == nil {
		return ErrNoExport
	}
	snap, err := convert.CoreToSnapshot(*s, b.export.ID)
	if err != nil {
		return err
	}
	b.pending.Push(snap)
	b.saved++
	return nil
}

// EndExport flushes queued snapshots and stores the ship count.
func (b *Backend) EndExport() error {
	b.mu.Lock()
	export := b.export
	saved := b.saved
	b.export = nil
	b.mu.Unlock()

	if export == nil {
		return ErrNoExport
	}
	if err := b.flush(); err != nil {
		return err
	}
	if err := b.db.Model(export).Update("ship_count", saved).Error; err != nil {
		return fmt.Errorf("updating export %d: %w", export.ID, err)
	}
	return nil
}

// LatestExport returns the most recent export with its ships.
func (b *Backend) LatestExport() (model.FleetExport, []core.Ship, error) {
	var export model.FleetExport
	if err := b.db.Order("id desc").First(&export).Error; err != nil {
		return model.FleetExport{}, nil, fmt.Errorf("loading latest export: %w", err)
	}
	ships, err := b.Ships(export.ID)
	return export, ships, err
}

// Exports lists every stored export, oldest first.
func (b *Backend) Exports() ([]model.FleetExport, error) {
	var exports []model.FleetExport
	if err := b.db.Order("id").Find(&exports).Error; err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	return exports, nil
}

// Ships loads the ships of an export in save order.
func (b *Backend) Ships(exportID uint) ([]core.Ship, error) {
	var snaps []model.ShipSnapshot
	err := b.db.Preload("Samples").
		Where("export_id = ?", exportID).
		Order("id").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("loading export %d: %w", exportID, err)
	}

	ships := make([]core.Ship, len(snaps))
	for i, snap := range snaps {
		if ships[i], err = convert.SnapshotToCore(snap); err != nil {
			return nil, fmt.Errorf("loading export %d: %w", exportID, err)
		}
	}
	return ships, nil
}

// flush writes every queued snapshot in one transaction.
// On failure the snapshots are requeued for the next attempt.
func (b *Backend) flush() error {
	items := b.pending.GetAndEmpty()
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	err := b.db.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Omit("Export").Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for i := range items {
			items[i].ID = 0
			for j := range items[i].Samples {
				items[i].Samples[j].ID = 0
				items[i].Samples[j].SnapshotID = 0
			}
		}
		b.pending.Requeue(items...)
		return fmt.Errorf("writing %d snapshots: %w", len(items), err)
	}

	b.log.Debug("Flushed ship snapshots", "count", len(items), "duration", time.Since(start))
	return nil
}

func (b *Backend) flushLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.flush(); err != nil {
				b.log.Error("Error flushing snapshots", "error", err)
			}
		}
	}
}
