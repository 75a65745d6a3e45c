package main

import (
	"fmt"
	"time"

	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/database"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/internal/model/convert"
	"github.com/sailboard/dashboard/internal/storage"
	"github.com/sailboard/dashboard/internal/storage/memory"
	gormstorage "github.com/sailboard/dashboard/internal/storage/gorm"
	sqlitestorage "github.com/sailboard/dashboard/internal/storage/sqlite"
	wsstorage "github.com/sailboard/dashboard/internal/storage/websocket"
	"github.com/sailboard/dashboard/pkg/core"
)

// gormFlushInterval is how often queued snapshots are written during long exports.
const gormFlushInterval = 5 * time.Second

// createStorageBackend builds the configured backend. The returned func frees
// resources the backend does not own, such as the database connection.
func (a *app) createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, func(), error) {
	release := func() {}

	switch storageCfg.Type {
	case "gorm", "postgres":
		dbm, err := a.connectDatabase()
		if err != nil {
			return nil, release, err
		}
		a.logger.Info("GORM storage backend initialized", "local", dbm.ShouldSaveLocal)
		release = func() {
			if err := dbm.Close(); err != nil {
				a.logger.Warn("Failed to close database", "error", err)
			}
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:            dbm.DB,
			Logger:        a.logger,
			FlushInterval: gormFlushInterval,
		}), release, nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" {
			dumpPath = database.DumpName(binaryName, a.sessionStart)
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, a.logger)
		if err != nil {
			return nil, release, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		a.logger.Info("SQLite storage backend initialized", "dump", dumpPath)
		return backend, release, nil

	case "websocket":
		a.logger.Info("WebSocket storage backend initialized", "url", storageCfg.WebSocket.URL)
		return wsstorage.New(wsstorage.Config{
			URL:    storageCfg.WebSocket.URL,
			Secret: storageCfg.WebSocket.Secret,
		}, a.logger), release, nil

	case "", "memory":
		a.logger.Info("Memory storage backend initialized", "dir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), release, nil

	default:
		return nil, release, fmt.Errorf("unknown storage type: %s", storageCfg.Type)
	}
}

// connectDatabase opens the configured database, falling back to SQLite, and migrates it.
func (a *app) connectDatabase() (*database.Manager, error) {
	dbm := database.NewManager(config.GetDBConfig(), a.zerolog("database"))
	if err := dbm.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbm.Setup(); err != nil {
		_ = dbm.Close()
		return nil, err
	}
	return dbm, nil
}

func exportMeta(m mode.Mode, window core.TimeWindow, startedAt time.Time) core.ExportMeta {
	return core.ExportMeta{Mode: m.String(), Window: window, StartedAt: startedAt}
}

// migrateBackups copies every export found in the sqlite dumps of dir into the configured database.
func (a *app) migrateBackups(args []string) error {
	if len(args) != 1 {
		return usageError("migrate-backups requires a directory")
	}
	paths, err := database.GetBackupDBPaths(args[0])
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	if len(paths) == 0 {
		a.logger.Info("No backups found", "dir", args[0])
		return nil
	}

	dbm, err := a.connectDatabase()
	if err != nil {
		return err
	}
	defer dbm.Close()

	target := gormstorage.New(gormstorage.Dependencies{DB: dbm.DB, Logger: a.logger})
	if err := target.Init(); err != nil {
		return err
	}
	defer target.Close()

	for _, path := range paths {
		n, err := a.migrateBackup(path, target)
		if err != nil {
			a.logger.Error("Failed to migrate backup", "path", path, "error", err)
			continue
		}
		a.logger.Info("Migrated backup", "path", path, "exports", n)
		fmt.Fprintf(a.out, "%s: %d exports\n", path, n)
	}
	return nil
}

func (a *app) migrateBackup(path string, target *gormstorage.Backend) (int, error) {
	db, err := database.GetSqliteDB(path)
	if err != nil {
		return 0, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	source := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: a.logger})
	if err := source.Init(); err != nil {
		return 0, err
	}
	defer source.Close()

	exports, err := source.Exports()
	if err != nil {
		return 0, err
	}
	for _, e := range exports {
		ships, err := source.Ships(e.ID)
		if err != nil {
			return 0, err
		}
		meta := convert.ExportToCore(e)
		if err := target.StartExport(&meta); err != nil {
			return 0, err
		}
		for i := range ships {
			if err := target.SaveShip(&ships[i]); err != nil {
				return 0, err
			}
		}
		if err := target.EndExport(); err != nil {
			return 0, err
		}
	}
	return len(exports), nil
}
