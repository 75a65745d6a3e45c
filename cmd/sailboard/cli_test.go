package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/database"
	"github.com/sailboard/dashboard/internal/dispatcher"
	"github.com/sailboard/dashboard/internal/fleet"
	"github.com/sailboard/dashboard/internal/mode"
	gormstorage "github.com/sailboard/dashboard/internal/storage/gorm"
	"github.com/sailboard/dashboard/pkg/core"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	body := fmt.Sprintf(`{
		"logsDir": %q,
		"api": { "baseUrl": "http://127.0.0.1:1/api", "sessionFile": %q, "healthTimeout": "200ms" },
		"storage": { "memory": { "outputDir": %q, "compressOutput": false } },
		"db": { "driver": "sqlite", "sqlitePath": %q }
	}`,
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "session", "session.json"),
		filepath.Join(dir, "exports"),
		filepath.Join(dir, "fallback.db"),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644))

	var out bytes.Buffer
	a := &app{sessionStart: time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC), out: &out}
	require.NoError(t, a.setup(dir))
	t.Cleanup(a.shutdown)
	return a, &out
}

func TestDispatch_Usage(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	var u usageError
	assert.ErrorAs(t, a.dispatch(ctx, nil), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"sail"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"ship"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"ship", "1", "10"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"ship", "1", "20", "10"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"playback", "1", "x"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"login", "a@b.c"}), &u)
	assert.ErrorAs(t, a.dispatch(ctx, []string{"migrate-backups"}), &u)
}

func TestDispatch_LiveSuffix(t *testing.T) {
	a, _ := newTestApp(t)
	require.Equal(t, mode.Mock, a.modes.Get())

	err := a.dispatch(context.Background(), []string{"fleet", "live"})
	assert.Equal(t, mode.Live, a.modes.Get())

	var unavailable *fleet.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestFleet_Mock(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch(context.Background(), []string{"fleet"}))

	var ships []core.Ship
	require.NoError(t, json.Unmarshal(out.Bytes(), &ships))
	assert.Len(t, ships, 3)
}

func TestShipAndPlayback_Mock(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, []string{"ship", "9996903"}))
	var ship core.Ship
	require.NoError(t, json.Unmarshal(out.Bytes(), &ship))
	assert.Equal(t, "Amadeus Saffier", ship.Name)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, []string{"playback", "9996903", "100"}))
	var pb map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &pb))
	assert.Equal(t, pb["samples"].(float64)-1, pb["index"])

	assert.ErrorIs(t, a.dispatch(ctx, []string{"ship", "0000000"}), fleet.ErrUnknownShip)
}

func TestDashboard_Mock(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch(context.Background(), []string{"dashboard"}))

	var d core.Dashboard
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))
	assert.NotEmpty(t, d.Stats.Months)
}

func TestHealth_Unreachable(t *testing.T) {
	a, out := newTestApp(t)
	assert.Error(t, a.dispatch(context.Background(), []string{"health"}))
	assert.Contains(t, out.String(), `"backend": false`)
}

func TestExport_Memory(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch(context.Background(), []string{"export"}))

	path := strings.TrimSpace(out.String())
	assert.Equal(t, "fleet_mock_20250307_120000.json", filepath.Base(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestExport_GormAndMigrate(t *testing.T) {
	a, out := newTestApp(t)
	dumpDir := t.TempDir()
	viper.Set("storage.type", "sqlite")
	viper.Set("storage.sqlite.dumpInterval", "0s")
	viper.Set("storage.sqlite.dumpPath", filepath.Join(dumpDir, "snap.db"))

	require.NoError(t, a.dispatch(context.Background(), []string{"export"}))
	assert.Equal(t, filepath.Join(dumpDir, "snap.db"), strings.TrimSpace(out.String()))

	out.Reset()
	require.NoError(t, a.dispatch(context.Background(), []string{"migrate-backups", dumpDir}))
	assert.Contains(t, out.String(), "1 exports")

	db, err := database.GetSqliteDB(viper.GetString("db.sqlitePath"))
	require.NoError(t, err)
	b := gormstorage.New(gormstorage.Dependencies{DB: db})
	require.NoError(t, b.Init())
	defer b.Close()

	export, ships, err := b.LatestExport()
	require.NoError(t, err)
	assert.Equal(t, "mock", export.Mode)
	assert.Len(t, ships, 3)
}

func TestEventFromUpdate(t *testing.T) {
	at := time.Unix(1741281633, 0)

	e := eventFromUpdate("42", fleet.ShipUpdate{Ship: core.Ship{ID: "42", Name: "x"}, At: at})
	assert.Equal(t, dispatcher.TopicShipUpdated, e.Topic)
	assert.Equal(t, at, e.Timestamp)

	e = eventFromUpdate("42", fleet.ShipUpdate{Err: errors.New("down"), At: at})
	assert.Equal(t, dispatcher.TopicShipFailed, e.Topic)
	assert.Equal(t, "42", e.Ship.ID)
	assert.Equal(t, "42", e.Ship.RegistrationNumber)
}

func TestBuildDispatcher_Storage(t *testing.T) {
	a, _ := newTestApp(t)
	backend, release, err := a.createStorageBackend(config.GetStorageConfig())
	require.NoError(t, err)
	defer release()
	require.NoError(t, backend.Init())
	require.NoError(t, backend.StartExport(&core.ExportMeta{Mode: "mock"}))

	d, closeSinks, err := a.buildDispatcher(context.Background(), backend)
	require.NoError(t, err)
	assert.True(t, d.HasHandler(dispatcher.TopicShipUpdated))
	assert.True(t, d.HasHandler(dispatcher.TopicShipFailed))

	require.NoError(t, d.Dispatch(dispatcher.Event{Topic: dispatcher.TopicShipUpdated, Ship: core.Ship{ID: "1", RegistrationNumber: "1"}}))
	require.NoError(t, d.Dispatch(dispatcher.Event{Topic: dispatcher.TopicShipFailed, Ship: core.Ship{ID: "2"}, Err: errors.New("x")}))
	closeSinks()

	require.NoError(t, backend.EndExport())
	require.NoError(t, backend.Close())
}

func TestCreateStorageBackend_Unknown(t *testing.T) {
	a, _ := newTestApp(t)
	_, _, err := a.createStorageBackend(config.StorageConfig{Type: "tape"})
	assert.Error(t, err)
}
