// internal/storage/memory/memory_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/storage"
	v1 "github.com/sailboard/dashboard/internal/storage/memory/export/v1"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks.
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

var startedAt = time.Date(2025, 3, 6, 17, 20, 33, 0, time.UTC)

func newTestBackend(t *testing.T, compress bool) *Backend {
	t.Helper()
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: compress})
	b.now = func() time.Time { return startedAt.Add(time.Minute) }
	require.NoError(t, b.Init())
	return b
}

func ship(imo, name string) *core.Ship {
	return &core.Ship{ID: imo, RegistrationNumber: imo, Name: name}
}

func TestSaveShip_RequiresExport(t *testing.T) {
	b := newTestBackend(t, false)

	assert.ErrorIs(t, b.SaveShip(ship("1", "a")), ErrNoExport)
	assert.ErrorIs(t, b.EndExport(), ErrNoExport)
}

func TestSaveShip_KeepsOrderAndReplaces(t *testing.T) {
	b := newTestBackend(t, false)
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock", StartedAt: startedAt}))

	require.NoError(t, b.SaveShip(ship("9996903", "Amadeus Saffier")))
	require.NoError(t, b.SaveShip(ship("9512331", "Ankie")))
	require.NoError(t, b.SaveShip(ship("9996903", "Amadeus Saffier II")))

	ships := b.Ships()
	require.Len(t, ships, 2)
	assert.Equal(t, "Amadeus Saffier II", ships[0].Name)
	assert.Equal(t, "Ankie", ships[1].Name)

	got, ok := b.GetShip("9512331")
	assert.True(t, ok)
	assert.Equal(t, "Ankie", got.Name)
	_, ok = b.GetShip("0")
	assert.False(t, ok)
}

func TestStartExport_Resets(t *testing.T) {
	b := newTestBackend(t, false)
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(ship("1", "a")))

	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "live"}))
	assert.Empty(t, b.Ships())
}

func TestEndExport_WritesJSON(t *testing.T) {
	b := newTestBackend(t, false)
	meta := &core.ExportMeta{Mode: "live", Window: core.TimeWindow{Start: 10, End: 20}, StartedAt: startedAt}
	require.NoError(t, b.StartExport(meta))
	require.NoError(t, b.SaveShip(ship("9996903", "Amadeus Saffier")))
	require.NoError(t, b.EndExport())

	path := b.ExportedFilePath()
	assert.Equal(t, "fleet_live_20250306_172033.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export v1.Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "live", export.Mode)
	assert.Equal(t, int64(20), export.WindowEnd)
	assert.Equal(t, "2025-03-06T17:21:33Z", export.ExportedAt)
	require.Len(t, export.Ships, 1)
	assert.Equal(t, "9996903", export.Ships[0].IMO)

	// A finished export no longer accepts ships.
	assert.ErrorIs(t, b.SaveShip(ship("2", "b")), ErrNoExport)
}

func TestEndExport_WritesGzip(t *testing.T) {
	b := newTestBackend(t, true)
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(ship("1", "a")))
	require.NoError(t, b.EndExport())

	path := b.ExportedFilePath()
	assert.True(t, strings.HasSuffix(path, ".json.gz"), path)
	assert.Contains(t, filepath.Base(path), "20250306_172133")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var export v1.Export
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "mock", export.Mode)
	assert.Len(t, export.Ships, 1)
}

func TestEndExport_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	b := New(config.MemoryConfig{OutputDir: filepath.Join(file, "sub")})
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	assert.Error(t, b.EndExport())
	assert.Empty(t, b.ExportedFilePath())
}
