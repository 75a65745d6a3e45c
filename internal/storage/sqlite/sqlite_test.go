package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sailboard/dashboard/internal/database"
	"github.com/sailboard/dashboard/internal/model"
	"github.com/sailboard/dashboard/internal/storage"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func TestEndExport_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.db")
	b, err := New(Config{DumpPath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(&core.Ship{ID: "9996903", RegistrationNumber: "9996903", Name: "Amadeus Saffier"}))
	require.NoError(t, b.EndExport())
	require.NoError(t, b.Close())
	assert.Equal(t, path, b.ExportedFilePath())

	disk, err := database.GetSqliteDB(path)
	require.NoError(t, err)
	var snaps []model.ShipSnapshot
	require.NoError(t, disk.Find(&snaps).Error)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Amadeus Saffier", snaps[0].Name)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestClose_WithoutDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())
}
