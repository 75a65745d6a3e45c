package gormstorage

import (
	"testing"
	"time"

	"github.com/sailboard/dashboard/internal/database"
	"github.com/sailboard/dashboard/internal/model"
	"github.com/sailboard/dashboard/internal/storage"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)

	b := New(Dependencies{DB: db})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testShip(imo string, samples int) *core.Ship {
	s := &core.Ship{
		ID:                 imo,
		RegistrationNumber: imo,
		Name:               "Ship " + imo,
		HasData:            samples > 0,
		CurrentPosition:    core.Location{Latitude: 52.371, Longitude: 4.895},
	}
	for i := 0; i < samples; i++ {
		loc := core.Location{Latitude: 52.371 + float64(i)*0.001, Longitude: 4.895}
		s.Samples = append(s.Samples, core.TelemetrySample{
			Timestamp: 1741281633 + int64(i)*900,
			WindSpeed: float64(10 + i),
			Location:  loc,
		})
		s.Path = append(s.Path, loc.LatLon())
	}
	return s
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestSaveShip_RequiresExport(t *testing.T) {
	b := newTestBackend(t)
	assert.ErrorIs(t, b.SaveShip(testShip("1", 0)), ErrNoExport)
	assert.ErrorIs(t, b.EndExport(), ErrNoExport)
}

func TestExportLifecycle(t *testing.T) {
	b := newTestBackend(t)
	meta := &core.ExportMeta{Mode: "live", Window: core.TimeWindow{Start: 1741281633, End: 1741317363}, StartedAt: time.Now().UTC()}

	require.NoError(t, b.StartExport(meta))
	require.NoError(t, b.SaveShip(testShip("9996903", 3)))
	require.NoError(t, b.SaveShip(testShip("999690", 0)))
	assert.Equal(t, 2, b.pending.Len())

	require.NoError(t, b.EndExport())
	assert.Equal(t, 0, b.pending.Len())

	export, ships, err := b.LatestExport()
	require.NoError(t, err)
	assert.Equal(t, "live", export.Mode)
	assert.Equal(t, 2, export.ShipCount)
	assert.Equal(t, int64(1741317363), export.WindowEnd)

	require.Len(t, ships, 2)
	assert.Equal(t, "9996903", ships[0].ID)
	require.Len(t, ships[0].Samples, 3)
	assert.Equal(t, int64(1741281633+900), ships[0].Samples[1].Timestamp)
	assert.Equal(t, 11.0, ships[0].Samples[1].WindSpeed)
	require.Len(t, ships[0].Path, 3)
	assert.InDelta(t, 52.373, ships[0].Path[2][0], 1e-9)

	assert.Equal(t, "999690", ships[1].ID)
	assert.False(t, ships[1].HasData)
	assert.Empty(t, ships[1].Samples)
}

func TestExportsAreSeparate(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(testShip("1", 1)))
	require.NoError(t, b.EndExport())

	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "live"}))
	require.NoError(t, b.SaveShip(testShip("2", 1)))
	require.NoError(t, b.SaveShip(testShip("3", 1)))
	require.NoError(t, b.EndExport())

	var count int64
	require.NoError(t, b.db.Model(&model.FleetExport{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	export, ships, err := b.LatestExport()
	require.NoError(t, err)
	assert.Equal(t, "live", export.Mode)
	assert.Len(t, ships, 2)

	first, err := b.Ships(export.ID - 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "1", first[0].ID)

	exports, err := b.Exports()
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, "mock", exports[0].Mode)
	assert.Equal(t, 2, exports[1].ShipCount)
}

func TestShips_CorruptChartsSurface(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(testShip("1", 1)))
	require.NoError(t, b.EndExport())

	require.NoError(t, b.db.Model(&model.ShipSnapshot{}).Where("imo = ?", "1").Update("charts", "[").Error)

	exports, err := b.Exports()
	require.NoError(t, err)
	require.Len(t, exports, 1)

	_, err = b.Ships(exports[0].ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding charts of 1")
}

func TestSaveShip_InvalidPath(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))

	s := testShip("1", 2)
	s.Path[1] = [2]float64{120, 0}
	assert.Error(t, b.SaveShip(s))
	assert.Equal(t, 0, b.pending.Len())
}

func TestFlushLoop(t *testing.T) {
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartExport(&core.ExportMeta{Mode: "mock"}))
	require.NoError(t, b.SaveShip(testShip("1", 2)))

	assert.Eventually(t, func() bool {
		var count int64
		b.db.Model(&model.ShipSnapshot{}).Count(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)
}
