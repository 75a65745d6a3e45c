package placeholder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_ZigZag(t *testing.T) {
	assert.Equal(t, OriginLatitude, Location(0).Latitude)
	assert.Equal(t, OriginLongitude, Location(0).Longitude)

	even := Location(2)
	odd := Location(3)
	assert.Greater(t, even.Latitude, OriginLatitude)
	assert.Less(t, odd.Latitude, OriginLatitude)

	for i := 0; i < 500; i++ {
		loc := Location(i)
		assert.InDelta(t, OriginLatitude, loc.Latitude, 0.2)
		assert.InDelta(t, OriginLongitude, loc.Longitude, 0.3)
		assert.Equal(t, loc, Location(i), "deterministic")
	}
}

func TestNavigationBounds(t *testing.T) {
	for i := 0; i < 500; i++ {
		sog := SpeedOverGround(i)
		assert.GreaterOrEqual(t, sog, 6.0)
		assert.LessOrEqual(t, sog, 10.0)

		cog := CourseOverGround(i)
		assert.GreaterOrEqual(t, cog, 0.0)
		assert.Less(t, cog, 360.0)

		assert.InDelta(t, cog, Heading(i), 10)
		assert.InDelta(t, 0, RudderAngle(i), 15)
	}
}

func TestPieChartsColorEverySlice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cargo := Cargo(rng)
	require.Len(t, cargo.Datasets[0].BackgroundColor, len(cargo.Labels))
	for i, c := range cargo.Datasets[0].BackgroundColor {
		assert.Equal(t, cargoShares[i].color, c)
	}

	m := Maintenance(rng)
	assert.Len(t, m.Datasets[0].BackgroundColor, len(m.Labels))
}

func TestCargoAndMaintenanceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		cargo := Cargo(rng)
		assert.Len(t, cargo.Labels, 4)
		for i, v := range cargo.Datasets[0].Data {
			assert.GreaterOrEqual(t, v, cargoShares[i].base)
			assert.Less(t, v, cargoShares[i].base+cargoShares[i].span)
		}

		m := Maintenance(rng)
		assert.Equal(t, []string{"Engine", "Hull", "Navigation", "Electrical", "Safety"}, m.Labels)
		for i, v := range m.Datasets[0].Data {
			assert.GreaterOrEqual(t, v, maintenanceShares[i].base)
			assert.Less(t, v, maintenanceShares[i].base+maintenanceShares[i].span)
		}
	}
}

func TestShip(t *testing.T) {
	s := Ship("9512331", "NBA Magritte")
	assert.Equal(t, "9512331", s.ID)
	assert.False(t, s.HasData)
	assert.Empty(t, s.Path)
	assert.Empty(t, s.Samples)
	assert.Equal(t, Unknown, s.Status)
	assert.Equal(t, UnknownColor, s.DisplayColor)

	assert.Equal(t, "IMO 1", Ship("1", "").Name)
}
