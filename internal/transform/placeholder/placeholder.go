// Package placeholder generates filler values for fields the telemetry
// backend does not supply. Nothing produced here is real navigation or
// operational data; it only keeps maps and charts from rendering empty.
// Drop a generator once a real source for its field exists.
package placeholder

import (
	"math"
	"math/rand"

	"github.com/sailboard/dashboard/pkg/core"
)

// Origin of synthesized paths (Amsterdam).
const (
	OriginLatitude  = 52.371
	OriginLongitude = 4.895
)

// Unknown is used for every descriptive field of a ship without data.
const Unknown = "Unknown"

// UnknownColor is the display color of ships without data.
const UnknownColor = "#6366f1"

// Palette is the fixed set of ship display colors.
var Palette = []string{"#6366f1", "#8B5CF6", "#EC4899", "#10B981", "#F59E0B", "#EF4444"}

// unknownPosition is where ships without data are pinned.
var unknownPosition = core.Location{Latitude: 52.3708, Longitude: 4.8958}

// Location returns the zig-zag point for sample i around the origin.
// Offsets stay within 0.2 degrees of latitude and 0.3 of longitude.
func Location(i int) core.Location {
	latOffset := math.Mod(float64(i)*0.01, 0.2)
	lonOffset := math.Mod(float64(i)*0.015, 0.3)
	if i%2 != 0 {
		latOffset, lonOffset = -latOffset, -lonOffset
	}
	return core.Location{
		Latitude:  OriginLatitude + latOffset,
		Longitude: OriginLongitude + lonOffset,
	}
}

// SpeedOverGround oscillates in [6, 10] knots.
func SpeedOverGround(i int) float64 {
	return 8 + math.Sin(float64(i)*0.5)*2
}

// CourseOverGround turns 5 degrees per sample, in [0, 360).
func CourseOverGround(i int) float64 {
	return math.Mod(45+float64(i)*5, 360)
}

// Heading stays within 10 degrees of the course.
func Heading(i int) float64 {
	return CourseOverGround(i) + math.Sin(float64(i)*0.3)*10
}

// RudderAngle oscillates in [-15, 15] degrees.
func RudderAngle(i int) float64 {
	return math.Sin(float64(i)*0.7) * 15
}

type share struct {
	label string
	base  float64
	span  float64
	color string
}

var cargoShares = []share{
	{"General Cargo", 20, 40, "#6366f1"},
	{"Containers", 10, 30, "#8B5CF6"},
	{"Bulk Materials", 5, 20, "#EC4899"},
	{"Liquids", 5, 15, "#10B981"},
}

var maintenanceShares = []share{
	{"Engine", 20, 50, "#6366f1"},
	{"Hull", 10, 40, "#8B5CF6"},
	{"Navigation", 10, 30, "#EC4899"},
	{"Electrical", 15, 25, "#10B981"},
	{"Safety", 10, 20, "#F59E0B"},
}

func randomChart(rng *rand.Rand, label string, shares []share) core.ChartData {
	labels := make([]string, len(shares))
	data := make([]float64, len(shares))
	colors := make(core.Colors, len(shares))
	for i, s := range shares {
		labels[i] = s.label
		data[i] = math.Floor(s.base + rng.Float64()*s.span)
		colors[i] = s.color
	}
	return core.ChartData{
		Labels: labels,
		Datasets: []core.ChartDataset{{
			Label:           label,
			Data:            data,
			BackgroundColor: colors,
		}},
	}
}

// Cargo returns a random cargo mix. There is no backend source for it.
func Cargo(rng *rand.Rand) core.ChartData {
	return randomChart(rng, "Cargo Distribution (%)", cargoShares)
}

// Maintenance returns random maintenance hours. There is no backend source for it.
func Maintenance(rng *rand.Rand) core.ChartData {
	return randomChart(rng, "Maintenance Hours", maintenanceShares)
}

// Ship returns the uniform record for a tracked ship that yielded no data.
func Ship(imo, name string) core.Ship {
	if name == "" {
		name = "IMO " + imo
	}
	return core.Ship{
		ID:                 imo,
		RegistrationNumber: imo,
		Name:               name,
		VehicleType:        Unknown,
		Status:             Unknown,
		Destination:        Unknown,
		ETA:                Unknown,
		CurrentPosition:    unknownPosition,
		Path:               [][2]float64{},
		Samples:            []core.TelemetrySample{},
		HasData:            false,
		DisplayColor:       UnknownColor,
	}
}
