package fleet

import (
	"math"

	"github.com/sailboard/dashboard/pkg/core"
)

const (
	mockSamples  = 48
	mockInterval = 15 * 60
)

type mockVoyage struct {
	tracked  Tracked
	info     core.ShipInfo
	origin   core.Location
	heading  core.Location
	baseWind float64
	baseFan  float64
	phase    float64
}

// mockVoyages is the fixed demo fleet shown in mock mode.
var mockVoyages = []mockVoyage{
	{
		tracked:  Tracked{IMO: "9996903", Name: "Amadeus Saffier"},
		info:     core.ShipInfo{Type: "Bulk Carrier", Status: "En Route", Destination: "Rotterdam, Netherlands", ETA: "2025-03-08"},
		origin:   core.Location{Latitude: 53.10, Longitude: 3.20},
		heading:  core.Location{Latitude: -0.012, Longitude: 0.018},
		baseWind: 12,
		baseFan:  320,
		phase:    0,
	},
	{
		tracked:  Tracked{IMO: "9512331", Name: "NBA Magritte"},
		info:     core.ShipInfo{Type: "Cargo Ship", Status: "En Route", Destination: "Antwerp, Belgium", ETA: "2025-03-07"},
		origin:   core.Location{Latitude: 51.45, Longitude: 1.90},
		heading:  core.Location{Latitude: 0.004, Longitude: 0.022},
		baseWind: 9,
		baseFan:  280,
		phase:    1.3,
	},
	{
		tracked:  Tracked{IMO: "999690", Name: "Amadeus"},
		info:     core.ShipInfo{Type: "Cargo Ship", Status: "Anchored", Destination: "Hamburg, Germany", ETA: "2025-03-09"},
		origin:   core.Location{Latitude: 54.05, Longitude: 7.40},
		heading:  core.Location{Latitude: 0.002, Longitude: 0.003},
		baseWind: 15,
		baseFan:  350,
		phase:    2.1,
	},
}

// MockResponses returns the raw backend payloads behind the mock fleet.
// Values are deterministic so the mock fleet is identical on every call.
func MockResponses(window core.TimeWindow) []*core.StatisticsResponse {
	out := make([]*core.StatisticsResponse, 0, len(mockVoyages))
	for _, v := range mockVoyages {
		out = append(out, v.response(window.Start))
	}
	return out
}

func (v mockVoyage) response(start int64) *core.StatisticsResponse {
	timed := make([]core.TimedResult, mockSamples)
	wind := make([]float64, mockSamples)
	fan := make([]float64, mockSamples)

	for i := 0; i < mockSamples; i++ {
		x := float64(i)
		ws := round2(v.baseWind + 4*math.Sin(x/4+v.phase))
		fs := round2(v.baseFan + 40*math.Cos(x/5+v.phase))
		wa := math.Mod(90+x*3+v.phase*20, 360)
		loc := core.Location{
			Latitude:  v.origin.Latitude + x*v.heading.Latitude,
			Longitude: v.origin.Longitude + x*v.heading.Longitude,
		}
		sog := round2(7 + 2*math.Sin(x/6+v.phase))
		cog := math.Mod(math.Atan2(v.heading.Longitude, v.heading.Latitude)*180/math.Pi+360, 360)

		wind[i], fan[i] = ws, fs
		timed[i] = core.TimedResult{
			Timestamp: start + int64(i*mockInterval),
			SailData: []core.SailData{{
				SailID:    "1",
				WindSpeed: &ws,
				FanSpeed:  &fs,
				WindAngle: &wa,
			}},
			ShipData: &core.ShipDataPoint{
				Location: &loc,
				SOG:      &sog,
				COG:      &cog,
			},
		}
	}

	info := v.info
	return &core.StatisticsResponse{
		IMO:   v.tracked.IMO,
		Name:  v.tracked.Name,
		Meta:  core.ResultsMeta{DataPointsCollected: mockSamples},
		Timed: timed,
		Aggregated: core.ResultsAggregated{
			Min: map[string]float64{"wind_speed": minOf(wind), "fan_speed": minOf(fan)},
			Max: map[string]float64{"wind_speed": maxOf(wind), "fan_speed": maxOf(fan)},
			Avg: map[string]float64{"wind_speed": round2(avgOf(wind)), "fan_speed": round2(avgOf(fan))},
		},
		ShipData: &info,
	}
}

// mockFleet transforms the mock payloads. It never touches the network.
func (a *Assembler) mockFleet() []core.Ship {
	responses := MockResponses(a.window)
	ships := make([]core.Ship, 0, len(responses))
	for _, resp := range responses {
		ship, err := a.transformer.Transform(resp)
		if err != nil {
			a.logger.Error("Mock record failed to transform", "imo", resp.IMO, "error", err)
			continue
		}
		ships = append(ships, ship)
	}
	SortForSelection(ships)
	return ships
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}

func avgOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
