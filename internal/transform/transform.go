// Package transform turns backend statistics responses into ship records.
package transform

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sailboard/dashboard/internal/transform/placeholder"
	"github.com/sailboard/dashboard/pkg/core"
)

// Metric keys of the aggregated results.
const (
	MetricWindSpeed = "wind_speed"
	MetricFanSpeed  = "fan_speed"
)

// Defaults for descriptive fields the backend leaves out.
const (
	DefaultStatus      = "En Route"
	DefaultDestination = "Rotterdam, Netherlands"
	DefaultVehicleType = "Cargo Ship"

	// LabelLayout formats chart labels from sample times.
	LabelLayout = "15:04:05"
	etaLayout   = "2006-01-02"
)

// MalformedRecordError is returned when a response cannot become a ship record.
type MalformedRecordError struct {
	IMO    string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record for imo %q: %s", e.IMO, e.Reason)
}

// Transformer converts statistics responses. Safe for concurrent use.
type Transformer struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClock sets the clock used for the default ETA.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithSeed makes the cargo and maintenance placeholders reproducible.
func WithSeed(seed int64) Option {
	return func(t *Transformer) {
		t.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Color returns the stable display color for a registration number.
func Color(imo string) string {
	return placeholder.Palette[xxhash.Sum64String(imo)%uint64(len(placeholder.Palette))]
}

// InferVehicleType guesses the vessel type from its name.
func InferVehicleType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "tanker"):
		return "Tanker"
	case strings.Contains(lower, "container"):
		return "Container Ship"
	case strings.Contains(lower, "bulk"):
		return "Bulk Carrier"
	default:
		return DefaultVehicleType
	}
}

// Transform builds a ship record from one statistics response.
// Any failure is a *MalformedRecordError carrying the registration number.
func (t *Transformer) Transform(resp *core.StatisticsResponse) (ship core.Ship, err error) {
	if resp == nil {
		return core.Ship{}, &MalformedRecordError{Reason: "empty response"}
	}
	defer func() {
		if r := recover(); r != nil {
			ship = core.Ship{}
			err = &MalformedRecordError{IMO: resp.IMO, Reason: fmt.Sprint(r)}
		}
	}()

	if resp.IMO == "" {
		return core.Ship{}, &MalformedRecordError{Reason: "missing imo"}
	}
	if resp.Name == "" {
		return core.Ship{}, &MalformedRecordError{IMO: resp.IMO, Reason: "missing name"}
	}

	samples := Samples(resp.Timed)
	path := make([][2]float64, len(samples))
	for i, s := range samples {
		path[i] = s.Location.LatLon()
	}

	position := core.Location{Latitude: placeholder.OriginLatitude, Longitude: placeholder.OriginLongitude}
	if len(samples) > 0 {
		position = samples[len(samples)-1].Location
	}

	ship = core.Ship{
		ID:                 resp.IMO,
		RegistrationNumber: resp.IMO,
		Name:               resp.Name,
		VehicleType:        InferVehicleType(resp.Name),
		Status:             DefaultStatus,
		Destination:        DefaultDestination,
		ETA:                t.now().Add(24 * time.Hour).Format(etaLayout),
		CurrentPosition:    position,
		Path:               path,
		Samples:            samples,
		Statistics:         Statistics(resp.Aggregated),
		HasData:            len(samples) > 0,
		DisplayColor:       Color(resp.IMO),
	}
	if info := resp.ShipData; info != nil {
		ship.VehicleType = orDefault(info.Type, ship.VehicleType)
		ship.Status = orDefault(info.Status, ship.Status)
		ship.Destination = orDefault(info.Destination, ship.Destination)
		ship.ETA = orDefault(info.ETA, ship.ETA)
	}
	ship.Charts = t.charts(samples)

	return ship, nil
}

// Statistics copies the aggregated wind and fan figures. Missing values are 0.
func Statistics(agg core.ResultsAggregated) core.Statistics {
	metric := func(key string) core.MetricStats {
		return core.MetricStats{
			Avg: agg.Avg[key],
			Min: agg.Min[key],
			Max: agg.Max[key],
		}
	}
	return core.Statistics{
		WindSpeed: metric(MetricWindSpeed),
		FanSpeed:  metric(MetricFanSpeed),
	}
}

// Samples converts raw results into telemetry samples ordered by timestamp.
// Real values always win; missing position and navigation values come from
// the placeholder generator, indexed by sample position.
func Samples(timed []core.TimedResult) []core.TelemetrySample {
	ordered := make([]core.TimedResult, len(timed))
	copy(ordered, timed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	samples := make([]core.TelemetrySample, len(ordered))
	for i, r := range ordered {
		s := core.TelemetrySample{
			Timestamp:        r.Timestamp,
			Location:         placeholder.Location(i),
			SpeedOverGround:  placeholder.SpeedOverGround(i),
			CourseOverGround: placeholder.CourseOverGround(i),
			Heading:          placeholder.Heading(i),
			RudderAngle:      placeholder.RudderAngle(i),
		}
		if len(r.SailData) > 0 {
			sail := r.SailData[0]
			s.WindSpeed = value(sail.WindSpeed, 0)
			s.FanSpeed = value(sail.FanSpeed, 0)
			s.WindAngle = value(sail.WindAngle, value(sail.WindRotationAngle, 0))
		}
		if nav := r.ShipData; nav != nil {
			if nav.Location != nil {
				s.Location = *nav.Location
			}
			s.SpeedOverGround = value(nav.SOG, s.SpeedOverGround)
			s.CourseOverGround = value(nav.COG, s.CourseOverGround)
			s.Heading = value(nav.HDG, s.Heading)
			s.RudderAngle = value(nav.RudderAngle, s.RudderAngle)
		}
		samples[i] = s
	}
	return samples
}

func (t *Transformer) charts(samples []core.TelemetrySample) core.ShipCharts {
	labels := make([]string, len(samples))
	wind := make([]float64, len(samples))
	fan := make([]float64, len(samples))
	angle := make([]float64, len(samples))
	for i, s := range samples {
		labels[i] = s.Time().Format(LabelLayout)
		wind[i] = s.WindSpeed
		fan[i] = s.FanSpeed
		angle[i] = s.WindAngle
	}

	windSet := core.ChartDataset{Label: "Wind Speed (knots)", Data: wind, BorderColor: "#6366f1", BackgroundColor: core.Colors{"rgba(99, 102, 241, 0.1)"}}
	fanSet := core.ChartDataset{Label: "Fan Speed (RPM)", Data: fan, BorderColor: "#10B981", BackgroundColor: core.Colors{"rgba(16, 185, 129, 0.1)"}}
	angleSet := core.ChartDataset{Label: "Wing Rotation (°)", Data: angle, BorderColor: "#F59E0B", BackgroundColor: core.Colors{"rgba(245, 158, 11, 0.1)"}}

	t.mu.Lock()
	cargo := placeholder.Cargo(t.rng)
	maintenance := placeholder.Maintenance(t.rng)
	t.mu.Unlock()

	return core.ShipCharts{
		Performance:  core.ChartData{Labels: labels, Datasets: []core.ChartDataset{windSet, fanSet}},
		WindSpeed:    core.ChartData{Labels: labels, Datasets: []core.ChartDataset{windSet}},
		FanSpeed:     core.ChartData{Labels: labels, Datasets: []core.ChartDataset{fanSet}},
		WingRotation: core.ChartData{Labels: labels, Datasets: []core.ChartDataset{angleSet}},
		Cargo:        cargo,
		Maintenance:  maintenance,
	}
}

func value(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
