package core

import (
	"encoding/json"
	"time"
)

// Location is a WGS84 coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LatLon returns the location as a [lat, lon] path point.
func (l Location) LatLon() [2]float64 {
	return [2]float64{l.Latitude, l.Longitude}
}

// TelemetrySample is one sensor reading at one instant.
// Timestamp is Unix seconds.
type TelemetrySample struct {
	Timestamp        int64    `json:"timestamp"`
	WindSpeed        float64  `json:"wind_speed"`
	FanSpeed         float64  `json:"fan_speed"`
	WindAngle        float64  `json:"windAngle"`
	Location         Location `json:"location"`
	SpeedOverGround  float64  `json:"sog"`
	CourseOverGround float64  `json:"cog"`
	Heading          float64  `json:"hdg"`
	RudderAngle      float64  `json:"rudderAngle"`
}

// Time returns the sample timestamp as a UTC time.
func (s TelemetrySample) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

// MetricStats holds the aggregated values of one metric.
type MetricStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Statistics holds per-metric aggregates for a ship.
type Statistics struct {
	WindSpeed MetricStats `json:"wind_speed"`
	FanSpeed  MetricStats `json:"fan_speed"`
}

// ChartDataset is one series of a chart.
type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BackgroundColor Colors    `json:"backgroundColor,omitempty"`
}

// Colors is a dataset fill. One color encodes as a string, several as an
// array with one entry per slice.
type Colors []string

func (c Colors) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

func (c *Colors) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = Colors{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

// ChartData is a labelled set of datasets ready for rendering.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ShipCharts groups every chart the ship views render.
// Cargo and Maintenance carry placeholder values; the backend has no source for them.
type ShipCharts struct {
	Performance  ChartData `json:"performanceData"`
	WindSpeed    ChartData `json:"windSpeedData"`
	FanSpeed     ChartData `json:"fanSpeedData"`
	WingRotation ChartData `json:"wingRotationData"`
	Cargo        ChartData `json:"cargoData"`
	Maintenance  ChartData `json:"maintenanceData"`
}

// Ship is the assembled view of one tracked vessel.
// len(Path) == len(Samples) whenever both are populated, and HasData is true
// iff Samples is non-empty.
type Ship struct {
	ID                 string            `json:"id"`
	RegistrationNumber string            `json:"imo"`
	Name               string            `json:"name"`
	VehicleType        string            `json:"type"`
	Status             string            `json:"status"`
	Destination        string            `json:"destination"`
	ETA                string            `json:"eta"`
	CurrentPosition    Location          `json:"position"`
	Path               [][2]float64      `json:"path"`
	Samples            []TelemetrySample `json:"timeSeriesData"`
	Statistics         Statistics        `json:"statistics"`
	HasData            bool              `json:"hasData"`
	DisplayColor       string            `json:"color"`
	Charts             ShipCharts        `json:"charts"`
}

// TimeWindow is an inclusive range of Unix seconds.
type TimeWindow struct {
	Start int64 `json:"start_time"`
	End   int64 `json:"end_time"`
}

// LastWindow returns the window of the given length ending at now.
func LastWindow(now time.Time, length time.Duration) TimeWindow {
	end := now.Unix()
	return TimeWindow{Start: end - int64(length/time.Second), End: end}
}
