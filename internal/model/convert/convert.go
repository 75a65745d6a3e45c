// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sailboard/dashboard/internal/geo"
	"github.com/sailboard/dashboard/internal/model"
	"github.com/sailboard/dashboard/pkg/core"
)

// ExportToCore converts a stored export row back to its metadata.
func ExportToCore(e model.FleetExport) core.ExportMeta {
	return core.ExportMeta{
		Mode:      e.Mode,
		Window:    core.TimeWindow{Start: e.WindowStart, End: e.WindowEnd},
		StartedAt: e.StartedAt,
	}
}

// SnapshotToCore converts a stored snapshot back to the assembled ship view.
// The ID is the registration number, as for a freshly assembled fleet.
// Corrupt statistics or chart JSON is an error rather than an empty field.
func SnapshotToCore(s model.ShipSnapshot) (core.Ship, error) {
	ship := core.Ship{
		ID:                 s.IMO,
		RegistrationNumber: s.IMO,
		Name:               s.Name,
		VehicleType:        s.VehicleType,
		Status:             s.Status,
		Destination:        s.Destination,
		ETA:                s.ETA,
		DisplayColor:       s.Color,
		HasData:            s.HasData,
		CurrentPosition:    geo.LocationFromPoint(s.Position),
		Path:               geo.PathFromLineString(s.Path),
	}
	if len(s.Statistics) > 0 {
		if err := json.Unmarshal(s.Statistics, &ship.Statistics); err != nil {
			return core.Ship{}, fmt.Errorf("decoding statistics of %s: %w", s.IMO, err)
		}
	}
	if len(s.Charts) > 0 {
		if err := json.Unmarshal(s.Charts, &ship.Charts); err != nil {
			return core.Ship{}, fmt.Errorf("decoding charts of %s: %w", s.IMO, err)
		}
	}

	samples := append([]model.ShipSample(nil), s.Samples...)
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Seq < samples[j].Seq })
	if len(samples) > 0 {
		ship.Samples = make([]core.TelemetrySample, len(samples))
		for i, sample := range samples {
			ship.Samples[i] = SampleToCore(sample)
		}
	}
	return ship, nil
}

// SampleToCore converts a stored sample to a core.TelemetrySample.
func SampleToCore(s model.ShipSample) core.TelemetrySample {
	return core.TelemetrySample{
		Timestamp:        s.Time.Unix(),
		WindSpeed:        s.WindSpeed,
		FanSpeed:         s.FanSpeed,
		WindAngle:        s.WindAngle,
		Location:         geo.LocationFromPoint(s.Position),
		SpeedOverGround:  s.SpeedOverGround,
		CourseOverGround: s.CourseOverGround,
		Heading:          s.Heading,
		RudderAngle:      s.RudderAngle,
	}
}
