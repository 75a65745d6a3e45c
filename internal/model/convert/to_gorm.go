package convert

import (
	"encoding/json"
	"fmt"

	"github.com/sailboard/dashboard/internal/geo"
	"github.com/sailboard/dashboard/internal/model"
	"github.com/sailboard/dashboard/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column, falling back to an empty object.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToExport converts export metadata to a GORM model.FleetExport.
func CoreToExport(meta core.ExportMeta) model.FleetExport {
	return model.FleetExport{
		Mode:        meta.Mode,
		WindowStart: meta.Window.Start,
		WindowEnd:   meta.Window.End,
		StartedAt:   meta.StartedAt,
	}
}

// CoreToSnapshot converts an assembled ship to a GORM model.ShipSnapshot with its samples.
func CoreToSnapshot(s core.Ship, exportID uint) (model.ShipSnapshot, error) {
	path, err := geo.PathLineString(s.Path)
	if err != nil {
		return model.ShipSnapshot{}, fmt.Errorf("ship %s path: %w", s.RegistrationNumber, err)
	}

	samples := make([]model.ShipSample, len(s.Samples))
	for i, sample := range s.Samples {
		samples[i] = CoreToSample(sample, i)
	}

	return model.ShipSnapshot{
		ExportID:    exportID,
		IMO:         s.RegistrationNumber,
		Name:        s.Name,
		VehicleType: s.VehicleType,
		Status:      s.Status,
		Destination: s.Destination,
		ETA:         s.ETA,
		Color:       s.DisplayColor,
		HasData:     s.HasData,
		Position:    geo.Point3857(s.CurrentPosition),
		Path:        path,
		SampleCount: len(s.Samples),
		Statistics:  toJSON(s.Statistics),
		Charts:      toJSON(s.Charts),
		Samples:     samples,
	}, nil
}

// CoreToSample converts one telemetry sample; seq keeps the sample order.
func CoreToSample(s core.TelemetrySample, seq int) model.ShipSample {
	return model.ShipSample{
		Time:             s.Time(),
		Seq:              seq,
		WindSpeed:        s.WindSpeed,
		FanSpeed:         s.FanSpeed,
		WindAngle:        s.WindAngle,
		Position:         geo.Point3857(s.Location),
		SpeedOverGround:  s.SpeedOverGround,
		CourseOverGround: s.CourseOverGround,
		Heading:          s.Heading,
		RudderAngle:      s.RudderAngle,
	}
}
