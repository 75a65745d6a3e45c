package v1

import (
	"time"

	"github.com/sailboard/dashboard/pkg/core"
)

// FleetData contains all the data needed to build an export
type FleetData struct {
	Meta       *core.ExportMeta
	Ships      []core.Ship
	ExportedAt time.Time
}

// Build creates an Export from the fleet data
func Build(data *FleetData) Export {
	export := Export{
		Version:    FormatVersion,
		ExportedAt: data.ExportedAt.UTC().Format(time.RFC3339),
		Ships:      make([]Ship, 0, len(data.Ships)),
	}
	if data.Meta != nil {
		export.Mode = data.Meta.Mode
		export.WindowStart = data.Meta.Window.Start
		export.WindowEnd = data.Meta.Window.End
	}

	for _, s := range data.Ships {
		export.Ships = append(export.Ships, buildShip(s))
	}
	return export
}

func buildShip(s core.Ship) Ship {
	path := s.Path
	if path == nil {
		path = [][2]float64{}
	}
	ship := Ship{
		IMO:         s.RegistrationNumber,
		Name:        s.Name,
		Type:        s.VehicleType,
		Status:      s.Status,
		Destination: s.Destination,
		ETA:         s.ETA,
		Color:       s.DisplayColor,
		HasData:     s.HasData,
		Position:    s.CurrentPosition.LatLon(),
		Path:        path,
		Statistics:  s.Statistics,
		Samples:     make([][]float64, 0, len(s.Samples)),
	}
	for _, sample := range s.Samples {
		ship.Samples = append(ship.Samples, sampleRow(sample))
	}
	return ship
}

func sampleRow(s core.TelemetrySample) []float64 {
	return []float64{
		float64(s.Timestamp),
		s.WindSpeed,
		s.FanSpeed,
		s.WindAngle,
		s.Location.Latitude,
		s.Location.Longitude,
		s.SpeedOverGround,
		s.CourseOverGround,
		s.Heading,
		s.RudderAngle,
	}
}
