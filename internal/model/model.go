package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&SailboardInfo{},
	&FleetExport{},
	&ShipSnapshot{},
	&ShipSample{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// SailboardInfo records the schema owner of the database.
type SailboardInfo struct {
	gorm.Model
	FleetName   string `json:"fleetName" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
}

func (*SailboardInfo) TableName() string {
	return "sailboard_infos"
}

////////////////////////
// SNAPSHOT MODELS
////////////////////////

// FleetExport is one run of the export command.
type FleetExport struct {
	gorm.Model
	Mode        string    `json:"mode" gorm:"size:16"`
	WindowStart int64     `json:"windowStart"`
	WindowEnd   int64     `json:"windowEnd"`
	StartedAt   time.Time `json:"startedAt" gorm:"index:idx_fleet_export_started_at"`
	ShipCount   int       `json:"shipCount"`
}

func (*FleetExport) TableName() string {
	return "fleet_exports"
}

// ShipSnapshot is the assembled ship view at export time.
// Statistics and Charts keep their JSON shape; Path is stored as an EPSG:3857 LineString.
type ShipSnapshot struct {
	ID           uint            `json:"id" gorm:"primarykey;autoIncrement"`
	ExportID     uint            `json:"exportId" gorm:"index:idx_ship_snapshot_export_id"`
	Export       FleetExport     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:ExportID;"`
	IMO          string          `json:"imo" gorm:"size:16;index:idx_ship_snapshot_imo"`
	Name         string          `json:"name" gorm:"size:127"`
	VehicleType  string          `json:"type" gorm:"size:64"`
	Status       string          `json:"status" gorm:"size:64"`
	Destination  string          `json:"destination" gorm:"size:127"`
	ETA          string          `json:"eta" gorm:"size:64"`
	Color        string          `json:"color" gorm:"size:16"`
	HasData      bool            `json:"hasData"`
	Position     geom.Point      `json:"position"`
	Path         geom.LineString `json:"path"`
	SampleCount  int             `json:"sampleCount"`
	Statistics   datatypes.JSON  `json:"statistics"`
	Charts       datatypes.JSON  `json:"charts"`
	Samples      []ShipSample    `json:"samples" gorm:"foreignkey:SnapshotID"`
}

func (*ShipSnapshot) TableName() string {
	return "ship_snapshots"
}

// ShipSample is one telemetry sample of a snapshot.
type ShipSample struct {
	ID               uint       `json:"id" gorm:"primarykey;autoIncrement"`
	SnapshotID       uint       `json:"snapshotId" gorm:"index:idx_ship_sample_snapshot_id"`
	Time             time.Time  `json:"time" gorm:"index:idx_ship_sample_time"`
	Seq              int        `json:"seq"`
	WindSpeed        float64    `json:"windSpeed"`
	FanSpeed         float64    `json:"fanSpeed"`
	WindAngle        float64    `json:"windAngle"`
	Position         geom.Point `json:"position"`
	SpeedOverGround  float64    `json:"sog"`
	CourseOverGround float64    `json:"cog"`
	Heading          float64    `json:"hdg"`
	RudderAngle      float64    `json:"rudderAngle"`
}

func (*ShipSample) TableName() string {
	return "ship_samples"
}
