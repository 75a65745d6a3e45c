// Package geo projects ship positions and paths for storage and web maps.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/sailboard/dashboard/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Positions are stored as EPSG:3857 so SQLite, which has no spatial types,
// holds the same WKB as Postgres.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LocationFromString parses "lat,lon" into a location.
func LocationFromString(coords string) (core.Location, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Location{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	loc := core.Location{Latitude: lat, Longitude: lon}
	if !Valid(loc) {
		return core.Location{}, ErrInvalidCoordinates
	}
	return loc, nil
}

// Valid reports whether the location is a finite WGS84 coordinate.
func Valid(loc core.Location) bool {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) {
		return false
	}
	return loc.Latitude >= -90 && loc.Latitude <= 90 &&
		loc.Longitude >= -180 && loc.Longitude <= 180
}

// ToWebMercator converts a WGS84 location to EPSG:3857 metres.
func ToWebMercator(loc core.Location) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(loc.Longitude, loc.Latitude, 0)
	return x, y
}

// FromWebMercator converts EPSG:3857 metres back to a WGS84 location.
func FromWebMercator(x, y float64) core.Location {
	f := wgs84.EPSG().Transform(3857, 4326)
	lon, lat, _ := f(x, y, 0)
	return core.Location{Latitude: lat, Longitude: lon}
}

// Point3857 builds the stored point for a location.
func Point3857(loc core.Location) geom.Point {
	x, y := ToWebMercator(loc)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}

// LocationFromPoint reverses Point3857. An empty point yields the zero location.
func LocationFromPoint(p geom.Point) core.Location {
	xy, ok := p.XY()
	if !ok {
		return core.Location{}
	}
	return FromWebMercator(xy.X, xy.Y)
}

func locationOf(p [2]float64) core.Location {
	return core.Location{Latitude: p[0], Longitude: p[1]}
}
