package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// PathLineString converts a [lat, lon] path into an EPSG:3857 LineString.
// Paths with fewer than two points yield an empty LineString.
func PathLineString(path [][2]float64) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, nil
	}

	flatCoords := make([]float64, 0, len(path)*2)
	for i, p := range path {
		loc := locationOf(p)
		if !Valid(loc) {
			return geom.LineString{}, fmt.Errorf("path point %d: %w", i, ErrInvalidCoordinates)
		}
		x, y := ToWebMercator(loc)
		flatCoords = append(flatCoords, x, y)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// PathFromLineString reverses PathLineString.
func PathFromLineString(ls geom.LineString) [][2]float64 {
	seq := ls.Coordinates()
	n := seq.Length()
	if n == 0 {
		return nil
	}
	path := make([][2]float64, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		path[i] = FromWebMercator(xy.X, xy.Y).LatLon()
	}
	return path
}

// PathWKT renders the path as WKT, or "" when it has fewer than two points.
func PathWKT(path [][2]float64) (string, error) {
	ls, err := PathLineString(path)
	if err != nil {
		return "", err
	}
	if ls.IsEmpty() {
		return "", nil
	}
	return ls.AsText(), nil
}
