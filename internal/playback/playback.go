// Package playback maps slider positions and time ranges to sample indices.
package playback

import (
	"math"

	"github.com/sailboard/dashboard/pkg/core"
)

// epsilon absorbs float error so ScrubPercent(i) resolves back to i.
const epsilon = 1e-9

// ResolveIndex maps a scrub percentage in [0, 100] to a sample index.
// ok is false when the ship has no samples; the index is then 0.
func ResolveIndex(ship core.Ship, scrubPercent float64) (index int, ok bool) {
	n := len(ship.Samples)
	if n == 0 {
		return 0, false
	}
	if math.IsNaN(scrubPercent) {
		return 0, true
	}
	idx := int(math.Floor(scrubPercent/100*float64(n-1) + epsilon))
	return clamp(idx, 0, n-1), true
}

// ResolveIndexFromRange returns the sample closest to the midpoint of
// [start, end]. Ties go to the earliest sample.
func ResolveIndexFromRange(ship core.Ship, start, end int64) (index int, ok bool) {
	if len(ship.Samples) == 0 {
		return 0, false
	}
	// Distances are doubled so an odd-width range keeps its half-second midpoint.
	mid2 := start + end

	best, bestDist := 0, int64(math.MaxInt64)
	for i, s := range ship.Samples {
		d := 2*s.Timestamp - mid2
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, true
}

// ScrubPercent is the inverse of ResolveIndex: the slider position of a sample.
func ScrubPercent(index, n int) float64 {
	if n <= 1 {
		return 0
	}
	index = clamp(index, 0, n-1)
	return float64(index) / float64(n-1) * 100
}

// Sample returns the sample at the resolved scrub position.
func Sample(ship core.Ship, scrubPercent float64) (core.TelemetrySample, bool) {
	idx, ok := ResolveIndex(ship, scrubPercent)
	if !ok {
		return core.TelemetrySample{}, false
	}
	return ship.Samples[idx], true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
