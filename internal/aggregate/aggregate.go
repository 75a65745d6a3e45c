// Package aggregate derives dashboard metrics from monthly series.
// Every function is pure.
package aggregate

import (
	"fmt"
	"math"
)

// InvalidInputError is returned for series that cannot be aggregated.
type InvalidInputError struct {
	Func   string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Func, e.Reason)
}

func validate(fn string, series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Func: fn, Reason: fmt.Sprintf("value at index %d is not a finite number", i)}
		}
	}
	return nil
}

// GrowthRate returns the month-over-month change in percent.
// Index 0 is always 0. A month rising from 0 counts as 100; a month at 0 is 0.
func GrowthRate(series []float64) ([]float64, error) {
	if err := validate("GrowthRate", series); err != nil {
		return nil, err
	}
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		cur, prev := series[i], series[i-1]
		switch {
		case cur == 0:
			out[i] = 0
		case prev == 0 && cur > 0:
			out[i] = 100
		case prev == 0:
			out[i] = 0
		default:
			out[i] = (cur - prev) / math.Abs(prev) * 100
		}
	}
	return out, nil
}

// CapPercent limits values to at most limit, for charts that cannot show
// larger magnitudes. The input is not modified.
func CapPercent(values []float64, limit float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Min(v, limit)
	}
	return out
}

// MovingAverage3 returns the trailing three-month mean. The first two
// entries are nil.
func MovingAverage3(series []float64) ([]*float64, error) {
	if err := validate("MovingAverage3", series); err != nil {
		return nil, err
	}
	out := make([]*float64, len(series))
	for i := 2; i < len(series); i++ {
		avg := (series[i] + series[i-1] + series[i-2]) / 3
		out[i] = &avg
	}
	return out, nil
}

// ARPU returns revenue per active user per month. Months with fewer than one
// user divide by one.
func ARPU(revenue, users []float64) ([]float64, error) {
	if len(revenue) != len(users) {
		return nil, &InvalidInputError{
			Func:   "ARPU",
			Reason: fmt.Sprintf("revenue has %d months, users has %d", len(revenue), len(users)),
		}
	}
	if err := validate("ARPU", revenue); err != nil {
		return nil, err
	}
	if err := validate("ARPU", users); err != nil {
		return nil, err
	}
	out := make([]float64, len(revenue))
	for i := range revenue {
		out[i] = revenue[i] / math.Max(users[i], 1)
	}
	return out, nil
}
