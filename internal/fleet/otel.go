package fleet

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/sailboard/dashboard/internal/fleet"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	fetches  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	m := meter()
	var (
		in  instruments
		err error
	)

	in.fetches, err = m.Int64Counter(
		"fleet.ship.fetches",
		metric.WithDescription("Per-ship statistics fetches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fetch counter: %w", err)
	}

	in.failures, err = m.Int64Counter(
		"fleet.ship.failures",
		metric.WithDescription("Per-ship fetches replaced by a placeholder"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	in.duration, err = m.Float64Histogram(
		"fleet.assemble.duration",
		metric.WithDescription("Time to assemble a live fleet"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &in, nil
}
