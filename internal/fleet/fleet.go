// Package fleet assembles the list of tracked ships from mock or live data.
package fleet

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/internal/transform"
	"github.com/sailboard/dashboard/internal/transform/placeholder"
	"github.com/sailboard/dashboard/pkg/core"
)

// Source fetches the raw statistics of one ship. *api.Client satisfies it.
type Source interface {
	ShipStatistics(ctx context.Context, imo string, window core.TimeWindow) (*core.StatisticsResponse, error)
}

// Tracked identifies a ship the dashboard follows.
type Tracked struct {
	IMO  string `json:"imo" mapstructure:"imo"`
	Name string `json:"name" mapstructure:"name"`
}

// DefaultTracked is the fleet followed when nothing is configured.
var DefaultTracked = []Tracked{
	{IMO: "9996903", Name: "Amadeus Saffier"},
	{IMO: "9512331", Name: "NBA Magritte"},
	{IMO: "999690", Name: "Amadeus"},
}

// DefaultWindow is the statistics window used when nothing is configured.
var DefaultWindow = core.TimeWindow{Start: 1741281633, End: 1741317363}

// Assembler builds fleets. Safe for concurrent use.
type Assembler struct {
	source      Source
	transformer *transform.Transformer
	tracked     []Tracked
	window      core.TimeWindow
	logger      *slog.Logger
	inst        *instruments
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTracked replaces the tracked ships. Duplicate IMOs are dropped.
func WithTracked(tracked []Tracked) Option {
	return func(a *Assembler) {
		a.tracked = dedupe(tracked)
	}
}

// WithWindow replaces the default statistics window.
func WithWindow(w core.TimeWindow) Option {
	return func(a *Assembler) {
		a.window = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Assembler reading live data from source.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(source Source, transformer *transform.Transformer, opts ...Option) (*Assembler, error) {
	if transformer == nil {
		transformer = transform.New()
	}
	a := &Assembler{
		source:      source,
		transformer: transformer,
		tracked:     dedupe(DefaultTracked),
		window:      DefaultWindow,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}
	a.inst = inst
	return a, nil
}

// Tracked returns the ships this assembler follows.
func (a *Assembler) Tracked() []Tracked {
	out := make([]Tracked, len(a.tracked))
	copy(out, a.tracked)
	return out
}

// Window returns the default statistics window.
func (a *Assembler) Window() core.TimeWindow {
	return a.window
}

// GetFleet returns one record per tracked ship over the default window.
func (a *Assembler) GetFleet(ctx context.Context, m mode.Mode) ([]core.Ship, error) {
	return a.GetFleetWindow(ctx, m, a.window)
}

// GetFleetWindow returns one record per tracked ship, data-bearing first.
//
// Individual failures become placeholders. When every request failed (network,
// server, empty or malformed response) the placeholder fleet is returned with
// an *UnavailableError wrapping the last failure.
// An *api.AuthError from any request is returned alongside the fleet.
func (a *Assembler) GetFleetWindow(ctx context.Context, m mode.Mode, window core.TimeWindow) ([]core.Ship, error) {
	if m.IsMock() {
		return a.mockFleet(), nil
	}
	if a.source == nil {
		return nil, errors.New("live mode requires a statistics source")
	}

	start := time.Now()
	outcomes := iter.Map(a.tracked, func(t *Tracked) outcome {
		return a.fetchIsolated(ctx, *t, window)
	})
	a.inst.duration.Record(ctx, time.Since(start).Seconds())

	ships := make([]core.Ship, len(outcomes))
	var (
		failures int
		lastErr  error
		authErr  error
	)
	for i, o := range outcomes {
		ships[i] = o.ship
		if o.err == nil {
			continue
		}
		if api.IsAuth(o.err) {
			authErr = o.err
			continue
		}
		failures++
		lastErr = o.err
	}

	SortForSelection(ships)

	if authErr != nil {
		return ships, authErr
	}
	if len(outcomes) > 0 && failures == len(outcomes) {
		return ships, &UnavailableError{Attempted: len(outcomes), Err: lastErr}
	}
	return ships, nil
}

// GetShip refetches a single ship for the given window.
// Unlike GetFleetWindow, failures are returned instead of replaced.
func (a *Assembler) GetShip(ctx context.Context, m mode.Mode, imo string, window core.TimeWindow) (core.Ship, error) {
	if m.IsMock() {
		for _, s := range a.mockFleet() {
			if s.ID == imo {
				return s, nil
			}
		}
		return core.Ship{}, ErrUnknownShip
	}
	if a.source == nil {
		return core.Ship{}, errors.New("live mode requires a statistics source")
	}

	resp, err := a.source.ShipStatistics(ctx, imo, window)
	if err != nil {
		return core.Ship{}, err
	}
	if resp == nil {
		return core.Ship{}, api.ErrEmptyResponse
	}
	rec := *resp
	rec.IMO = imo
	if rec.Name == "" {
		rec.Name = a.nameOf(imo)
	}
	return a.transformer.Transform(&rec)
}

type outcome struct {
	ship core.Ship
	err  error
}

// fetchIsolated runs one ship's fetch and transform. A panic is contained
// and turns into a placeholder like any other failure.
func (a *Assembler) fetchIsolated(ctx context.Context, t Tracked, window core.TimeWindow) outcome {
	var o outcome
	if r := panics.Try(func() { o = a.fetch(ctx, t, window) }); r != nil {
		o = outcome{ship: placeholder.Ship(t.IMO, t.Name), err: r.AsError()}
	}

	result := "ok"
	if o.err != nil || !o.ship.HasData {
		result = "placeholder"
		a.inst.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("imo", t.IMO)))
		a.logger.Warn("Using placeholder for ship", "imo", t.IMO, "error", o.err)
	}
	a.inst.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return o
}

func (a *Assembler) fetch(ctx context.Context, t Tracked, window core.TimeWindow) outcome {
	resp, err := a.source.ShipStatistics(ctx, t.IMO, window)
	if err == nil && resp == nil {
		err = api.ErrEmptyResponse
	}
	if err != nil {
		return outcome{ship: placeholder.Ship(t.IMO, t.Name), err: err}
	}

	// the record always answers to the requested IMO so ids stay unique
	rec := *resp
	rec.IMO = t.IMO
	if rec.Name == "" {
		rec.Name = t.Name
	}
	ship, err := a.transformer.Transform(&rec)
	if err != nil {
		return outcome{ship: placeholder.Ship(t.IMO, t.Name), err: err}
	}
	if !ship.HasData {
		return outcome{ship: placeholder.Ship(t.IMO, ship.Name)}
	}
	return outcome{ship: ship}
}

func (a *Assembler) nameOf(imo string) string {
	for _, t := range a.tracked {
		if t.IMO == imo {
			return t.Name
		}
	}
	return ""
}

// SortForSelection orders ships with data first, then by name.
func SortForSelection(ships []core.Ship) {
	sort.SliceStable(ships, func(i, j int) bool {
		if ships[i].HasData != ships[j].HasData {
			return ships[i].HasData
		}
		return ships[i].Name < ships[j].Name
	})
}

func dedupe(tracked []Tracked) []Tracked {
	seen := make(map[string]bool, len(tracked))
	out := make([]Tracked, 0, len(tracked))
	for _, t := range tracked {
		if t.IMO == "" || seen[t.IMO] {
			continue
		}
		seen[t.IMO] = true
		out = append(out, t)
	}
	return out
}
