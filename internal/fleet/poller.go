package fleet

import (
	"context"
	"log/slog"
	"time"

	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/pkg/core"
)

// Realtime polling defaults.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultPollLookback = 5 * time.Minute
)

// ShipUpdate is one polling result.
type ShipUpdate struct {
	Ship core.Ship
	Err  error
	At   time.Time
}

// Poller refetches one ship on a fixed interval over a trailing window.
type Poller struct {
	assembler *Assembler
	modes     *mode.Flag
	imo       string
	interval  time.Duration
	lookback  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLookback overrides the trailing window length.
func WithLookback(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.lookback = d
		}
	}
}

// WithPollClock replaces time.Now for window computation.
func WithPollClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPoller creates a poller for one ship. The mode is re-read before every fetch.
func NewPoller(a *Assembler, modes *mode.Flag, imo string, opts ...PollerOption) *Poller {
	p := &Poller{
		assembler: a,
		modes:     modes,
		imo:       imo,
		interval:  DefaultPollInterval,
		lookback:  DefaultPollLookback,
		now:       time.Now,
		logger:    a.logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then on every tick, calling publish with each
// result, until ctx is cancelled. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context, publish func(ShipUpdate)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, publish)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, publish)
		}
	}
}

func (p *Poller) poll(ctx context.Context, publish func(ShipUpdate)) {
	now := p.now()
	window := core.LastWindow(now, p.lookback)
	ship, err := p.assembler.GetShip(ctx, p.modes.Get(), p.imo, window)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn("Realtime poll failed", "imo", p.imo, "error", err)
	}
	publish(ShipUpdate{Ship: ship, Err: err, At: now})
}
