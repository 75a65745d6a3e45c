// Package mode holds the mock/live data-source switch.
package mode

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Mode selects the data source consulted by fetch operations.
type Mode int

const (
	// Mock serves fixed, locally defined data.
	Mock Mode = iota
	// Live issues real backend requests.
	Live
)

// String returns "mock" or "live".
func (m Mode) String() string {
	if m == Live {
		return "live"
	}
	return "mock"
}

// IsMock reports whether m is Mock.
func (m Mode) IsMock() bool {
	return m != Live
}

// Parse converts "mock" or "live" (any case) into a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mock":
		return Mock, nil
	case "live":
		return Live, nil
	default:
		return Mock, fmt.Errorf("unknown mode %q", s)
	}
}

// FromMockFlag maps the dashboard's isMockMode boolean to a Mode.
func FromMockFlag(mock bool) Mode {
	if mock {
		return Mock
	}
	return Live
}

// Flag is the process-wide mode holder used by long-running services.
// It starts in Mock. Readers must call Get on every operation.
type Flag struct {
	current atomic.Int32
}

// NewFlag creates a Flag initialised to Mock.
func NewFlag() *Flag {
	f := &Flag{}
	f.current.Store(int32(Mock))
	return f
}

// Get returns the current mode.
func (f *Flag) Get() Mode {
	return Mode(f.current.Load())
}

// Set changes the current mode. It is the only mutator.
func (f *Flag) Set(m Mode) {
	f.current.Store(int32(m))
}
