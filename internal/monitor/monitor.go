// Package monitor tracks backend reachability and writes a status file.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sailboard/dashboard/internal/mode"
)

// Checker reports whether the backend answers.
type Checker interface {
	Healthcheck(ctx context.Context) bool
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Checker    Checker
	Mode       *mode.Flag
	Logger     *slog.Logger
	Interval   time.Duration
	StatusFile string
}

// Status is the last observed connectivity state.
type Status struct {
	Time                time.Time `json:"time"`
	Mode                string    `json:"mode"`
	BackendUp           bool      `json:"backendUp"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastChange          time.Time `json:"lastChange,omitempty"`
	Checks              int       `json:"checks"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	status    Status
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	if deps.Mode == nil {
		deps.Mode = mode.NewFlag()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the last recorded status.
func (s *Service) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Check runs the health check once and records the result.
func (s *Service) Check(ctx context.Context) Status {
	up := s.deps.Checker.Healthcheck(ctx)
	now := s.now()
	logger := s.deps.Logger

	s.mu.Lock()
	prev := s.status
	st := Status{
		Time:       now,
		Mode:       s.deps.Mode.Get().String(),
		BackendUp:  up,
		LastChange: prev.LastChange,
		Checks:     prev.Checks + 1,
	}
	if !up {
		st.ConsecutiveFailures = prev.ConsecutiveFailures + 1
	}
	if prev.Checks == 0 || prev.BackendUp != up {
		st.LastChange = now
	}
	s.status = st
	s.mu.Unlock()

	switch {
	case prev.Checks > 0 && prev.BackendUp && !up:
		logger.Warn("Backend became unreachable", "mode", st.Mode)
	case prev.Checks > 0 && !prev.BackendUp && up:
		logger.Info("Backend reachable again", "failures", prev.ConsecutiveFailures)
	case !up && st.Mode == mode.Live.String():
		logger.Warn("Backend unreachable in live mode; switch to mock to keep browsing", "failures", st.ConsecutiveFailures)
	default:
		logger.Debug("Backend check", "up", up)
	}

	s.writeStatusFile(st)
	return st
}

func (s *Service) writeStatusFile(st Status) {
	if s.deps.StatusFile == "" {
		return
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0644); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
}

// Start starts the status monitor goroutine
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		s.Check(ctx)
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check(ctx)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
