// Package analytics builds the admin dashboard from mock or live statistics.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sailboard/dashboard/internal/aggregate"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/pkg/core"
)

// Source fetches the raw analytics panels. *api.Client satisfies it.
type Source interface {
	UserAnalytics(ctx context.Context) (*core.UserStats, error)
	RevenueAnalytics(ctx context.Context) (*core.RevenueStats, error)
	CVAnalytics(ctx context.Context) (*core.DocumentStats, error)
	CoverLetterAnalytics(ctx context.Context) (*core.DocumentStats, error)
}

// Service assembles dashboards.
type Service struct {
	source Source
	now    func() time.Time
}

// New creates a Service. source may be nil when only mock mode is used.
func New(source Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, now: now}
}

// Dashboard returns raw statistics with their derived metrics.
func (s *Service) Dashboard(ctx context.Context, m mode.Mode) (*core.Dashboard, error) {
	var (
		stats core.DashboardStats
		err   error
	)
	if m.IsMock() {
		stats = MockStats()
	} else {
		stats, err = s.fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	metrics, err := Derive(stats)
	if err != nil {
		return nil, err
	}
	return &core.Dashboard{Stats: stats, Metrics: metrics}, nil
}

// fetch loads all panels. Every panel is required, so the first failure cancels the rest.
func (s *Service) fetch(ctx context.Context) (core.DashboardStats, error) {
	if s.source == nil {
		return core.DashboardStats{}, fmt.Errorf("live analytics require a source")
	}

	var (
		users   *core.UserStats
		revenue *core.RevenueStats
		cvs     *core.DocumentStats
		letters *core.DocumentStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.source.UserAnalytics(gctx)
		return err
	})
	g.Go(func() (err error) {
		revenue, err = s.source.RevenueAnalytics(gctx)
		return err
	})
	g.Go(func() (err error) {
		cvs, err = s.source.CVAnalytics(gctx)
		return err
	})
	g.Go(func() (err error) {
		letters, err = s.source.CoverLetterAnalytics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.DashboardStats{}, err
	}

	stats := core.DashboardStats{
		Users:        deref(users),
		Revenue:      deref(revenue),
		CVs:          deref(cvs),
		CoverLetters: deref(letters),
	}
	stats.Months = MonthLabels(s.now(), len(stats.Revenue.MonthlyRevenue))
	return stats, nil
}

// Derive computes growth rates, ARPU and the revenue moving average.
// Growth rates are not capped.
func Derive(stats core.DashboardStats) (core.DashboardMetrics, error) {
	var (
		out core.DashboardMetrics
		err error
	)
	if out.UserGrowthRate, err = aggregate.GrowthRate(stats.Users.MonthlyActiveUsers); err != nil {
		return out, err
	}
	if out.CVGrowthRate, err = aggregate.GrowthRate(stats.CVs.CreatedPerMonth); err != nil {
		return out, err
	}
	if out.CoverLetterGrowthRate, err = aggregate.GrowthRate(stats.CoverLetters.CreatedPerMonth); err != nil {
		return out, err
	}
	if out.RevenueMovingAvg, err = aggregate.MovingAverage3(stats.Revenue.MonthlyRevenue); err != nil {
		return out, err
	}

	revenue, users := alignTail(stats.Revenue.MonthlyRevenue, stats.Users.MonthlyActiveUsers)
	if out.ARPU, err = aggregate.ARPU(revenue, users); err != nil {
		return out, err
	}
	return out, nil
}

// alignTail trims both series to their common trailing months.
func alignTail(a, b []float64) ([]float64, []float64) {
	n := min(len(a), len(b))
	return a[len(a)-n:], b[len(b)-n:]
}

// MonthLabels returns n short month names ending with the month of now.
func MonthLabels(now time.Time, n int) []string {
	labels := make([]string, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		labels[i] = first.AddDate(0, i-n+1, 0).Format("Jan")
	}
	return labels
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
