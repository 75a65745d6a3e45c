package analytics

import "github.com/sailboard/dashboard/pkg/core"

var mockMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var mockRevenue = []float64{15000, 18000, 20000, 22000, 25000, 28000, 30000, 32000, 35000, 38000, 40000, 42000}

func series(start, step float64) []float64 {
	out := make([]float64, len(mockMonths))
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// MockStats returns the fixed demo statistics shown in mock mode.
func MockStats() core.DashboardStats {
	months := make([]string, len(mockMonths))
	copy(months, mockMonths)
	revenue := make([]float64, len(mockRevenue))
	copy(revenue, mockRevenue)

	var total float64
	for _, r := range revenue {
		total += r
	}

	return core.DashboardStats{
		Months: months,
		Users: core.UserStats{
			TotalUsers:         15420,
			ActiveUsers:        13500,
			MonthlyActiveUsers: series(8000, 500),
			UserGrowth:         series(8500, 600),
		},
		Revenue: core.RevenueStats{
			TotalRevenue:   total,
			MonthlyRevenue: revenue,
		},
		CVs: core.DocumentStats{
			ConversionRate:     68.5,
			CreatedPerMonth:    series(120, 30),
			DownloadedPerMonth: series(80, 22),
		},
		CoverLetters: core.DocumentStats{
			ConversionRate:     54.2,
			CreatedPerMonth:    series(90, 20),
			DownloadedPerMonth: series(60, 15),
		},
	}
}
