package core

// UserStats is the user analytics payload.
type UserStats struct {
	TotalUsers         int       `json:"totalUsers"`
	ActiveUsers        int       `json:"activeUsers"`
	MonthlyActiveUsers []float64 `json:"monthlyActiveUsers"`
	UserGrowth         []float64 `json:"userGrowth"`
}

// RevenueStats is the revenue analytics payload.
type RevenueStats struct {
	TotalRevenue   float64   `json:"totalRevenue"`
	MonthlyRevenue []float64 `json:"monthlyRevenue"`
}

// DocumentStats is the CV or cover letter analytics payload.
type DocumentStats struct {
	ConversionRate     float64   `json:"conversionRate"`
	CreatedPerMonth    []float64 `json:"createdPerMonth"`
	DownloadedPerMonth []float64 `json:"downloadedPerMonth"`
}

// DashboardStats is the raw input of the analytics dashboard.
type DashboardStats struct {
	Months       []string      `json:"months"`
	Users        UserStats     `json:"userStats"`
	Revenue      RevenueStats  `json:"revenueStats"`
	CVs          DocumentStats `json:"cvStats"`
	CoverLetters DocumentStats `json:"coverLetterStats"`
}

// DashboardMetrics are the figures derived from DashboardStats.
// Nil entries in RevenueMovingAvg mark months without enough history.
type DashboardMetrics struct {
	UserGrowthRate        []float64  `json:"userGrowthRate"`
	CVGrowthRate          []float64  `json:"cvGrowthRate"`
	CoverLetterGrowthRate []float64  `json:"coverLetterGrowthRate"`
	ARPU                  []float64  `json:"arpu"`
	RevenueMovingAvg      []*float64 `json:"revenueMovingAverage"`
}

// Dashboard bundles raw stats with derived metrics.
type Dashboard struct {
	Stats   DashboardStats   `json:"stats"`
	Metrics DashboardMetrics `json:"metrics"`
}
