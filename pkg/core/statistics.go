package core

// StatisticsResponse is the backend payload of GET /data/ships/{imo}/statistics.
type StatisticsResponse struct {
	IMO        string            `json:"imo"`
	Name       string            `json:"name"`
	Meta       ResultsMeta       `json:"results_meta"`
	Aggregated ResultsAggregated `json:"results_aggregated"`
	Timed      []TimedResult     `json:"results_timed"`
	ShipData   *ShipInfo         `json:"shipData,omitempty"`
}

// ResultsMeta describes the collected data.
type ResultsMeta struct {
	DataPointsCollected int `json:"data_points_collected"`
}

// ResultsAggregated holds min/max/avg per metric name (e.g. "wind_speed").
type ResultsAggregated struct {
	Min map[string]float64 `json:"aggregation_min"`
	Max map[string]float64 `json:"aggregation_max"`
	Avg map[string]float64 `json:"aggregation_avg"`
}

// TimedResult is one raw sample. Fields absent from the payload are nil.
type TimedResult struct {
	UUID      string         `json:"uuid,omitempty"`
	Timestamp int64          `json:"timestamp"`
	SailData  []SailData     `json:"sailData,omitempty"`
	ShipData  *ShipDataPoint `json:"shipData,omitempty"`
}

// SailData is the sail/wind part of a raw sample.
type SailData struct {
	SailID            string   `json:"sailId,omitempty"`
	WindSpeed         *float64 `json:"windSpeed,omitempty"`
	FanSpeed          *float64 `json:"fanSpeed,omitempty"`
	WindAngle         *float64 `json:"windAngle,omitempty"`
	WindRotationAngle *float64 `json:"windRotationAngle,omitempty"`
}

// ShipDataPoint is the navigation part of a raw sample.
type ShipDataPoint struct {
	Location    *Location `json:"location,omitempty"`
	SOG         *float64  `json:"sog,omitempty"`
	COG         *float64  `json:"cog,omitempty"`
	HDG         *float64  `json:"hdg,omitempty"`
	RudderAngle *float64  `json:"rudderAngle,omitempty"`
}

// ShipInfo carries descriptive fields the backend may attach to a ship.
type ShipInfo struct {
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	Destination string `json:"destination,omitempty"`
	ETA         string `json:"eta,omitempty"`
}

// ShipSubmission is a single manual reading entered in the dashboard.
type ShipSubmission struct {
	IMO               string   `json:"imo"`
	Name              string   `json:"name"`
	Position          Location `json:"position"`
	WindSpeed         float64  `json:"windSpeed"`
	FanSpeed          float64  `json:"fanSpeed"`
	WingRotationAngle float64  `json:"wingRotationAngle"`
	Course            float64  `json:"course"`
	Speed             float64  `json:"speed"`
	RudderAngle       float64  `json:"rudderAngle"`
	WindDirection     float64  `json:"windDirection"`
}
