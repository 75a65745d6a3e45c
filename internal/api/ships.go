package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sailboard/dashboard/pkg/core"
)

// millisThreshold separates second and millisecond epoch values.
// 1e10 seconds is in the year 2286.
const millisThreshold = 10_000_000_000

// NormalizeUnixSeconds converts an epoch timestamp that may be in milliseconds to seconds.
func NormalizeUnixSeconds(ts int64) int64 {
	if ts >= millisThreshold || ts <= -millisThreshold {
		return ts / 1000
	}
	return ts
}

// ShipStatistics fetches the telemetry of one ship for a time window.
// Timestamps in the result are always epoch seconds.
func (c *Client) ShipStatistics(ctx context.Context, imo string, window core.TimeWindow) (*core.StatisticsResponse, error) {
	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(window.Start, 10))
	q.Set("end_time", strconv.FormatInt(window.End, 10))
	path := fmt.Sprintf("/data/ships/%s/statistics?%s", url.PathEscape(imo), q.Encode())

	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrEmptyResponse
	}

	var resp core.StatisticsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode statistics for %s: %w", imo, err)
	}
	for i := range resp.Timed {
		resp.Timed[i].Timestamp = NormalizeUnixSeconds(resp.Timed[i].Timestamp)
	}
	if resp.IMO == "" {
		resp.IMO = imo
	}
	return &resp, nil
}

type shipRecord struct {
	IMO  string            `json:"imo"`
	Name string            `json:"name"`
	Data []shipRecordPoint `json:"data"`
}

type shipRecordPoint struct {
	UUID      string             `json:"uuid"`
	Timestamp int64              `json:"timestamp"`
	SailData  []core.SailData    `json:"sailData"`
	ShipData  core.ShipDataPoint `json:"shipData"`
}

// shipRecordFrom builds the wire record the backend ingests.
// A zero wind direction falls back to the course.
func shipRecordFrom(sub core.ShipSubmission, id string, ts int64) shipRecord {
	windAngle := sub.WindDirection
	if windAngle == 0 {
		windAngle = sub.Course
	}
	loc := sub.Position
	return shipRecord{
		IMO:  sub.IMO,
		Name: sub.Name,
		Data: []shipRecordPoint{{
			UUID:      id,
			Timestamp: ts,
			SailData: []core.SailData{{
				SailID:            "1",
				WindSpeed:         ptr(sub.WindSpeed),
				FanSpeed:          ptr(sub.FanSpeed),
				WindAngle:         ptr(windAngle),
				WindRotationAngle: ptr(sub.WingRotationAngle),
			}},
			ShipData: core.ShipDataPoint{
				Location:    &loc,
				COG:         ptr(sub.Course),
				SOG:         ptr(sub.Speed),
				RudderAngle: ptr(sub.RudderAngle),
			},
		}},
	}
}

func ptr(v float64) *float64 {
	return &v
}

// SubmitShipData posts a single telemetry record for a ship.
func (c *Client) SubmitShipData(ctx context.Context, sub core.ShipSubmission) (json.RawMessage, error) {
	if sub.IMO == "" {
		return nil, errors.New("submission requires an imo")
	}
	record := shipRecordFrom(sub, uuid.NewString(), c.now().Unix())
	return c.Do(ctx, http.MethodPost, "/data/ships", record)
}
