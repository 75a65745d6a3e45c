package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sailboard/dashboard/pkg/core"
)

// Totals is the headline counters panel.
type Totals map[string]float64

// AnalyticsTotals fetches the headline counters.
func (c *Client) AnalyticsTotals(ctx context.Context) (Totals, error) {
	var out Totals
	if err := c.getJSON(ctx, "/analytics/totals", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserAnalytics fetches user counts and monthly activity.
func (c *Client) UserAnalytics(ctx context.Context) (*core.UserStats, error) {
	var out core.UserStats
	if err := c.getJSON(ctx, "/analytics/users", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevenueAnalytics fetches the monthly revenue series.
func (c *Client) RevenueAnalytics(ctx context.Context) (*core.RevenueStats, error) {
	var out core.RevenueStats
	if err := c.getJSON(ctx, "/analytics/revenue", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CVAnalytics fetches CV creation and download series.
func (c *Client) CVAnalytics(ctx context.Context) (*core.DocumentStats, error) {
	var out core.DocumentStats
	if err := c.getJSON(ctx, "/analytics/cvs", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CoverLetterAnalytics fetches cover letter creation and download series.
func (c *Client) CoverLetterAnalytics(ctx context.Context) (*core.DocumentStats, error) {
	var out core.DocumentStats
	if err := c.getJSON(ctx, "/analytics/coverletters", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevenueDetails returns the revenue breakdown as sent by the backend.
func (c *Client) RevenueDetails(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "/analytics/revenue/details", nil)
}

// RevenueDashboard returns the revenue dashboard panel as sent by the backend.
func (c *Client) RevenueDashboard(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "/analytics/revenue/dashboard", nil)
}
