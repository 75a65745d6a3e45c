package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sailboard/dashboard/internal/aggregate"
	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/internal/playback"
	"github.com/sailboard/dashboard/pkg/core"
)

type modeBody struct {
	Mode       string `json:"mode"`
	IsMockMode *bool  `json:"isMockMode,omitempty"`
}

type playbackBody struct {
	IMO          string               `json:"imo"`
	Index        int                  `json:"index"`
	ScrubPercent float64              `json:"scrubPercent"`
	Samples      int                  `json:"samples"`
	Sample       core.TelemetrySample `json:"sample"`
}

func (s *Server) health(c *gin.Context) {
	m := s.deps.Mode.Get()
	body := gin.H{"status": "ok", "mode": m.String()}
	if s.deps.Auth != nil {
		body["backend"] = s.deps.Auth.Healthcheck(c.Request.Context())
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) getMode(c *gin.Context) {
	m := s.deps.Mode.Get()
	c.JSON(http.StatusOK, gin.H{"mode": m.String(), "isMockMode": m.IsMock()})
}

func (s *Server) putMode(c *gin.Context) {
	var body modeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request")
		return
	}

	var m mode.Mode
	switch {
	case body.IsMockMode != nil:
		m = mode.FromMockFlag(*body.IsMockMode)
	default:
		parsed, err := mode.Parse(body.Mode)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		m = parsed
	}

	s.deps.Mode.Set(m)
	s.deps.Logger.Info("Data mode changed", "mode", m.String())
	c.JSON(http.StatusOK, gin.H{"mode": m.String(), "isMockMode": m.IsMock()})
}

// window reads start_time/end_time, falling back to the default window.
func (s *Server) window(c *gin.Context, startKey, endKey string) (core.TimeWindow, bool) {
	w := s.deps.Fleet.Window()
	startStr, endStr := c.Query(startKey), c.Query(endKey)
	if startStr == "" && endStr == "" {
		return w, true
	}
	if startStr == "" || endStr == "" {
		badRequest(c, startKey+" and "+endKey+" must be given together")
		return w, false
	}
	start, err1 := strconv.ParseInt(startStr, 10, 64)
	end, err2 := strconv.ParseInt(endStr, 10, 64)
	if err1 != nil || err2 != nil {
		badRequest(c, startKey+" and "+endKey+" must be Unix seconds")
		return w, false
	}
	if start > end {
		badRequest(c, startKey+" must not be after "+endKey)
		return w, false
	}
	return core.TimeWindow{Start: start, End: end}, true
}

func (s *Server) getFleet(c *gin.Context) {
	w, ok := s.window(c, "start_time", "end_time")
	if !ok {
		return
	}
	ships, err := s.deps.Fleet.GetFleetWindow(c.Request.Context(), s.deps.Mode.Get(), w)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ships)
}

func (s *Server) getShip(c *gin.Context) {
	w, ok := s.window(c, "start_time", "end_time")
	if !ok {
		return
	}
	ship, err := s.deps.Fleet.GetShip(c.Request.Context(), s.deps.Mode.Get(), c.Param("imo"), w)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ship)
}

func (s *Server) getPlayback(c *gin.Context) {
	percentStr := c.Query("percent")
	startStr, endStr := c.Query("start"), c.Query("end")
	if percentStr == "" && (startStr == "" || endStr == "") {
		badRequest(c, "percent or start and end required")
		return
	}

	var percent float64
	var start, end int64
	if percentStr != "" {
		p, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			badRequest(c, "percent must be a number")
			return
		}
		percent = p
	} else {
		var err1, err2 error
		start, err1 = strconv.ParseInt(startStr, 10, 64)
		end, err2 = strconv.ParseInt(endStr, 10, 64)
		if err1 != nil || err2 != nil {
			badRequest(c, "start and end must be Unix seconds")
			return
		}
	}

	w, ok := s.window(c, "start_time", "end_time")
	if !ok {
		return
	}
	ship, err := s.deps.Fleet.GetShip(c.Request.Context(), s.deps.Mode.Get(), c.Param("imo"), w)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var index int
	if percentStr != "" {
		index, ok = playback.ResolveIndex(ship, percent)
	} else {
		index, ok = playback.ResolveIndexFromRange(ship, start, end)
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "No telemetry samples for this ship."})
		return
	}

	c.JSON(http.StatusOK, playbackBody{
		IMO:          c.Param("imo"),
		Index:        index,
		ScrubPercent: playback.ScrubPercent(index, len(ship.Samples)),
		Samples:      len(ship.Samples),
		Sample:       ship.Samples[index],
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	if s.deps.Dashboards == nil {
		abortWithError(c, errors.New("dashboard not configured"))
		return
	}
	limit := -1.0
	if raw := c.Query("cap"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			badRequest(c, "cap must be a non-negative number")
			return
		}
		limit = v
	}

	d, err := s.deps.Dashboards.Dashboard(c.Request.Context(), s.deps.Mode.Get())
	if err != nil {
		abortWithError(c, err)
		return
	}
	// Capping only shapes the response; the derived metrics stay exact.
	if limit >= 0 {
		capped := *d
		capped.Metrics.UserGrowthRate = aggregate.CapPercent(d.Metrics.UserGrowthRate, limit)
		capped.Metrics.CVGrowthRate = aggregate.CapPercent(d.Metrics.CVGrowthRate, limit)
		capped.Metrics.CoverLetterGrowthRate = aggregate.CapPercent(d.Metrics.CoverLetterGrowthRate, limit)
		d = &capped
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) login(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, "invalid request")
		return
	}
	sess, err := s.deps.Auth.Login(c.Request.Context(), creds)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.deps.Auth.Logout(); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
