// Package server exposes the fleet and dashboard views over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/pkg/core"
)

// Fleet assembles ship records. *fleet.Assembler satisfies it.
type Fleet interface {
	Window() core.TimeWindow
	GetFleetWindow(ctx context.Context, m mode.Mode, window core.TimeWindow) ([]core.Ship, error)
	GetShip(ctx context.Context, m mode.Mode, imo string, window core.TimeWindow) (core.Ship, error)
}

// Dashboards builds the admin dashboard. *analytics.Service satisfies it.
type Dashboards interface {
	Dashboard(ctx context.Context, m mode.Mode) (*core.Dashboard, error)
}

// Auth handles the dashboard session. *api.Client satisfies it.
type Auth interface {
	Login(ctx context.Context, creds api.Credentials) (*core.Session, error)
	Logout() error
	CurrentSession() *core.Session
	Healthcheck(ctx context.Context) bool
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Fleet       Fleet
	Dashboards  Dashboards
	Auth        Auth
	Mode        *mode.Flag
	Logger      *slog.Logger
	CORSOrigins []string
}

// Server is the HTTP front of the dashboard.
type Server struct {
	deps   Dependencies
	router *gin.Engine
}

// New builds the router.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Mode == nil {
		deps.Mode = mode.NewFlag()
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}

	s := &Server{deps: deps}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r := router.Group("/api")
	{
		r.GET("/health", s.health)
		r.GET("/mode", s.getMode)
		r.PUT("/mode", s.putMode)
		r.GET("/fleet", s.getFleet)
		r.GET("/ships/:imo", s.getShip)
		r.GET("/ships/:imo/playback", s.getPlayback)
		r.GET("/dashboard", s.getDashboard)
		r.POST("/auth/login", s.login)
		r.POST("/auth/logout", s.logout)
	}

	s.router = router
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Error())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("Request rejected", attrs...)
		default:
			logger.Debug("Request served", attrs...)
		}
	}
}
