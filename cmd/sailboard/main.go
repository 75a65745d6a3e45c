package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/sailboard/dashboard/internal/analytics"
	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/cache"
	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/fleet"
	"github.com/sailboard/dashboard/internal/logging"
	"github.com/sailboard/dashboard/internal/mode"
	intOtel "github.com/sailboard/dashboard/internal/otel"
	"github.com/sailboard/dashboard/internal/session"
	"github.com/sailboard/dashboard/internal/transform"
	"github.com/sailboard/dashboard/pkg/core"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const binaryName = "sailboard"

// app holds the services shared by every command.
type app struct {
	sessionStart time.Time
	out          io.Writer

	logs    *logging.SlogManager
	logger  *slog.Logger
	logFile *os.File
	otel    *intOtel.Provider

	modes      *mode.Flag
	client     *api.Client
	store      cache.Store
	source     fleet.Source
	assembler  *fleet.Assembler
	dashboards *analytics.Service
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	configDir := os.Getenv("SAILBOARD_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	a := &app{sessionStart: time.Now(), out: os.Stdout}
	if err := a.setup(configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}
	defer a.shutdown()

	if err := a.dispatch(context.Background(), args); err != nil {
		a.logger.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, api.UserMessage(err))
		var u usageError
		if errors.As(err, &u) {
			return 2
		}
		return 1
	}
	return 0
}

// setup loads configuration, logging, telemetry and the data services.
func (a *app) setup(configDir string) error {
	a.logs = logging.NewSlogManager()
	a.logs.Setup(nil, "info", nil)
	a.logger = a.logs.Logger()

	if err := config.Load(configDir); err != nil {
		if !config.IsNotFound(err) {
			return err
		}
		a.logger.Warn("No config file found, using defaults", "dir", configDir)
	}

	a.modes = mode.NewFlag()
	if m, err := mode.Parse(viper.GetString("mode")); err == nil {
		a.modes.Set(m)
	} else {
		a.logger.Warn("Ignoring invalid mode in config", "error", err)
	}

	a.setupLogging()

	apiCfg := config.GetAPIConfig()
	if dir := filepath.Dir(apiCfg.SessionFile); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	a.client = api.New(apiCfg.BaseURL, session.NewFileStore(apiCfg.SessionFile),
		api.WithTimeout(apiCfg.Timeout),
		api.WithHealthTimeout(apiCfg.HealthTimeout),
		api.WithLogger(a.logger),
	)

	cacheCfg := config.GetCacheConfig()
	store, err := cache.NewStore(cacheCfg)
	if err != nil {
		return err
	}
	a.store = store
	a.source = a.client
	if store != nil {
		a.source = cache.NewCachedSource(a.client, store, cacheCfg.TTL, a.logger)
		a.logger.Debug("Statistics cache enabled", "type", cacheCfg.Type, "ttl", cacheCfg.TTL)
	}

	fleetCfg := config.GetFleetConfig()
	opts := []fleet.Option{fleet.WithLogger(a.logger)}
	if len(fleetCfg.Tracked) > 0 {
		tracked := make([]fleet.Tracked, 0, len(fleetCfg.Tracked))
		for _, t := range fleetCfg.Tracked {
			tracked = append(tracked, fleet.Tracked{IMO: t.IMO, Name: t.Name})
		}
		opts = append(opts, fleet.WithTracked(tracked))
	}
	if fleetCfg.WindowStart > 0 && fleetCfg.WindowEnd >= fleetCfg.WindowStart {
		opts = append(opts, fleet.WithWindow(core.TimeWindow{Start: fleetCfg.WindowStart, End: fleetCfg.WindowEnd}))
	}
	a.assembler, err = fleet.New(a.source, transform.New(), opts...)
	if err != nil {
		return fmt.Errorf("creating fleet assembler: %w", err)
	}

	a.dashboards = analytics.New(a.client, nil)
	return nil
}

// setupLogging opens the session log file and attaches OTel and Graylog outputs.
func (a *app) setupLogging() {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		a.logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	logPath := logging.LogFilePath(logsDir, binaryName, a.sessionStart)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		a.logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
	} else {
		a.logFile = f
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		cfg := intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: Version,
			BatchTimeout:   otelCfg.BatchTimeout,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		}
		if a.logFile != nil {
			cfg.LogWriter = a.logFile
		}
		a.otel, err = intOtel.New(cfg)
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			a.logger.Info("OTel provider initialized", "file", logPath, "endpoint", otelCfg.Endpoint)
		}
	}

	opts := []logging.SetupOption{logging.WithContext(logging.ModeProvider(a.modes))}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGELFWriter(gl.Address, binaryName)
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			opts = append(opts, logging.WithGELF(w))
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if a.otel != nil {
		otelLogProvider = a.otel.LoggerProvider()
	}

	var file io.Writer
	if a.logFile != nil {
		file = a.logFile
	}
	a.logs.Setup(file, viper.GetString("logLevel"), otelLogProvider, opts...)
	a.logger = a.logs.Logger()
	a.logger.Info("Sailboard starting", "version", Version, "build", BuildDate, "log", logPath)
}

// zerolog returns the infrastructure logger for a component, writing to the session log.
func (a *app) zerolog(component string) zerolog.Logger {
	var w io.Writer
	if a.logFile != nil {
		w = a.logFile
	}
	return logging.NewZerolog(w, viper.GetString("logLevel"), component)
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close cache", "error", err)
		}
	}
	if n := a.logs.SinkFailures(); n > 0 {
		a.logger.Warn("Some log records were not delivered", "failures", n)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.logger.Warn("Failed to shut down OTel", "error", err)
		}
	}
	if err := a.logs.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
