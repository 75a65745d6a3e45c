package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/dispatcher"
	"github.com/sailboard/dashboard/internal/fleet"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/internal/monitor"
	"github.com/sailboard/dashboard/internal/playback"
	"github.com/sailboard/dashboard/internal/server"
	"github.com/sailboard/dashboard/pkg/core"
)

const usage = `usage: sailboard <command> [args]

commands:
  serve                              run the HTTP service
  fleet [live]                       print the assembled fleet
  ship <imo> [start end] [live]      print one ship
  playback <imo> <percent> [live]    print the sample at a slider position
  watch <imo>                        poll one ship and forward updates to the sinks
  dashboard [live]                   print the analytics dashboard
  submit <file.json>                 send a manual ship reading
  health                             check backend reachability
  login <email> <password>           start a session
  logout                             end the session
  export [live]                      assemble the fleet and write it to storage
  migrate-backups <dir>              copy sqlite dumps into the configured database`

type usageError string

func (e usageError) Error() string {
	return string(e) + "\n\n" + usage
}

// dispatch runs one command.
func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("no command given")
	}

	cmd := strings.ToLower(args[0])
	rest := args[1:]
	if n := len(rest); n > 0 && strings.EqualFold(rest[n-1], "live") {
		a.modes.Set(mode.Live)
		rest = rest[:n-1]
	}

	a.logger.Debug("Running command", "command", cmd, "args", rest)

	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "fleet":
		return a.printFleet(ctx)
	case "ship":
		return a.printShip(ctx, rest)
	case "playback":
		return a.printPlayback(ctx, rest)
	case "watch":
		return a.watch(ctx, rest)
	case "dashboard":
		return a.printDashboard(ctx)
	case "submit":
		return a.submit(ctx, rest)
	case "health":
		return a.health(ctx)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout()
	case "export":
		return a.export(ctx)
	case "migrate-backups":
		return a.migrateBackups(rest)
	default:
		return usageError(fmt.Sprintf("unknown command %q", args[0]))
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.NewService(monitor.Dependencies{
		Checker:    a.client,
		Mode:       a.modes,
		Logger:     a.logger,
		Interval:   config.GetMonitorInterval(),
		StatusFile: config.GetString("monitor.statusFile"),
	})
	if err := mon.Start(ctx); err != nil {
		return err
	}
	defer mon.Stop()

	srvCfg := config.GetServerConfig()
	srv := server.New(server.Dependencies{
		Fleet:       a.assembler,
		Dashboards:  a.dashboards,
		Auth:        a.client,
		Mode:        a.modes,
		Logger:      a.logger,
		CORSOrigins: srvCfg.CORSOrigins,
	})
	return srv.Run(ctx, srvCfg.Address)
}

func (a *app) printFleet(ctx context.Context) error {
	ships, err := a.assembler.GetFleet(ctx, a.modes.Get())
	if err != nil && ships == nil {
		return err
	}
	if err != nil {
		a.logger.Warn("Fleet assembled with errors", "error", err)
	}
	if perr := a.printJSON(ships); perr != nil {
		return perr
	}
	return err
}

// parseWindow reads optional start/end Unix seconds, defaulting to the configured window.
func (a *app) parseWindow(args []string) (core.TimeWindow, error) {
	switch len(args) {
	case 0:
		return a.assembler.Window(), nil
	case 2:
		start, err1 := strconv.ParseInt(args[0], 10, 64)
		end, err2 := strconv.ParseInt(args[1], 10, 64)
		if err1 != nil || err2 != nil {
			return core.TimeWindow{}, usageError("start and end must be Unix seconds")
		}
		if start > end {
			return core.TimeWindow{}, usageError("start must not be after end")
		}
		return core.TimeWindow{Start: start, End: end}, nil
	default:
		return core.TimeWindow{}, usageError("expected both start and end")
	}
}

func (a *app) printShip(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("ship requires an IMO")
	}
	window, err := a.parseWindow(args[1:])
	if err != nil {
		return err
	}
	ship, err := a.assembler.GetShip(ctx, a.modes.Get(), args[0], window)
	if err != nil {
		return err
	}
	return a.printJSON(ship)
}

func (a *app) printPlayback(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("playback requires an IMO and a percent")
	}
	percent, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return usageError("percent must be a number")
	}
	ship, err := a.assembler.GetShip(ctx, a.modes.Get(), args[0], a.assembler.Window())
	if err != nil {
		return err
	}
	idx, ok := playback.ResolveIndex(ship, percent)
	if !ok {
		return fmt.Errorf("ship %s has no telemetry samples", args[0])
	}
	return a.printJSON(map[string]any{
		"imo":          args[0],
		"index":        idx,
		"samples":      len(ship.Samples),
		"scrubPercent": playback.ScrubPercent(idx, len(ship.Samples)),
		"sample":       ship.Samples[idx],
	})
}

func (a *app) printDashboard(ctx context.Context) error {
	d, err := a.dashboards.Dashboard(ctx, a.modes.Get())
	if err != nil {
		return err
	}
	return a.printJSON(d)
}

func (a *app) submit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("submit requires a JSON file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var sub core.ShipSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	resp, err := a.client.SubmitShipData(ctx, sub)
	if err != nil {
		return err
	}
	a.logger.Info("Ship reading submitted", "imo", sub.IMO)
	_, err = fmt.Fprintln(a.out, string(resp))
	return err
}

func (a *app) health(ctx context.Context) error {
	up := a.client.Healthcheck(ctx)
	if err := a.printJSON(map[string]any{"backend": up, "mode": a.modes.Get().String()}); err != nil {
		return err
	}
	if !up {
		return fmt.Errorf("backend unreachable")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("login requires an email and a password")
	}
	sess, err := a.client.Login(ctx, api.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	a.logger.Info("Logged in", "user", sess.User.Email, "admin", sess.IsAdmin())
	_, err = fmt.Fprintf(a.out, "Logged in as %s\n", sess.User.Email)
	return err
}

func (a *app) logout() error {
	if err := a.client.Logout(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "Logged out")
	return err
}

// watch polls one ship and forwards every update through the dispatcher until interrupted.
func (a *app) watch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("watch requires an IMO")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, closeSinks, err := a.buildDispatcher(ctx, nil)
	if err != nil {
		return err
	}
	defer closeSinks()

	d.Register(dispatcher.TopicShipUpdated, func(e dispatcher.Event) error {
		return a.printJSON(map[string]any{
			"imo":      e.Ship.ID,
			"position": e.Ship.CurrentPosition,
			"samples":  len(e.Ship.Samples),
			"at":       e.Timestamp,
		})
	}, dispatcher.Named("console"))

	fleetCfg := config.GetFleetConfig()
	poller := fleet.NewPoller(a.assembler, a.modes, args[0],
		fleet.WithInterval(fleetCfg.PollInterval),
		fleet.WithLookback(fleetCfg.PollLookback),
	)
	a.logger.Info("Watching ship", "imo", args[0], "interval", fleetCfg.PollInterval)

	err = poller.Run(ctx, func(u fleet.ShipUpdate) {
		if derr := d.Dispatch(eventFromUpdate(args[0], u)); derr != nil {
			a.logger.Warn("Update delivery failed", "imo", args[0], "error", derr)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
