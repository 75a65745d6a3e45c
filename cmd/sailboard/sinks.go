package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sailboard/dashboard/internal/config"
	"github.com/sailboard/dashboard/internal/dispatcher"
	"github.com/sailboard/dashboard/internal/fleet"
	"github.com/sailboard/dashboard/internal/influx"
	"github.com/sailboard/dashboard/internal/logging"
	"github.com/sailboard/dashboard/internal/publish"
	"github.com/sailboard/dashboard/internal/storage"
	"github.com/spf13/viper"
)

// sinkQueueSize bounds each asynchronous sink.
const sinkQueueSize = 256

// buildDispatcher registers every configured sink. backend may be nil.
// The returned func drains the queues and closes the sinks.
func (a *app) buildDispatcher(ctx context.Context, backend storage.Backend) (*dispatcher.Dispatcher, func(), error) {
	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zerolog("dispatcher")))
	if err != nil {
		return nil, nil, err
	}
	var closers []func() error

	d.Register(dispatcher.TopicShipFailed, func(e dispatcher.Event) error {
		a.logger.Warn("Ship update failed", "imo", e.Ship.ID, "error", e.Err)
		return nil
	}, dispatcher.Named("failure-log"))

	if backend != nil {
		d.Register(dispatcher.TopicShipUpdated, func(e dispatcher.Event) error {
			ship := e.Ship
			return backend.SaveShip(&ship)
		}, dispatcher.Named("storage"))
	}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		backupPath := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("influx_backup_%s.lp.gz", a.sessionStart.Format("20060102_150405")))
		m := influx.NewManager(influxCfg, a.zerolog("influx"), backupPath)
		if err := m.Connect(ctx); err != nil {
			a.logger.Error("InfluxDB sink disabled", "error", err)
		} else {
			d.Register(dispatcher.TopicShipUpdated, func(e dispatcher.Event) error {
				ship := e.Ship
				return m.WriteShip(&ship, e.Timestamp)
			}, dispatcher.Named("influx"), dispatcher.Buffered(sinkQueueSize), dispatcher.Blocking())
			closers = append(closers, m.Close)
		}
	}

	natsCfg := config.GetNATSConfig()
	if natsCfg.Enabled {
		p, err := publish.Connect(natsCfg, a.logger)
		if err != nil {
			a.logger.Error("NATS sink disabled", "error", err)
		} else {
			for _, topic := range []string{dispatcher.TopicShipUpdated, dispatcher.TopicShipFailed} {
				d.Register(topic, p.Handler(), dispatcher.Named("nats:"+topic), dispatcher.Buffered(sinkQueueSize))
			}
			closers = append(closers, p.Close)
		}
	}

	cleanup := func() {
		d.Close()
		for _, c := range closers {
			if err := c(); err != nil {
				a.logger.Warn("Failed to close sink", "error", err)
			}
		}
	}
	return d, cleanup, nil
}

// eventFromUpdate converts a poll result into a dispatcher event.
func eventFromUpdate(imo string, u fleet.ShipUpdate) dispatcher.Event {
	e := dispatcher.Event{
		Topic:     dispatcher.TopicShipUpdated,
		Ship:      u.Ship,
		Err:       u.Err,
		Timestamp: u.At,
	}
	if u.Err != nil {
		e.Topic = dispatcher.TopicShipFailed
	}
	if e.Ship.ID == "" {
		e.Ship.ID = imo
	}
	if e.Ship.RegistrationNumber == "" {
		e.Ship.RegistrationNumber = imo
	}
	return e
}

// export assembles the fleet once and hands every ship to the storage backend and sinks.
func (a *app) export(ctx context.Context) error {
	storageCfg := config.GetStorageConfig()
	backend, release, err := a.createStorageBackend(storageCfg)
	if err != nil {
		return err
	}
	defer release()

	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	m := a.modes.Get()
	ships, fleetErr := a.assembler.GetFleet(ctx, m)
	if ships == nil {
		return fleetErr
	}
	if fleetErr != nil {
		a.logger.Warn("Exporting fleet assembled with errors", "error", fleetErr)
	}

	meta := exportMeta(m, a.assembler.Window(), a.sessionStart)
	if err := backend.StartExport(&meta); err != nil {
		return fmt.Errorf("starting export: %w", err)
	}

	d, closeSinks, err := a.buildDispatcher(ctx, backend)
	if err != nil {
		return err
	}

	var errs []error
	for _, ship := range ships {
		e := dispatcher.Event{Topic: dispatcher.TopicShipUpdated, Ship: ship}
		if err := d.Dispatch(e); err != nil {
			errs = append(errs, fmt.Errorf("ship %s: %w", ship.ID, err))
		}
	}
	closeSinks()

	if err := backend.EndExport(); err != nil {
		return fmt.Errorf("ending export: %w", err)
	}
	a.logger.Info("Fleet exported", "storage", storageCfg.Type, "ships", len(ships), "mode", m.String())

	if ex, ok := backend.(storage.Exportable); ok && ex.ExportedFilePath() != "" {
		fmt.Fprintln(a.out, ex.ExportedFilePath())
	}
	return errors.Join(errs...)
}
