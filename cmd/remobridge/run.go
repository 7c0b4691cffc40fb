package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/api"
	"github.com/nerrad567/remo-bridge/internal/appliance"
	"github.com/nerrad567/remo-bridge/internal/homekit"
	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
	"github.com/nerrad567/remo-bridge/internal/infrastructure/database"
	"github.com/nerrad567/remo-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/remo-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/remo-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/remo-bridge/internal/platform"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
	"github.com/nerrad567/remo-bridge/internal/telemetry"
	"github.com/nerrad567/remo-bridge/migrations"
)

// run wires the bridge and serves until ctx is cancelled. Components are
// released in reverse order of creation.
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting remobridge",
		"version", version,
		"commit", commit,
		"build_date", date,
		"fixture", cfg.Fixture,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	checks := map[string]api.HealthCheck{"database": db.HealthCheck}

	gateway := newGateway(cfg, log)
	src := poller.New(poller.Config{
		Gateway:            gateway,
		DevicesInterval:    cfg.DevicesInterval(),
		AppliancesInterval: cfg.AppliancesInterval(),
	})
	src.SetLogger(log.Component("poller"))

	host := homekit.New(homekit.Config{
		Name:        cfg.HomeKit.Name,
		Pin:         cfg.HomeKit.Pin,
		Port:        cfg.HomeKit.Port,
		StoragePath: cfg.HomeKit.StoragePath,
		Store:       accessory.NewSQLiteStore(db.DB),
		Version:     version,
	})
	host.SetLogger(log.Component("homekit"))
	cached, err := host.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading accessory cache: %w", err)
	}

	plat := platform.New(platform.Config{
		Host: host,
		Binder: appliance.NewBinder(appliance.BinderConfig{
			Gateway: gateway,
			Devices: src.Devices,
			Logger:  log.Component("appliance"),
			Context: ctx,
		}),
		TVs: tvConfigs(cfg),
	})
	plat.SetLogger(log.Component("platform"))
	plat.Restore(cached)

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient.HealthCheck

		mirror := telemetry.NewStateMirror(mqttClient)
		mirror.SetLogger(log.Component("mirror"))
		if err := mirror.ListenCommands(ctx, mqttClient, src.Refresh); err != nil {
			return fmt.Errorf("subscribing to MQTT commands: %w", err)
		}
		mirror.Start(src)
		defer mirror.Stop()
		log.Info("MQTT state mirror enabled",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient.HealthCheck

		recorder := telemetry.NewRecorder(influxClient)
		recorder.SetLogger(log.Component("recorder"))
		recorder.Start(src)
		defer recorder.Stop()
		log.Info("InfluxDB recorder enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	plat.Start(ctx, src)
	defer plat.Stop()

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Poller:   src,
			Platform: plat,
			Gatherer: newRegistry(),
			Checks:   checks,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	src.Start(ctx)
	defer src.Stop()

	log.Info("remobridge running", "homekit_port", cfg.HomeKit.Port, "tvs", len(cfg.TVs()))
	if err := host.Run(ctx); err != nil {
		return err
	}
	log.Info("shutdown signal received")
	return nil
}

// newGateway returns the cloud API client, or the canned fixture account in
// fixture mode.
func newGateway(cfg *config.Config, log *logging.Logger) remo.Gateway {
	if cfg.Fixture {
		log.Warn("fixture mode: serving the built-in demo account")
		return remo.NewFixture()
	}
	return remo.NewClient(remo.ClientConfig{
		BaseURL: cfg.Remo.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.RemoTimeout(),
	}, log.Component("remo"))
}

func tvConfigs(cfg *config.Config) []platform.TVConfig {
	var tvs []platform.TVConfig
	for _, a := range cfg.TVs() {
		tvs = append(tvs, platform.TVConfig{Name: a.Name, Mapping: a.Mapping})
	}
	return tvs
}

// newRegistry collects the runtime metrics and every package's collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, group := range [][]prometheus.Collector{
		remo.MetricsCollectors(),
		poller.MetricsCollectors(),
		platform.MetricsCollectors(),
		homekit.MetricsCollectors(),
		telemetry.MetricsCollectors(),
		api.MetricsCollectors(),
	} {
		reg.MustRegister(group...)
	}
	return reg
}
