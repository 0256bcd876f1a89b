package main

import (
	"context"
	"database/sql"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wheelibin/dusk/internal/api"
	"github.com/wheelibin/dusk/internal/clock"
	"github.com/wheelibin/dusk/internal/clockskew"
	"github.com/wheelibin/dusk/internal/config"
	"github.com/wheelibin/dusk/internal/devices"
	"github.com/wheelibin/dusk/internal/dusk"
	"github.com/wheelibin/dusk/internal/hue"
	"github.com/wheelibin/dusk/internal/location"
	"github.com/wheelibin/dusk/internal/mirror"
	"github.com/wheelibin/dusk/internal/nightlight"
	"github.com/wheelibin/dusk/internal/repos"
	"github.com/wheelibin/dusk/internal/session"
)

const connectTimeout = 10 * time.Second

func main() {

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		ReportCaller:    true,
	})

	// flags override the config file
	v := config.New()
	fs := pflag.NewFlagSet("duskd", pflag.ExitOnError)
	if err := config.BindFlags(v, fs); err != nil {
		logger.Fatal(err)
	}
	_ = fs.Parse(os.Args[1:])
	configFile, _ := fs.GetString("config")

	if err := config.InitialiseConfig(v, logger, configFile); err != nil {
		logger.Fatal(err)
	}
	cfg := config.DaemonConfig(v, logger)

	logger.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  10,
			MaxAge:   3,
		}))
	}
	logger.Info("duskd starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// device journal, dusk runs without it if the database can't be opened
	var journal *repos.DeviceRepo
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err == nil {
		defer db.Close()
		journal, err = repos.NewDeviceRepo(logger, db)
	}
	if err != nil {
		logger.Error("Device journal unavailable", "path", cfg.DBPath, "err", err)
	}

	var registry *devices.Registry
	if journal != nil {
		registry = devices.NewRegistry(logger, journal)
	} else {
		registry = devices.NewRegistry(logger, nil)
	}
	defer registry.Close()

	var d *dusk.Dusk

	// session / sleep state
	var sessionState nightlight.SessionState
	var monitor *session.Monitor
	if cfg.SessionMonitor {
		monitor = session.NewMonitor(logger,
			func() { d.Resumed() },
			func(active bool) { d.SessionActiveChanged(active) },
		)
		if err := monitor.Connect(); err != nil {
			logger.Warn("Session monitoring unavailable", "err", err)
			monitor = nil
		} else {
			defer monitor.Close()
			sessionState = monitor
		}
	}

	d = dusk.NewDusk(logger, clock.New(), registry, sessionState)
	if monitor != nil {
		go monitor.Run(ctx)
	}

	// outputs
	for _, command := range cfg.Commands {
		registry.Add(devices.NewCommandOutput(logger, command.Name, command.Command))
	}
	if cfg.HueBridgeIP != "" {
		hueAPI := hue.NewHueAPIService(logger, cfg.HueBridgeIP, cfg.HueApplicationKey)
		consumer := hue.NewHueEventConsumer(logger, hueAPI, registry)
		lights, err := hueAPI.GetLights()
		if err != nil {
			logger.Error("Error discovering hue lights", "err", err)
		}
		consumer.AddLights(lights)
		go consumer.Run(ctx)
	}
	if len(registry.IDs()) == 0 {
		logger.Warn("No outputs configured, temperatures will only be logged")
		registry.Add(devices.NewLogOutput(logger))
	}
	registry.OnAdded(d.DeviceAdded)

	// event consumers
	events := api.NewBroadcaster(logger)
	d.Subscribe(events)
	go events.Run(ctx)

	if cfg.RedisAddr != "" {
		redisMirror := mirror.NewMirror(logger, mirror.NewRedisClient(cfg.RedisAddr))
		d.Subscribe(redisMirror)
		go redisMirror.Run(ctx)
	}

	// location updates
	if cfg.MQTTBroker != "" {
		subscriber := location.NewSubscriber(logger, cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, d.LocationUpdated)
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := subscriber.Connect(connectCtx); err != nil {
			logger.Warn("MQTT broker unavailable, still trying in the background", "err", err)
		}
		cancel()
		defer subscriber.Disconnect()
	}

	if cfg.ClockSkew {
		notifier := clockskew.NewNotifier(logger, d.ClockSkewed)
		if err := notifier.Start(); err != nil {
			logger.Warn("Clock change detection unavailable", "err", err)
		} else {
			defer notifier.Close()
		}
	}

	if v.ConfigFileUsed() != "" {
		config.Watch(v, logger, func() {
			d.Reconfigure(config.Settings(v, logger))
		})
	}

	// control API
	gin.SetMode(gin.ReleaseMode)
	var handler *api.Handler
	if journal != nil {
		handler = api.NewHandler(logger, d, journal, events)
	} else {
		handler = api.NewHandler(logger, d, nil, events)
	}
	server := api.NewServer(logger, cfg.APIListen, handler)
	go func() {
		if err := server.Run(ctx); err != nil {
			logger.Error(err)
			stop()
		}
	}()

	// start the main loop
	d.Run(ctx, config.Settings(v, logger))

	logger.Info("duskd is closing")
}
