package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/flight-comb/app/api"
	"github.com/lysyi3m/flight-comb/app/aviation"
	"github.com/lysyi3m/flight-comb/app/cfg"
	"github.com/lysyi3m/flight-comb/app/database"
	"github.com/lysyi3m/flight-comb/app/flights"
	"github.com/lysyi3m/flight-comb/app/metrics"
	"github.com/lysyi3m/flight-comb/app/pipeline"
	"github.com/lysyi3m/flight-comb/app/sink"
	"github.com/lysyi3m/flight-comb/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Flight Comb", "version", appCfg.Version, "dep_iata", appCfg.DepIATA)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store database.Store
	if appCfg.DatabaseEnabled() {
		slog.Info("Connecting to database", "driver", appCfg.DBDriver)
		store, err = database.Open(ctx, database.Config{
			Driver: appCfg.DBDriver,
			Postgres: database.PostgresConfig{
				Host:     appCfg.DBHost,
				Port:     appCfg.DBPort,
				Database: appCfg.DBName,
				User:     appCfg.DBUser,
				Password: appCfg.DBPassword,
			},
			SQLitePath: appCfg.SQLitePath,
		})
		if err != nil {
			slog.Error("Failed to open database", "error", err)
			return 1
		}
		defer store.Close()
	}

	sinks, cleanup, err := buildSinks(ctx, appCfg, store)
	defer cleanup()
	if err != nil {
		slog.Error("Failed to configure sinks", "error", err)
		return 1
	}
	if len(sinks) == 0 {
		slog.Warn("No sinks configured, runs will only fetch and normalize")
	}

	metricsManager := metrics.NewManager()

	client := aviation.NewClient(aviation.Config{
		BaseURL:      appCfg.AviationBaseURL,
		AccessKey:    appCfg.AviationAPIKey,
		DepIATA:      appCfg.DepIATA,
		FlightStatus: appCfg.FlightStatus,
		PageSize:     appCfg.PageSize,
		Timeout:      appCfg.RequestTimeout,
		UserAgent:    appCfg.UserAgent,
	})

	flightPipeline := pipeline.New(client, flights.NewNormalizer(), sinks, pipeline.WithMetrics(metricsManager))
	slog.Info("Pipeline configured", "sinks", flightPipeline.SinkNames())

	history := tasks.NewHistory()
	scheduler := tasks.NewScheduler(flightPipeline, history, appCfg.RunInterval)

	if appCfg.Once {
		if err := scheduler.RunOnce(ctx); err != nil {
			return 1
		}
		return 0
	}

	scheduler.Start()
	defer scheduler.Stop()

	var flightRepo database.FlightRepository
	if store != nil {
		flightRepo = store
	}

	apiHandler := api.NewHandler(flightRepo, scheduler, history, metricsManager, api.Options{
		Airport: appCfg.DepIATA,
		BaseURL: appCfg.BaseUrl,
		Port:    appCfg.Port,
		Version: appCfg.Version,
	})
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "interval", appCfg.RunInterval)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Flight Comb shutdown complete")
	return exitCode
}

// buildSinks returns the configured sinks in push order. cleanup releases
// broker connections and is safe to call when err is non-nil.
func buildSinks(ctx context.Context, appCfg *cfg.Cfg, store database.Store) ([]sink.Sink, func(), error) {
	var sinks []sink.Sink
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if store != nil {
		sinks = append(sinks, sink.NewDatabase(store))
	}

	if appCfg.OutputFile != "" {
		fileSink, err := sink.NewFile(appCfg.OutputFile, appCfg.OutputFormat)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, fileSink)
	}

	if appCfg.NATSURL != "" {
		nc, err := sink.ConnectNATS(appCfg.NATSURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		closers = append(closers, nc.Close)
		sinks = append(sinks, sink.NewNATS(nc, appCfg.NATSSubject))
	}

	if appCfg.ClickHouseAddr != "" {
		conn, err := sink.OpenClickHouse(ctx, sink.ClickHouseConfig{
			Addr:     appCfg.ClickHouseAddr,
			Database: appCfg.ClickHouseDatabase,
			User:     appCfg.ClickHouseUser,
			Password: appCfg.ClickHousePassword,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })

		chSink, err := sink.NewClickHouse(ctx, conn)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, chSink)
	}

	return sinks, cleanup, nil
}
