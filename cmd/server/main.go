// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/joho/godotenv"

	_ "github.com/tomtom215/emberline/docs" // Import generated swagger docs
	"github.com/tomtom215/emberline/internal/api"
	"github.com/tomtom215/emberline/internal/archive"
	"github.com/tomtom215/emberline/internal/config"
	"github.com/tomtom215/emberline/internal/control"
	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/eventbus"
	"github.com/tomtom215/emberline/internal/history"
	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/supervisor"
	"github.com/tomtom215/emberline/internal/supervisor/services"
	ws "github.com/tomtom215/emberline/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingConfig())
	logging.Info().Str("config", cfg.String()).Msg("Starting Emberline with supervisor tree")

	// === ARCHIVE ===

	var store *archive.Archive
	if cfg.Archive.Enabled {
		store, err = archive.Open(cfg.Archive)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Archive.Path).Msg("Failed to open snapshot archive")
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot archive")
			}
		}()
		logging.Info().Str("path", cfg.Archive.Path).Int("retain", cfg.Archive.Retain).Msg("Snapshot archive opened")
	} else {
		logging.Info().Msg("Snapshot archive disabled (ARCHIVE_ENABLED=false)")
	}

	// === CHANNELS ===

	opts := cfg.CoordinatorOptions()
	opts.OnOverflow = func(channel string, policy history.Policy) {
		logging.Debug().Str("channel", channel).Str("policy", string(policy)).Msg("History overflow")
	}
	coord, err := coordinator.New(cfg.ChannelConfigs(), opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create channel coordinator")
	}
	defer func() {
		if err := coord.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing channel coordinator")
		}
	}()

	if store != nil {
		if cfg.Archive.Restore {
			if err := coord.RestoreFrom(store); err != nil {
				logging.Warn().Err(err).Msg("Failed to restore history from archive, starting empty")
			}
		}
		coord.AddSink(store)
	}

	// === EVENT BUS ===

	slogLogger := logging.NewSlogLogger()

	if cfg.EventBus.Enabled {
		pub, err := eventbus.NewNATSPublisher(cfg.EventBus, watermill.NewSlogLogger(slogLogger))
		if err != nil {
			logging.Fatal().Err(err).Str("url", cfg.EventBus.URL).Msg("Failed to create NATS publisher")
		}
		bus := eventbus.New(pub, cfg.EventBus)
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		coord.AddSink(bus)
		logging.Info().Str("url", cfg.EventBus.URL).Str("subjects", bus.Topic("*")).Msg("Publishing snapshots to NATS")
	} else {
		logging.Info().Msg("Event bus disabled (NATS_ENABLED=false)")
	}

	// === CONTROL ===

	session := control.New(coord.Primary(), control.Config{AckDuration: cfg.Control.AckDuration})
	defer func() {
		if err := session.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing control session")
		}
	}()

	// === WEBSOCKET + HTTP ===

	hub := ws.NewHub()
	detach := hub.Attach(coord, session)
	defer detach()

	deps := api.Dependencies{
		Coordinator:    coord,
		Control:        session,
		Hub:            hub,
		AllowedOrigins: cfg.Security.CORSOrigins,
	}
	if store != nil {
		deps.Archive = store
	}
	handler := api.NewHandler(deps)

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(slogLogger, cfg.TreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddIngestService(services.NewCoordinatorService(coord))
	if store != nil {
		tree.AddDataService(services.NewArchiveGCService(store))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Int("channels", len(coord.Channels())).Msg("Services added to supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	if err := awaitTree(ctx, errCh); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// awaitTree returns the supervisor tree's result. suture delivers exactly one
// value on errCh and never closes it, so it is received once.
func awaitTree(ctx context.Context, errCh <-chan error) error {
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		return <-errCh
	}
}
