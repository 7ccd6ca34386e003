// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ripplenotify/internal/admin"
	"github.com/tomtom215/ripplenotify/internal/api"
	"github.com/tomtom215/ripplenotify/internal/config"
	"github.com/tomtom215/ripplenotify/internal/dispatcher"
	"github.com/tomtom215/ripplenotify/internal/logging"
	"github.com/tomtom215/ripplenotify/internal/registry"
	"github.com/tomtom215/ripplenotify/internal/store"
	"github.com/tomtom215/ripplenotify/internal/supervisor"
	"github.com/tomtom215/ripplenotify/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Ripplenotify exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	logger := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("feed_source", cfg.Feed.Source).
		Str("store_driver", cfg.Store.Driver).
		Msg("Starting Ripplenotify")

	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	}, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing store")
		}
	}()

	channels, tokens, err := buildChannels(cfg, os.ReadFile, logger)
	if err != nil {
		return err
	}

	subs := registry.New(logger)
	svc := admin.NewService(subs, st, channels, logger)
	if _, err := svc.Resubscribe(ctx); err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	disp := dispatcher.New(subs, channels, dispatcher.Config{
		QueueSize:       cfg.Feed.EventBuffer,
		Workers:         cfg.Dispatch.Workers,
		DeliveryTimeout: cfg.Delivery.Timeout,
	}, logger)

	source, err := buildFeed(cfg, disp, logger)
	if err != nil {
		return err
	}

	handler := api.NewHandler(svc, disp, channels.List())
	if tokens != nil {
		handler.WithTimelineAuth(tokens)
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(chiConfig(cfg)))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	if floor := cfg.Delivery.Timeout + 5*time.Second; treeCfg.ShutdownTimeout < floor {
		treeCfg.ShutdownTimeout = floor
	}
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	tree.AddIngestService(source)
	tree.AddDispatchService(disp)
	tree.AddAPIService(services.NewHTTPServerService("http-server", server, 10*time.Second, logger))

	logger.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
		serveErr = <-errCh
	case serveErr = <-errCh:
		stop()
	}

	var runErr error
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		runErr = fmt.Errorf("supervisor tree: %w", serveErr)
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logger.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}
	return runErr
}

func chiConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.RateLimitRequests = cfg.Server.RateLimitReqs
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	return mw
}
