// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfwise/internal/api"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/events"
	"github.com/tomtom215/shelfwise/internal/library"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/supervisor"
	"github.com/tomtom215/shelfwise/internal/supervisor/services"
)

const natsHealthInterval = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c.cfg, c.logger)
		},
	}
}

// eventComponents are the optional pieces of the library-change pipeline.
type eventComponents struct {
	server *events.EmbeddedServer
	bus    *events.Bus
	router *events.Router
}

func (e *eventComponents) close(timeout time.Duration, logger *zerolog.Logger) {
	if e.bus != nil {
		if err := e.bus.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing event bus")
		}
	}
	if e.server != nil && e.server.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Error stopping embedded NATS server")
		}
	}
}

// initEvents starts the embedded NATS server if configured and connects the bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initEvents(cfg *config.EventsConfig, invalidator events.CacheInvalidator, logger zerolog.Logger) (*eventComponents, error) {
	comps := &eventComponents{}
	if !cfg.Enabled {
		logger.Info().Msg("Library change events disabled")
		return comps, nil
	}

	natsURL := cfg.NATSURL
	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(events.ServerConfig{Host: cfg.EmbeddedHost, Port: cfg.EmbeddedPort})
		if err != nil {
			return nil, fmt.Errorf("embedded NATS server: %w", err)
		}
		comps.server = srv
		natsURL = srv.ClientURL()
		logger.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	busCfg := events.DefaultBusConfig()
	busCfg.NATSURL = natsURL
	if cfg.CloseTimeout > 0 {
		busCfg.CloseTimeout = cfg.CloseTimeout
	}
	bus, err := events.NewBus(busCfg, logger)
	if err != nil {
		comps.close(cfg.CloseTimeout, &logger)
		return nil, fmt.Errorf("event bus: %w", err)
	}
	comps.bus = bus

	routerCfg := events.DefaultRouterConfig()
	if cfg.CloseTimeout > 0 {
		routerCfg.CloseTimeout = cfg.CloseTimeout
	}
	router, err := events.NewRouter(bus, invalidator, routerCfg, logger)
	if err != nil {
		comps.close(cfg.CloseTimeout, &logger)
		return nil, fmt.Errorf("event router: %w", err)
	}
	comps.router = router

	logger.Info().Str("transport", bus.Transport()).Msg("Library change events enabled")
	return comps, nil
}

// runServe wires the store, engine, events and HTTP API, then runs the
// supervisor tree until ctx is canceled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("library_backend", cfg.Library.Backend).
		Str("search_provider", cfg.Search.Provider).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Shelfwise")

	store, err := library.Open(ctx, &cfg.Library, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing library store")
		}
	}()

	engine, err := newEngine(cfg, store, logger)
	if err != nil {
		return err
	}

	evts, err := initEvents(&cfg.Events, engine, logger)
	if err != nil {
		return err
	}
	defer evts.close(cfg.Events.CloseTimeout, &logger)
	if evts.bus != nil {
		store.SetNotifier(evts.bus)
	}

	handler, err := api.NewHandler(engine, store, version, logger)
	if err != nil {
		return err
	}
	router, err := handler.Router(&cfg.Security)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if evts.server != nil {
		tree.AddDataService(services.NewNATSServerService(evts.server, natsHealthInterval, cfg.Events.CloseTimeout))
	}
	if evts.router != nil {
		tree.AddMessagingService(services.NewEventRouterService(evts.router))
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("Service did not stop within shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logger.Info().Msg("Shelfwise stopped")
	return nil
}
