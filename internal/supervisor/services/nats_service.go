// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrNATSServerStopped reports that the embedded server exited on its own.
var ErrNATSServerStopped = errors.New("embedded NATS server stopped")

// NATSServer is satisfied by *events.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// NATSServerService owns an already started embedded NATS server. It
// watches the server while the tree runs and shuts it down on cancel.
//
// The server is started before the tree so that the event bus can connect
// during startup. A server that dies cannot be restarted in place, so the
// service then leaves the tree instead of looping.
type NATSServerService struct {
	server          NATSServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewNATSServerService wraps server.
func NewNATSServerService(server NATSServer, checkInterval, shutdownTimeout time.Duration) *NATSServerService {
	if checkInterval <= 0 {
		checkInterval = 5 * time.Second
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &NATSServerService{
		server:          server,
		checkInterval:   checkInterval,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("NATS server shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.server.IsRunning() {
				return fmt.Errorf("%w: %w", ErrNATSServerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *NATSServerService) String() string {
	return "nats-server"
}
