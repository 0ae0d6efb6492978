// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"errors"
	"fmt"
)

var errRouterStopped = errors.New("event router stopped unexpectedly")

// EventRouter is satisfied by *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService runs the library-change event router. Each restart
// calls Run again, which builds a fresh subscription.
type EventRouterService struct {
	router EventRouter
}

// NewEventRouterService wraps router.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{router: router}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router stopped: %w", err)
	}
	return errRouterStopped
}

// String names the service in supervisor logs.
func (s *EventRouterService) String() string {
	return "event-router"
}
