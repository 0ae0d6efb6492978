// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

const invalidateHandlerName = "recommendation-cache-invalidator"

// CacheInvalidator drops cached results for a user.
type CacheInvalidator interface {
	Invalidate(userID string)
}

// RouterConfig holds router middleware settings.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultRouterConfig returns the production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
	}
}

// Router consumes library.changed events and invalidates the
// recommendation cache. Each Run builds a fresh Watermill router so the
// service can be restarted by a supervisor.
type Router struct {
	bus         *Bus
	invalidator CacheInvalidator
	config      RouterConfig
	logger      zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// NewRouter creates a router bound to bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(bus *Bus, invalidator CacheInvalidator, cfg RouterConfig, logger zerolog.Logger) (*Router, error) {
	if bus == nil {
		return nil, errors.New("events: router requires a bus")
	}
	if invalidator == nil {
		return nil, errors.New("events: router requires a cache invalidator")
	}
	return &Router{
		bus:         bus,
		invalidator: invalidator,
		config:      cfg,
		logger:      logger.With().Str("component", "event_router").Logger(),
		ready:       make(chan struct{}),
	}, nil
}

// Ready is closed once the first Run has subscribed.
func (r *Router) Ready() <-chan struct{} {
	return r.ready
}

// Run processes events until ctx is canceled.
func (r *Router) Run(ctx context.Context) error {
	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: r.config.CloseTimeout,
	}, r.bus.WatermillLogger())
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      r.config.RetryMaxRetries,
			InitialInterval: r.config.RetryInitialInterval,
			MaxInterval:     r.config.RetryMaxInterval,
			Multiplier:      2.0,
			Logger:          r.bus.WatermillLogger(),
		}.Middleware,
	)

	wmRouter.AddConsumerHandler(
		invalidateHandlerName,
		TopicLibraryChanged,
		r.bus.Subscriber(),
		r.handleLibraryChanged,
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-wmRouter.Running():
			r.readyOnce.Do(func() { close(r.ready) })
		case <-done:
		}
	}()

	r.logger.Info().Str("topic", TopicLibraryChanged).Msg("Event router starting")
	if err := wmRouter.Run(ctx); err != nil {
		return fmt.Errorf("run event router: %w", err)
	}
	r.logger.Info().Msg("Event router stopped")
	return nil
}

func (r *Router) handleLibraryChanged(msg *message.Message) error {
	e, err := DecodeLibraryChanged(msg)
	if err != nil {
		// Malformed events will never decode; ack and drop them.
		metrics.RecordEventConsumed(TopicLibraryChanged, err)
		r.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed library event")
		return nil
	}

	r.invalidator.Invalidate(e.UserID)
	metrics.RecordEventConsumed(TopicLibraryChanged, nil)
	r.logger.Debug().
		Str("event_id", e.EventID).
		Str("user_id", e.UserID).
		Msg("Recommendation cache invalidated")
	return nil
}
