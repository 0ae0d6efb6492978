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

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

// Transports.
const (
	TransportChannel = "gochannel"
	TransportNATS    = "nats"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("events: bus is closed")

// BusConfig configures the message transport.
type BusConfig struct {
	// NATSURL selects core NATS. Empty uses an in-process GoChannel.
	NATSURL string

	CloseTimeout  time.Duration
	ReconnectWait time.Duration

	// ChannelBuffer is the per-subscriber buffer for the GoChannel transport.
	ChannelBuffer int64
}

// DefaultBusConfig returns the in-process transport settings.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		CloseTimeout:  10 * time.Second,
		ReconnectWait: 2 * time.Second,
		ChannelBuffer: 64,
	}
}

// Bus owns a Watermill publisher and subscriber pair.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	transport  string
	wmLogger   watermill.LoggerAdapter
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus connects the transport selected by cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg BusConfig, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "event_bus").Logger()
	wmLogger := NewWatermillLogger(logger)

	b := &Bus{wmLogger: wmLogger, logger: logger}

	if cfg.NATSURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.ChannelBuffer,
		}, wmLogger)
		b.publisher = ch
		b.subscriber = ch
		b.transport = TransportChannel
	} else {
		pub, sub, err := newNATSPubSub(&cfg, wmLogger)
		if err != nil {
			return nil, err
		}
		b.publisher = pub
		b.subscriber = sub
		b.transport = TransportNATS
	}

	logger.Info().Str("transport", b.transport).Msg("Event bus ready")
	return b, nil
}

func newNATSPubSub(cfg *BusConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("shelfwise"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	// Core NATS: every instance receives every change and invalidates its
	// own cache, so no JetStream stream or queue group is used.
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // already returning the subscriber error
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return pub, sub, nil
}

// Transport names the active transport.
func (b *Bus) Transport() string {
	return b.transport
}

// Subscriber returns the underlying Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// WatermillLogger returns the adapter the bus logs through.
func (b *Bus) WatermillLogger() watermill.LoggerAdapter {
	return b.wmLogger
}

// Publish sends a LibraryChanged event.
func (b *Bus) Publish(_ context.Context, e *LibraryChanged) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	msg, err := e.ToMessage()
	if err != nil {
		return err
	}
	err = b.publisher.Publish(TopicLibraryChanged, msg)
	metrics.RecordEventPublished(TopicLibraryChanged, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", TopicLibraryChanged, err)
	}
	return nil
}

// LibraryChanged publishes a change event. Failures are logged, not
// returned, because the write they describe has already committed.
func (b *Bus) LibraryChanged(ctx context.Context, userID string, bookIDs []string) {
	e := NewLibraryChanged(userID, bookIDs)
	if err := b.Publish(ctx, e); err != nil {
		b.logger.Warn().Err(err).Str("user_id", userID).Str("event_id", e.EventID).Msg("Failed to publish library change")
		return
	}
	b.logger.Debug().Str("user_id", userID).Str("event_id", e.EventID).Int("books", len(bookIDs)).Msg("Library change published")
}

// Close shuts down the transport. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if b.transport == TransportNATS {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}
