// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package events carries library-change notifications between the library
// store and the recommendation cache.
//
// The transport is Watermill. Without a NATS URL the bus uses an in-process
// GoChannel; with one it uses core NATS through watermill-nats, so every
// instance sharing the broker sees every change. An EmbeddedServer can run a
// NATS server inside the process for single-binary deployments.
//
// Message flow:
//
//	library.ObservedStore -> Publisher.LibraryChanged -> topic library.changed
//	  -> Router handler -> CacheInvalidator.Invalidate(userID)
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicLibraryChanged is the topic for LibraryChanged events.
const TopicLibraryChanged = "library.changed"

// ErrInvalidEvent is returned when a decoded event is missing required fields.
var ErrInvalidEvent = errors.New("events: invalid event")

// LibraryChanged announces that a user's library was written.
type LibraryChanged struct {
	EventID string    `json:"event_id"`
	UserID  string    `json:"user_id"`
	BookIDs []string  `json:"book_ids,omitempty"`
	At      time.Time `json:"at"`
}

// NewLibraryChanged builds an event with a fresh ID and the current time.
func NewLibraryChanged(userID string, bookIDs []string) *LibraryChanged {
	return &LibraryChanged{
		EventID: uuid.NewString(),
		UserID:  userID,
		BookIDs: bookIDs,
		At:      time.Now().UTC(),
	}
}

// Validate checks the required fields.
func (e *LibraryChanged) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrInvalidEvent)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidEvent)
	}
	return nil
}

// ToMessage encodes the event as a Watermill message keyed by EventID.
func (e *LibraryChanged) ToMessage() (*message.Message, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal library event: %w", err)
	}
	msg := message.NewMessage(e.EventID, data)
	msg.Metadata.Set("user_id", e.UserID)
	return msg, nil
}

// DecodeLibraryChanged parses a message payload.
func DecodeLibraryChanged(msg *message.Message) (*LibraryChanged, error) {
	var e LibraryChanged
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
