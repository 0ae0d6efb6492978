// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// errSimulated is returned by a MockService while it has failures left.
var errSimulated = errors.New("simulated failure")

// MockService is a controllable suture.Service for tests.
type MockService struct {
	name       string
	started    chan struct{}
	startCount atomic.Int32
	stopCount  atomic.Int32
	failsLeft  atomic.Int32
}

// NewMockService creates a mock that runs until its context is canceled.
func NewMockService(name string) *MockService {
	return &MockService{name: name, started: make(chan struct{}, 16)}
}

// FailTimes makes the next n calls to Serve fail immediately.
func (m *MockService) FailTimes(n int32) *MockService {
	m.failsLeft.Store(n)
	return m
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	select {
	case m.started <- struct{}{}:
	default:
	}

	if m.failsLeft.Add(-1) >= 0 {
		return errSimulated
	}

	<-ctx.Done()
	return ctx.Err()
}

// Started receives once per call to Serve.
func (m *MockService) Started() <-chan struct{} {
	return m.started
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// StopCount returns how many times Serve returned.
func (m *MockService) StopCount() int32 {
	return m.stopCount.Load()
}

// String names the service in supervisor logs.
func (m *MockService) String() string {
	return m.name
}
