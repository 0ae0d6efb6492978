// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
)

// Open builds the backend named by cfg.Backend and wraps it in an
// ObservedStore. The caller owns the returned store and must Close it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg *config.LibraryConfig, notifier Notifier, logger zerolog.Logger) (*ObservedStore, error) {
	var (
		backend Store
		err     error
	)

	switch cfg.Backend {
	case config.BackendMemory, "":
		backend = NewMemoryStore()
	case config.BackendBadger:
		backend, err = OpenBadgerStore(cfg.BadgerPath)
	case config.BackendDuckDB:
		backend, err = OpenDuckDBStore(ctx, cfg.DuckDBPath)
	default:
		return nil, fmt.Errorf("unknown library backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	name := cfg.Backend
	if name == "" {
		name = config.BackendMemory
	}
	logger.Info().Str("backend", name).Msg("Library store opened")
	return NewObservedStore(backend, name, notifier, logger), nil
}
