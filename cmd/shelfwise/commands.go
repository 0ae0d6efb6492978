// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/library"
)

const cliUser = "cli"

// libraryFlags select where one-shot commands read the library from.
type libraryFlags struct {
	file   string
	userID string
}

func (f *libraryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "library", "", "library export (.json, .yaml); default reads the configured store")
	cmd.Flags().StringVar(&f.userID, "user", "", "user whose library to use (default: the configured default user)")
}

// openLibrary returns a store holding the reader's library and the user to query.
// With --library the export is imported into a throwaway memory store.
func (c *cli) openLibrary(ctx context.Context, f *libraryFlags) (library.Store, string, error) {
	if f.file != "" {
		userID := f.userID
		if userID == "" {
			userID = cliUser
		}
		store := library.NewMemoryStore()
		result, err := library.NewImporter(c.logger).Import(ctx, store, userID, f.file)
		if err != nil {
			return nil, "", err
		}
		c.logger.Debug().Int("accepted", result.Accepted).Int("rejected", len(result.Rejected)).Msg("Library export loaded")
		return store, userID, nil
	}

	userID := f.userID
	if userID == "" {
		userID = c.cfg.Security.DefaultUserID
	}
	store, err := library.Open(ctx, &c.cfg.Library, nil, c.logger)
	if err != nil {
		return nil, "", err
	}
	return store, userID, nil
}

func (c *cli) recommendCmd() *cobra.Command {
	var (
		lib   libraryFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for a library as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, userID, err := c.openLibrary(ctx, &lib)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, err := newEngine(c.cfg, store, c.logger)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), nonNil(engine.GetRecommendations(ctx, userID, limit)))
		},
	}
	lib.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "number of recommendations (default: recommend.default_limit)")
	return cmd
}

func (c *cli) similarCmd() *cobra.Command {
	var (
		lib           libraryFlags
		title, author string
		limit         int
	)
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Print books similar to a title as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, userID, err := c.openLibrary(ctx, &lib)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, err := newEngine(c.cfg, store, c.logger)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), nonNil(engine.GetSimilarBooks(ctx, userID, title, author, limit)))
		},
	}
	lib.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "title to find similar books for")
	cmd.Flags().StringVar(&author, "author", "", "author of the title")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results (default: recommend.default_similar_limit)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var userID, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a library export into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Library.Backend == config.BackendMemory || c.cfg.Library.Backend == "" {
				return errors.New("import needs a persistent library backend (badger or duckdb)")
			}

			store, err := library.Open(ctx, &c.cfg.Library, nil, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := library.NewImporter(c.logger).Import(ctx, store, userID, file)
			if err != nil {
				return err
			}
			c.logger.Info().
				Str("user_id", userID).
				Str("backend", store.Backend()).
				Int("accepted", result.Accepted).
				Int("rejected", len(result.Rejected)).
				Msg("Library imported")
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user to import the library for")
	cmd.Flags().StringVar(&file, "file", "", "library export (.json, .yaml)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HS256 bearer token for jwt auth mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := auth.NewJWTManager(&c.cfg.Security)
			if err != nil {
				return err
			}
			token, err := mgr.GenerateToken(userID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "shelfwise %s (commit %s, built %s, %s)\n",
				version, commit, buildDate, runtime.Version())
			return err
		},
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
