// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Command shelfwise serves book recommendations built from a reader's personal
library.

	shelfwise serve                          run the HTTP API under the supervisor tree
	shelfwise recommend --library books.json print recommendations for an export
	shelfwise similar --title "Dune"         print books similar to a title
	shelfwise import --user alice --file x   load an export into the configured store
	shelfwise token --user alice             mint an HS256 token for jwt auth mode
	shelfwise version                        print build information

Configuration comes from defaults, an optional YAML file (--config or
CONFIG_PATH), an optional .env file and environment variables, in that order.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "shelfwise",
		Short:         "Book recommendations from your personal library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			return c.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: config.yaml or $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		c.serveCmd(),
		c.recommendCmd(),
		c.similarCmd(),
		c.importCmd(),
		c.tokenCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return fmt.Errorf("set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})

	c.cfg = cfg
	c.logger = logging.Logger()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
