// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/flatrc/cmd/flatrc/commands"
	"github.com/walteh/flatrc/cmd/flatrc/opts"
	"github.com/walteh/flatrc/pkg/config"
	"github.com/walteh/flatrc/pkg/metadata"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debugFlag  bool

	scanFlags commands.ScanFlags
)

// newRootOpts creates a new rootOpts with initialized dependencies
func newRootOpts(ctx context.Context, cmd *cobra.Command, args []string) (*opts.RootOpts, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	scanFlags.Apply(cmd.Flags(), cfg)
	if len(args) > 0 {
		// Positional roots win over both the config file and --paths.
		cfg.Roots = args
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &opts.RootOpts{
		Config:    cfg,
		Providers: metadata.DefaultProviders(),
	}, nil
}

// loadConfig reads the config file when one exists, otherwise starts from
// the built-in defaults. Flags are merged on top in either case.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			return config.Load(ctx, configFile)
		} else if configFile != ".flatrc" {
			// An explicitly named config file must exist.
			return nil, errors.Errorf("config file %q: %w", configFile, err)
		}
	}
	return config.Default(), nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".flatrc", "config file path")
	cmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// NewRootCmd creates the flatrc root command. Running it with no
// subcommand performs a scan with the merged config.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatrc [paths...]",
		Short: "Flatten a codebase into single-file artifacts",
		Long: `flatrc walks one or more directory trees, filters the files it finds,
attaches metadata, and renders everything into one artifact per requested
output format (text, markdown, json).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			setupLogging()

			o, err := newRootOpts(ctx, cmd, args)
			if err != nil {
				return err
			}

			return commands.RunScan(ctx, o)
		},
	}

	addRootFlags(cmd)
	scanFlags.Register(cmd.Flags())

	cmd.AddCommand(commands.NewFormatsCmd())
	cmd.AddCommand(commands.NewProvidersCmd(metadata.DefaultProviders()))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
