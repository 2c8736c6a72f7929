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
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/copies/pkg/config"
	"github.com/walteh/copies/pkg/duplicate"
	"github.com/walteh/copies/pkg/log"
	"github.com/walteh/copies/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the command line flags of a single command tree
type rootFlags struct {
	numCopies  int
	convert    bool
	quality    int
	autoOrient bool
	keepGoing  bool
	manifest   string
	configFile string
	debug      bool
}

// 🌳 newRootCmd creates the copies command tree
func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "copies [flags] <source> <target>",
		Short: "Duplicate every file in a folder, optionally converting images to CMYK JPEG",
		Long: `copies writes numbered duplicates of every regular file directly inside
<source> into <target>, named <name>_copy<i><ext>. With --convert, image files
are re-encoded as CMYK JPEGs (<name>_copy<i>.jpg); images that cannot be
converted are copied unchanged.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(f.setupLogging(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, args[0], args[1])
		},
	}

	addRootFlags(cmd, f)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addRootFlags adds the run flags to the root command
func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	cmd.Flags().IntVarP(&f.numCopies, "num_copies", "n", 1, "number of duplicates per file")
	cmd.Flags().BoolVarP(&f.convert, "convert", "c", false, "convert images to CMYK JPEG")
	cmd.Flags().IntVarP(&f.quality, "quality", "q", 75, "JPEG quality for converted images (1-100)")
	cmd.Flags().BoolVar(&f.autoOrient, "auto-orient", false, "apply the EXIF orientation of images before converting")
	cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "report copy failures and continue")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "write a manifest of the run (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&f.configFile, "config", "", "config file path (.yaml, .yml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog and the console logger and stores both in ctx
func (f *rootFlags) setupLogging(ctx context.Context, stdout, stderr io.Writer) context.Context {
	level := zerolog.InfoLevel
	if f.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	ctx = logger.WithContext(ctx)
	return log.NewContext(ctx, log.New(stdout, logger))
}

// ⚙️ resolveConfig loads the config file, if any, and applies the flags the
// user set explicitly on top of it
func (f *rootFlags) resolveConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.Load(ctx, f.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("num_copies") {
		cfg.NumCopies = f.numCopies
	}
	if flags.Changed("convert") {
		cfg.Convert = f.convert
	}
	if flags.Changed("quality") {
		cfg.Quality = f.quality
	}
	if flags.Changed("auto-orient") {
		cfg.AutoOrient = f.autoOrient
	}
	if flags.Changed("keep-going") {
		cfg.KeepGoing = f.keepGoing
	}
	if flags.Changed("manifest") {
		cfg.Manifest = f.manifest
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

// 🏃 run duplicates source into target
func (f *rootFlags) run(cmd *cobra.Command, source, target string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	cfg, err := f.resolveConfig(ctx, cmd)
	if err != nil {
		return err
	}

	var tracker *status.Tracker
	if cfg.Manifest != "" {
		tracker = status.NewTracker(source, target)
	}

	report, err := duplicate.Duplicate(ctx, duplicate.Options{
		Source:          source,
		Target:          target,
		Copies:          cfg.NumCopies,
		Convert:         cfg.Convert,
		Quality:         cfg.Quality,
		AutoOrient:      cfg.AutoOrient,
		ImageExtensions: cfg.ImageExtensions,
		Ignore:          cfg.Ignore,
		KeepGoing:       cfg.KeepGoing,
		Notifier:        console,
		Tracker:         tracker,
	})
	if report == nil {
		return err
	}

	console.Summary(report.Summary())

	if tracker != nil {
		if merr := tracker.WriteManifest(ctx, cfg.Manifest); merr != nil {
			if err == nil {
				return errors.Errorf("writing manifest: %w", merr)
			}
			logger.Error().Err(merr).Str("path", cfg.Manifest).Msg("writing manifest")
		}
	}

	return err
}
