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

package config

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/copies/pkg/cmykjpeg"
	"github.com/walteh/copies/pkg/imaging"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.Base("invalid config")

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes data over cfg, leaving fields absent from data untouched
	Parse(ctx context.Context, data []byte, cfg *Config) error

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the defaults for a run
type Config struct {
	NumCopies       int      `json:"num_copies" yaml:"num_copies"`
	Convert         bool     `json:"convert" yaml:"convert"`
	Quality         int      `json:"quality" yaml:"quality"`
	AutoOrient      bool     `json:"auto_orient" yaml:"auto_orient"`
	ImageExtensions []string `json:"image_extensions" yaml:"image_extensions"`
	Ignore          []string `json:"ignore" yaml:"ignore"`
	KeepGoing       bool     `json:"keep_going" yaml:"keep_going"`
	Manifest        string   `json:"manifest" yaml:"manifest"`
}

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		NumCopies:       1,
		Quality:         cmykjpeg.DefaultQuality,
		ImageExtensions: slices.Clone(imaging.DefaultExtensions),
	}
}

// 🎯 Load reads the file at path over the defaults and validates the result
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg := Default()
	if err := p.Parse(ctx, data, cfg); err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().
		Int("num_copies", cfg.NumCopies).
		Bool("convert", cfg.Convert).
		Int("quality", cfg.Quality).
		Strs("ignore", cfg.Ignore).
		Msg("loaded configuration")

	return cfg, nil
}

// ✅ Validate checks the config and normalizes image extensions to lowercase
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return errors.Errorf("%w: quality %d is outside 1..100", ErrInvalid, c.Quality)
	}

	if len(c.ImageExtensions) == 0 {
		return errors.Errorf("%w: image_extensions must not be empty", ErrInvalid)
	}
	for i, ext := range c.ImageExtensions {
		ext = strings.TrimSpace(ext)
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
			return errors.Errorf("%w: image extension %q must start with a dot", ErrInvalid, c.ImageExtensions[i])
		}
		c.ImageExtensions[i] = strings.ToLower(ext)
	}

	for _, pattern := range c.Ignore {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("%w: ignore pattern %q is malformed", ErrInvalid, pattern)
		}
	}

	return nil
}
