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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copies/pkg/imaging"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.NumCopies)
	assert.False(t, cfg.Convert)
	assert.Equal(t, 75, cfg.Quality)
	assert.Equal(t, imaging.DefaultExtensions, cfg.ImageExtensions)
	assert.NoError(t, cfg.Validate())

	cfg.ImageExtensions[0] = ".webp"
	assert.Equal(t, ".png", imaging.DefaultExtensions[0], "defaults must not alias the package list")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "yaml_full",
			file: ".copies.yaml",
			config: `
num_copies: 3
convert: true
quality: 90
auto_orient: true
image_extensions: [".PNG", ".webp"]
ignore:
  - "*.tmp"
  - ".DS_Store"
keep_going: true
manifest: copies.lock.yaml
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.NumCopies)
				assert.True(t, cfg.Convert)
				assert.Equal(t, 90, cfg.Quality)
				assert.True(t, cfg.AutoOrient)
				assert.Equal(t, []string{".png", ".webp"}, cfg.ImageExtensions)
				assert.Equal(t, []string{"*.tmp", ".DS_Store"}, cfg.Ignore)
				assert.True(t, cfg.KeepGoing)
				assert.Equal(t, "copies.lock.yaml", cfg.Manifest)
			},
		},
		{
			name:   "yaml_partial_keeps_defaults",
			file:   "copies.yml",
			config: "num_copies: 2\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.NumCopies)
				assert.Equal(t, 75, cfg.Quality)
				assert.Equal(t, imaging.DefaultExtensions, cfg.ImageExtensions)
			},
		},
		{
			name:   "yaml_empty",
			file:   "copies.yaml",
			config: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name:        "yaml_unknown_field",
			file:        "copies.yaml",
			config:      "num_copy: 2\n",
			errContains: "parsing YAML",
		},
		{
			name:   "json",
			file:   "copies.json",
			config: `{"num_copies": 4, "convert": true, "ignore": ["**/*.bak"]}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 4, cfg.NumCopies)
				assert.True(t, cfg.Convert)
				assert.Equal(t, []string{"**/*.bak"}, cfg.Ignore)
				assert.Equal(t, 75, cfg.Quality)
			},
		},
		{
			name:        "json_unknown_field",
			file:        "copies.json",
			config:      `{"copies": 4}`,
			errContains: "parsing JSON",
		},
		{
			name: "hcl",
			file: "copies.hcl",
			config: `
num_copies = 5
convert    = true
quality    = 60
ignore     = ["*.tmp"]
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.NumCopies)
				assert.True(t, cfg.Convert)
				assert.Equal(t, 60, cfg.Quality)
				assert.Equal(t, []string{"*.tmp"}, cfg.Ignore)
				assert.Equal(t, imaging.DefaultExtensions, cfg.ImageExtensions)
			},
		},
		{
			name:        "hcl_unknown_attribute",
			file:        "copies.hcl",
			config:      `copies = 5`,
			errContains: "decoding HCL",
		},
		{
			name:        "hcl_syntax_error",
			file:        "copies.hcl",
			config:      `num_copies = `,
			errContains: "parsing HCL",
		},
		{
			name:        "invalid_quality",
			file:        "copies.yaml",
			config:      "quality: 101\n",
			errContains: "quality 101 is outside 1..100",
		},
		{
			name:        "invalid_extension",
			file:        "copies.yaml",
			config:      "image_extensions: [png]\n",
			errContains: "must start with a dot",
		},
		{
			name:        "invalid_ignore",
			file:        "copies.yaml",
			config:      "ignore: [\"[abc\"]\n",
			errContains: "malformed",
		},
		{
			name:        "unsupported_extension",
			file:        "copies.toml",
			config:      "num_copies = 1",
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.config)

			cfg, err := Load(testContext(t), path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadHCLEnv(t *testing.T) {
	t.Setenv("COPIES_MANIFEST_DIR", "/tmp/manifests")
	path := writeConfig(t, "copies.hcl", `manifest = "${env.COPIES_MANIFEST_DIR}/run.json"`)

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/manifests/run.json", cfg.Manifest)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(testContext(t), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidateErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.ImageExtensions = nil
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.Quality = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.NumCopies = -3
	assert.NoError(t, cfg.Validate(), "non-positive copy counts are a no-op, not an error")
}
