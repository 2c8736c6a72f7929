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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// envObject exposes the process environment to HCL expressions as env.NAME.
func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !hclIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return cty.ObjectVal(vars)
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte, cfg *Config) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		NumCopies       *int     `hcl:"num_copies,optional"`
		Convert         *bool    `hcl:"convert,optional"`
		Quality         *int     `hcl:"quality,optional"`
		AutoOrient      *bool    `hcl:"auto_orient,optional"`
		ImageExtensions []string `hcl:"image_extensions,optional"`
		Ignore          []string `hcl:"ignore,optional"`
		KeepGoing       *bool    `hcl:"keep_going,optional"`
		Manifest        *string  `hcl:"manifest,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Apply what was set
	if hclCfg.NumCopies != nil {
		cfg.NumCopies = *hclCfg.NumCopies
	}
	if hclCfg.Convert != nil {
		cfg.Convert = *hclCfg.Convert
	}
	if hclCfg.Quality != nil {
		cfg.Quality = *hclCfg.Quality
	}
	if hclCfg.AutoOrient != nil {
		cfg.AutoOrient = *hclCfg.AutoOrient
	}
	if hclCfg.ImageExtensions != nil {
		cfg.ImageExtensions = hclCfg.ImageExtensions
	}
	if hclCfg.Ignore != nil {
		cfg.Ignore = hclCfg.Ignore
	}
	if hclCfg.KeepGoing != nil {
		cfg.KeepGoing = *hclCfg.KeepGoing
	}
	if hclCfg.Manifest != nil {
		cfg.Manifest = *hclCfg.Manifest
	}

	return nil
}
