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

// Package config defines the scan request and loads it from JSON, YAML or
// HCL files. CLI flags merge on top of file values in a second phase.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/flatrc/pkg/filter"
	"gitlab.com/tozd/go/errors"
)

// 📚 Config is the complete scan request
type Config struct {
	// Roots are the paths to scan. A file root is a forced inclusion.
	Roots []string `json:"roots,omitempty" yaml:"roots,omitempty" hcl:"roots,optional"`
	// Depth limits directory recursion (0 = unlimited)
	Depth int `json:"depth,omitempty" yaml:"depth,omitempty" hcl:"depth,optional"`
	// Output is the destination base name; each format appends its extension
	Output string `json:"output,omitempty" yaml:"output,omitempty" hcl:"output,optional"`
	// Formats are the requested output format names
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty" hcl:"formats,optional"`

	AbsolutePaths       bool `json:"absolute_paths,omitempty" yaml:"absolute_paths,omitempty" hcl:"absolute_paths,optional"`
	IgnoreErrors        bool `json:"ignore_errors,omitempty" yaml:"ignore_errors,omitempty" hcl:"ignore_errors,optional"`
	ReplaceInvalidChars bool `json:"replace_invalid_chars,omitempty" yaml:"replace_invalid_chars,omitempty" hcl:"replace_invalid_chars,optional"`
	ForceBinaryContent  bool `json:"force_binary_content,omitempty" yaml:"force_binary_content,omitempty" hcl:"force_binary_content,optional"`
	FollowSymlinks      bool `json:"follow_symlinks,omitempty" yaml:"follow_symlinks,omitempty" hcl:"follow_symlinks,optional"`

	MetadataAdd      []string `json:"metadata_add,omitempty" yaml:"metadata_add,omitempty" hcl:"metadata_add,optional"`
	MetadataRemove   []string `json:"metadata_remove,omitempty" yaml:"metadata_remove,omitempty" hcl:"metadata_remove,optional"`
	DisableProviders []string `json:"disable_providers,omitempty" yaml:"disable_providers,omitempty" hcl:"disable_providers,optional"`

	// Filters is the include/exclude rule set (see pkg/filter)
	Filters *filter.RuleSet `json:"filters,omitempty" yaml:"filters,omitempty" hcl:"filters,block"`

	// Renderer options, mirrored from the per-format CLI flags
	JSONNoContent  bool `json:"json_no_content,omitempty" yaml:"json_no_content,omitempty" hcl:"json_no_content,optional"`
	JSONCompact    bool `json:"json_compact,omitempty" yaml:"json_compact,omitempty" hcl:"json_compact,optional"`
	JSONMetadata   bool `json:"json_metadata,omitempty" yaml:"json_metadata,omitempty" hcl:"json_metadata,optional"`
	MarkdownTOC    bool `json:"md_toc,omitempty" yaml:"md_toc,omitempty" hcl:"md_toc,optional"`
	MarkdownStats  bool `json:"md_stats,omitempty" yaml:"md_stats,omitempty" hcl:"md_stats,optional"`
	MarkdownSyntax bool `json:"md_syntax,omitempty" yaml:"md_syntax,omitempty" hcl:"md_syntax,optional"`

	location string
}

// 🏭 Default returns the configuration used when no file and no flags are
// given: scan the working directory, write the text format to ./output.txt.
func Default() *Config {
	return &Config{
		Roots:   []string{"."},
		Output:  "output",
		Formats: []string{"text"},
	}
}

// 📋 RuleSet returns the filter rule set, empty when none was configured
func (cfg *Config) RuleSet() filter.RuleSet {
	if cfg.Filters == nil {
		return filter.RuleSet{}
	}
	return *cfg.Filters
}

// 📍 Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks the configuration and fills defaults. Configuration
// errors are fatal and reported before any scanning begins.
func (cfg *Config) Validate(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	if cfg.Output == "" {
		cfg.Output = "output"
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"text"}
	}

	for i, root := range cfg.Roots {
		cfg.Roots[i] = filepath.Clean(root)
		if _, err := os.Stat(cfg.Roots[i]); err != nil {
			return errors.Errorf("scan root %q: %w", root, err)
		}
	}

	if cfg.Depth < 0 {
		return errors.Errorf("depth must be >= 0, got %d", cfg.Depth)
	}

	// Compiling here surfaces malformed patterns before the walk starts.
	if _, err := filter.Compile(cfg.RuleSet()); err != nil {
		return errors.Errorf("compiling filters: %w", err)
	}

	logger.Debug().
		Strs("roots", cfg.Roots).
		Strs("formats", cfg.Formats).
		Int("depth", cfg.Depth).
		Msg("configuration validated")
	return nil
}

// 📝 String returns a short description of the scan request
func (cfg *Config) String() string {
	return fmt.Sprintf("%s -> %s [%s]",
		strings.Join(cfg.Roots, ","), cfg.Output, strings.Join(cfg.Formats, ","))
}
