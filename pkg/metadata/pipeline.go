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

// Package metadata builds one FileRecord per accepted path: built-in fields
// first, then each enabled provider in registration order.
package metadata

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/flatrc/pkg/filter"
	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures the metadata pipeline for one run
type Options struct {
	// ForceBinaryContent base64-encodes binary files instead of skipping them
	ForceBinaryContent bool
	// ReplaceInvalidChars substitutes undecodable bytes instead of marking
	// the file binary
	ReplaceInvalidChars bool
	// Add enables providers beyond the default-enabled set
	Add []string
	// Disable turns off providers, including default-enabled ones
	Disable []string
	// Remove hides metadata fields from rendering (projection only; the
	// fields are still computed and visible to later providers)
	Remove []string
}

// ⚙️ Pipeline builds records. Safe for concurrent use across files; provider
// execution stays sequential within a single record.
type Pipeline struct {
	opts   Options
	active []Provider
}

// 🏭 NewPipeline resolves the active provider set from the capability table.
// Unknown names in Add or Disable are returned so the caller can report them
// as warnings; they never abort the run.
func NewPipeline(table *Providers, opts Options) (*Pipeline, []string) {
	var unknown []string

	requested := make(map[string]bool, len(opts.Add))
	for _, name := range opts.Add {
		if _, ok := table.Get(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		requested[name] = true
	}

	disabled := make(map[string]bool, len(opts.Disable))
	for _, name := range opts.Disable {
		if _, ok := table.Get(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		disabled[name] = true
	}

	var active []Provider
	for _, provider := range table.List() {
		name := provider.Name()
		if disabled[name] {
			continue
		}
		if provider.EnabledByDefault() || requested[name] {
			active = append(active, provider)
		}
	}

	return &Pipeline{opts: opts, active: active}, unknown
}

// 🏗️ BuildRecord stats, reads and decodes one file, populates built-in
// fields, runs the active providers and applies the remove-list projection.
// The returned warnings are non-fatal (decode fallbacks, provider failures);
// a non-nil error means the file could not be read at all.
func (p *Pipeline) BuildRecord(ctx context.Context, absPath string, displayPath string) (*registry.FileRecord, []registry.Warning, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, nil, errors.Errorf("stating file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, errors.Errorf("reading file: %w", err)
	}

	record := &registry.FileRecord{
		Path:      displayPath,
		Name:      filepath.Base(absPath),
		Size:      info.Size(),
		Modified:  info.ModTime(),
		Extension: filter.NormalizeExtension(filepath.Ext(absPath)),
		Metadata:  make(map[string]any),
	}

	var warnings []registry.Warning

	if isBinary(data) {
		record.Binary = true
		if p.opts.ForceBinaryContent {
			record.Content = base64.StdEncoding.EncodeToString(data)
		} else {
			record.Content = registry.BinarySkippedContent
		}
	} else {
		content, decodeErr := decodeText(data, p.opts.ReplaceInvalidChars)
		if decodeErr != nil {
			// Undecodable without the replacement policy: treat as binary
			// and keep going, the record is still worth having.
			logger.Debug().Str("path", displayPath).Err(decodeErr).Msg("decode failed, marking binary")
			record.Binary = true
			record.Content = registry.BinarySkippedContent
			warnings = append(warnings, registry.Warning{
				Path:  displayPath,
				Stage: "metadata",
				Err:   decodeErr,
			})
		} else {
			record.Content = content
			record.LineCount = countLines(content)
		}
	}

	// Built-in fields. Providers may overwrite these; last write wins is the
	// documented override mechanism.
	record.Metadata["path"] = record.Path
	record.Metadata["size"] = record.Size
	record.Metadata["modified"] = record.Modified
	record.Metadata["extension"] = record.Extension
	record.Metadata["binary"] = record.Binary
	if !record.Binary {
		record.Metadata["line_count"] = record.LineCount
	}

	for _, provider := range p.active {
		if err := provider.Attach(ctx, record); err != nil {
			logger.Warn().
				Str("path", displayPath).
				Str("provider", provider.Name()).
				Err(err).
				Msg("metadata provider failed")
			warnings = append(warnings, registry.Warning{
				Path:  displayPath,
				Stage: "provider",
				Err:   errors.Errorf("provider %q: %w", provider.Name(), err),
			})
		}
	}

	// Removal is a projection: fields stay computed, they just stop being
	// rendered.
	for _, name := range p.opts.Remove {
		record.RemoveField(name)
	}

	return record, warnings, nil
}

// 📋 Active returns the names of the providers this pipeline will run, in
// execution order.
func (p *Pipeline) Active() []string {
	names := make([]string, 0, len(p.active))
	for _, provider := range p.active {
		names = append(names, provider.Name())
	}
	return names
}
