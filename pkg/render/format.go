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

// Package render turns a filled registry into output artifacts. Formats are
// a closed capability table; the dispatcher runs them concurrently, each
// against the same immutable registry, and one format's failure never blocks
// another.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// 🚫 ErrUnknownFormat indicates a requested format name is not registered
	ErrUnknownFormat = errors.New("unknown output format")

	// 🚫 ErrDuplicateFormat indicates two formats registered the same name
	ErrDuplicateFormat = errors.New("duplicate output format")
)

// 🖨️ Format renders one artifact from the registry
type Format interface {
	// 📛 Name is the unique format name users request
	Name() string

	// 📎 Extension is the artifact file extension, with leading dot
	Extension() string

	// 🖨️ Render writes the artifact. The registry is read-only here.
	Render(ctx context.Context, reg *registry.Registry, w io.Writer) error
}

// 🔧 Options tunes the built-in formats, mirroring their CLI flags
type Options struct {
	JSONNoContent bool // exclude file contents from JSON output
	JSONCompact   bool // minified JSON instead of indented
	JSONMetadata  bool // include generator metadata in JSON output

	MarkdownTOC    bool // include a table of contents
	MarkdownStats  bool // include codebase statistics
	MarkdownSyntax bool // add language hints to code fences
}

// 🗺️ Formats is the closed format capability table for one run
type Formats struct {
	order  []string
	byName map[string]Format
}

// 🏭 NewFormats creates an empty format table
func NewFormats() *Formats {
	return &Formats{
		byName: make(map[string]Format),
	}
}

// 📝 Register adds a format. Duplicate names are a configuration error.
func (f *Formats) Register(format Format) error {
	name := format.Name()
	if _, ok := f.byName[name]; ok {
		return errors.Errorf("%w: %q", ErrDuplicateFormat, name)
	}
	f.byName[name] = format
	f.order = append(f.order, name)
	return nil
}

// 🎯 Get returns a format by name
func (f *Formats) Get(name string) (Format, bool) {
	format, ok := f.byName[name]
	return format, ok
}

// 📇 FormatInfo describes one registered format for the query surface
type FormatInfo struct {
	Name      string
	Extension string
}

// 📇 Describe returns a read-only snapshot of the capability table
func (f *Formats) Describe() []FormatInfo {
	infos := make([]FormatInfo, 0, len(f.order))
	for _, name := range f.order {
		format := f.byName[name]
		infos = append(infos, FormatInfo{Name: format.Name(), Extension: format.Extension()})
	}
	return infos
}

// 🏗️ BuiltinFormats returns the formats that ship with flatrc
func BuiltinFormats(opts Options) []Format {
	return []Format{
		&textFormat{},
		&markdownFormat{opts: opts},
		&jsonFormat{opts: opts},
	}
}

// 🚚 Dispatcher resolves requested format names and renders each artifact
type Dispatcher struct {
	formats *Formats
}

// 🏭 NewDispatcher creates a dispatcher over a format table
func NewDispatcher(formats *Formats) *Dispatcher {
	return &Dispatcher{formats: formats}
}

// 🏃 Dispatch renders every requested format against the registry. Unknown
// names and per-format failures become warnings; valid formats always get a
// chance to produce their artifact. Returns the paths of artifacts written.
func (d *Dispatcher) Dispatch(ctx context.Context, reg *registry.Registry, requested []string, destBase string) ([]string, []registry.Warning) {
	logger := zerolog.Ctx(ctx)

	var resolved []Format
	var warnings []registry.Warning
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		format, ok := d.formats.Get(name)
		if !ok {
			logger.Warn().Str("format", name).Msg("no renderer registered for format")
			warnings = append(warnings, registry.Warning{
				Stage: "render",
				Err:   errors.Errorf("%w: %q", ErrUnknownFormat, name),
			})
			continue
		}
		resolved = append(resolved, format)
	}

	var mu sync.Mutex
	written := make([]string, 0, len(resolved))

	// errgroup is used for bounded fan-out only; render errors are collected
	// as warnings instead of propagating, so formats stay isolated.
	group, groupCtx := errgroup.WithContext(ctx)
	for _, format := range resolved {
		format := format
		group.Go(func() error {
			dest := destBase + format.Extension()
			if err := renderTo(groupCtx, format, reg, dest); err != nil {
				logger.Warn().Str("format", format.Name()).Err(err).Msg("renderer failed")
				mu.Lock()
				warnings = append(warnings, registry.Warning{
					Path:  dest,
					Stage: "render",
					Err:   errors.Errorf("rendering %s: %w", format.Name(), err),
				})
				mu.Unlock()
				return nil
			}
			logger.Info().Str("format", format.Name()).Str("dest", dest).Msg("artifact generated")
			mu.Lock()
			written = append(written, dest)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return written, warnings
}

// 💾 renderTo renders into memory and writes the artifact atomically
// (temp file + rename), so a failing renderer never leaves a torn artifact.
func renderTo(ctx context.Context, format Format, reg *registry.Registry, dest string) error {
	var buf bytes.Buffer
	if err := format.Render(ctx, reg, &buf); err != nil {
		return err
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Errorf("creating output directory: %w", err)
		}
	}

	tempPath := dest + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// 📏 formatSize converts a byte count into a human-readable string
func formatSize(byteCount int64) string {
	size := float64(byteCount)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", size)
}
