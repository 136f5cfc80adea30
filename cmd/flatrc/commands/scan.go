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

package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/walteh/flatrc/cmd/flatrc/opts"
	"github.com/walteh/flatrc/pkg/config"
	"github.com/walteh/flatrc/pkg/filter"
	"github.com/walteh/flatrc/pkg/log"
	"github.com/walteh/flatrc/pkg/metadata"
	"github.com/walteh/flatrc/pkg/registry"
	"github.com/walteh/flatrc/pkg/render"
	"github.com/walteh/flatrc/pkg/scanner"
	"gitlab.com/tozd/go/errors"
)

// 🚩 ScanFlags mirrors every config field onto the CLI. Values only override
// the config file when the flag was set on the command line.
type ScanFlags struct {
	Roots   []string
	Depth   int
	Output  string
	Formats []string

	AbsolutePaths       bool
	IgnoreErrors        bool
	ReplaceInvalidChars bool
	ForceBinaryContent  bool
	FollowSymlinks      bool

	MetadataAdd      []string
	MetadataRemove   []string
	DisableProviders []string

	ExcludeDirs       []string
	IncludeDirs       []string
	ExcludeFiles      []string
	IncludeFiles      []string
	OnlyExtensions    []string
	ExcludeExtensions []string
	ExcludeGlobs      []string
	NoDefaultRules    bool

	JSONNoContent  bool
	JSONCompact    bool
	JSONMetadata   bool
	MarkdownTOC    bool
	MarkdownStats  bool
	MarkdownSyntax bool
}

// 📝 Register declares every scan flag on the given flag set
func (f *ScanFlags) Register(flags *pflag.FlagSet) {
	flags.StringSliceVarP(&f.Roots, "paths", "p", nil, "paths to scan")
	flags.IntVar(&f.Depth, "depth", 0, "directory recursion limit (0 = unlimited)")
	flags.StringVarP(&f.Output, "output", "o", "", "output base name, format extensions are appended")
	flags.StringSliceVarP(&f.Formats, "formats", "f", nil, "output formats (text, markdown, json)")

	flags.BoolVar(&f.AbsolutePaths, "absolute-paths", false, "use absolute paths in output")
	flags.BoolVar(&f.IgnoreErrors, "ignore-errors", false, "downgrade per-file errors to warnings")
	flags.BoolVar(&f.ReplaceInvalidChars, "replace-invalid-chars", false, "replace undecodable characters instead of skipping")
	flags.BoolVar(&f.ForceBinaryContent, "force-binary", false, "base64-encode binary file contents")
	flags.BoolVar(&f.FollowSymlinks, "follow-symlinks", false, "follow symbolic links (cycles are refused)")

	flags.StringSliceVar(&f.MetadataAdd, "metadata-add", nil, "extra metadata providers to enable")
	flags.StringSliceVar(&f.MetadataRemove, "metadata-remove", nil, "metadata fields to hide from output")
	flags.StringSliceVar(&f.DisableProviders, "disable-provider", nil, "metadata providers to disable")

	flags.StringSliceVar(&f.ExcludeDirs, "exclude-dirs", nil, "directory name patterns to exclude (regex)")
	flags.StringSliceVar(&f.IncludeDirs, "include-dirs", nil, "directory name patterns to include (regex, overrides excludes)")
	flags.StringSliceVar(&f.ExcludeFiles, "exclude-files", nil, "file name patterns to exclude (regex)")
	flags.StringSliceVar(&f.IncludeFiles, "include-files", nil, "file name patterns to include (regex, overrides excludes)")
	flags.StringSliceVarP(&f.OnlyExtensions, "extensions", "e", nil, "only include files with these extensions")
	flags.StringSliceVar(&f.ExcludeExtensions, "exclude-extensions", nil, "exclude files with these extensions")
	flags.StringSliceVar(&f.ExcludeGlobs, "exclude", nil, "glob patterns matched against root-relative paths")
	flags.BoolVar(&f.NoDefaultRules, "no-default-rules", false, "start from an empty rule set instead of the defaults")

	flags.BoolVar(&f.JSONNoContent, "json-no-content", false, "omit file contents from JSON output")
	flags.BoolVar(&f.JSONCompact, "json-compact", false, "minified JSON instead of indented")
	flags.BoolVar(&f.JSONMetadata, "json-metadata", false, "include generator metadata in JSON output")
	flags.BoolVar(&f.MarkdownTOC, "md-toc", false, "include a table of contents in Markdown output")
	flags.BoolVar(&f.MarkdownStats, "md-stats", false, "include statistics in Markdown output")
	flags.BoolVar(&f.MarkdownSyntax, "md-syntax", false, "add language hints to Markdown code fences")
}

// 🔀 Apply merges flag values over the config. Only flags the user actually
// set participate, so the config file keeps authority over everything else.
func (f *ScanFlags) Apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("paths") {
		cfg.Roots = f.Roots
	}
	if flags.Changed("depth") {
		cfg.Depth = f.Depth
	}
	if flags.Changed("output") {
		cfg.Output = f.Output
	}
	if flags.Changed("formats") {
		cfg.Formats = f.Formats
	}

	if flags.Changed("absolute-paths") {
		cfg.AbsolutePaths = f.AbsolutePaths
	}
	if flags.Changed("ignore-errors") {
		cfg.IgnoreErrors = f.IgnoreErrors
	}
	if flags.Changed("replace-invalid-chars") {
		cfg.ReplaceInvalidChars = f.ReplaceInvalidChars
	}
	if flags.Changed("force-binary") {
		cfg.ForceBinaryContent = f.ForceBinaryContent
	}
	if flags.Changed("follow-symlinks") {
		cfg.FollowSymlinks = f.FollowSymlinks
	}

	if flags.Changed("metadata-add") {
		cfg.MetadataAdd = f.MetadataAdd
	}
	if flags.Changed("metadata-remove") {
		cfg.MetadataRemove = f.MetadataRemove
	}
	if flags.Changed("disable-provider") {
		cfg.DisableProviders = f.DisableProviders
	}

	f.applyFilters(flags, cfg)

	if flags.Changed("json-no-content") {
		cfg.JSONNoContent = f.JSONNoContent
	}
	if flags.Changed("json-compact") {
		cfg.JSONCompact = f.JSONCompact
	}
	if flags.Changed("json-metadata") {
		cfg.JSONMetadata = f.JSONMetadata
	}
	if flags.Changed("md-toc") {
		cfg.MarkdownTOC = f.MarkdownTOC
	}
	if flags.Changed("md-stats") {
		cfg.MarkdownStats = f.MarkdownStats
	}
	if flags.Changed("md-syntax") {
		cfg.MarkdownSyntax = f.MarkdownSyntax
	}
}

func (f *ScanFlags) applyFilters(flags *pflag.FlagSet, cfg *config.Config) {
	ensure := func() *filter.RuleSet {
		if cfg.Filters == nil {
			cfg.Filters = &filter.RuleSet{}
		}
		return cfg.Filters
	}

	if flags.Changed("exclude-dirs") {
		ensure().ExcludeDirs = f.ExcludeDirs
	}
	if flags.Changed("include-dirs") {
		ensure().IncludeDirs = f.IncludeDirs
	}
	if flags.Changed("exclude-files") {
		ensure().ExcludeFiles = f.ExcludeFiles
	}
	if flags.Changed("include-files") {
		ensure().IncludeFiles = f.IncludeFiles
	}
	if flags.Changed("extensions") {
		ensure().OnlyExtensions = f.OnlyExtensions
	}
	if flags.Changed("exclude-extensions") {
		ensure().ExcludeExtensions = f.ExcludeExtensions
	}
	if flags.Changed("exclude") {
		ensure().ExcludeGlobs = f.ExcludeGlobs
	}
	if flags.Changed("no-default-rules") {
		ensure().NoDefaultRules = f.NoDefaultRules
	}
}

// 🏃 RunScan executes the full pipeline: compile filters, resolve providers,
// walk the roots, then dispatch every requested renderer. A scan error is
// fatal; renderer and provider problems surface as warnings at the end.
func RunScan(ctx context.Context, o *opts.RootOpts) error {
	ui := log.New(os.Stdout, zerolog.GlobalLevel())
	ctx = log.NewContext(ctx, ui)
	ui.Header(o.Config.String())

	reg, written, renderWarnings, err := runScan(ctx, o)
	if err != nil {
		return err
	}

	for _, record := range reg.Records() {
		ui.LogFileEvent(ctx, log.FileEvent{
			Path:      record.Path,
			Extension: record.Extension,
			Size:      record.Size,
			IsBinary:  record.Binary,
		})
	}

	reportScan(reg, written, renderWarnings)

	if len(written) == 0 {
		return errors.New("no artifacts were produced")
	}
	return nil
}

// 🧱 runScan is the pipeline without console reporting, so every warning it
// produces lands in the run's collection instead of being printed ad hoc.
func runScan(ctx context.Context, o *opts.RootOpts) (*registry.Registry, []string, []registry.Warning, error) {
	cfg := o.Config

	engine, err := filter.Compile(cfg.RuleSet())
	if err != nil {
		return nil, nil, nil, errors.Errorf("compiling filters: %w", err)
	}

	pipeline, unknown := metadata.NewPipeline(o.Providers, metadata.Options{
		ForceBinaryContent:  cfg.ForceBinaryContent,
		ReplaceInvalidChars: cfg.ReplaceInvalidChars,
		Add:                 cfg.MetadataAdd,
		Disable:             cfg.DisableProviders,
		Remove:              cfg.MetadataRemove,
	})

	walker := scanner.New(engine, pipeline, scanner.Options{
		Roots:          cfg.Roots,
		MaxDepth:       cfg.Depth,
		AbsolutePaths:  cfg.AbsolutePaths,
		FollowSymlinks: cfg.FollowSymlinks,
		IgnoreErrors:   cfg.IgnoreErrors,
	})

	reg, err := walker.Scan(ctx)
	if err != nil {
		return nil, nil, nil, errors.Errorf("scanning: %w", err)
	}

	// Unknown provider names skip that one request and warn, same contract
	// as unknown format names.
	for _, name := range unknown {
		reg.Warn(registry.Warning{
			Stage: "provider",
			Err:   errors.Errorf("%w: %q", metadata.ErrUnknownProvider, name),
		})
	}

	formats := render.NewFormats()
	for _, format := range render.BuiltinFormats(render.Options{
		JSONNoContent:  cfg.JSONNoContent,
		JSONCompact:    cfg.JSONCompact,
		JSONMetadata:   cfg.JSONMetadata,
		MarkdownTOC:    cfg.MarkdownTOC,
		MarkdownStats:  cfg.MarkdownStats,
		MarkdownSyntax: cfg.MarkdownSyntax,
	}) {
		if err := formats.Register(format); err != nil {
			return nil, nil, nil, errors.Errorf("registering format: %w", err)
		}
	}

	dispatcher := render.NewDispatcher(formats)
	written, renderWarnings := dispatcher.Dispatch(ctx, reg, cfg.Formats, cfg.Output)
	return reg, written, renderWarnings, nil
}
