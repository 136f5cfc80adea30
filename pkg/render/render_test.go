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

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
)

// brokenFormat always fails to render, for isolation tests
type brokenFormat struct{}

func (f *brokenFormat) Name() string      { return "broken" }
func (f *brokenFormat) Extension() string { return ".broken" }
func (f *brokenFormat) Render(ctx context.Context, reg *registry.Registry, w io.Writer) error {
	return errors.New("renderer exploded")
}

// fixtureRegistry builds a small two-file registry with a tree
func fixtureRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	modified := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []*registry.FileRecord{
		{
			Path:      "./src/main.go",
			Name:      "main.go",
			Size:      13,
			Modified:  modified,
			Extension: "go",
			Content:   "package main\n",
			LineCount: 1,
			Metadata:  map[string]any{"path": "./src/main.go", "hash": "deadbeef"},
		},
		{
			Path:      "./logo.png",
			Name:      "logo.png",
			Size:      256,
			Modified:  modified,
			Extension: "png",
			Binary:    true,
			Content:   registry.BinarySkippedContent,
			Metadata:  map[string]any{"path": "./logo.png"},
		},
	}
	for _, record := range records {
		require.NoError(t, reg.Add(record), "adding fixture record")
	}

	reg.AddRoot(&registry.TreeNode{
		Kind: registry.NodeDirectory,
		Name: "project",
		Path: ".",
		Children: []*registry.TreeNode{
			{
				Kind: registry.NodeDirectory,
				Name: "src",
				Path: "./src",
				Children: []*registry.TreeNode{
					{Kind: registry.NodeFile, Name: "main.go", Path: "./src/main.go"},
				},
			},
			{Kind: registry.NodeFile, Name: "logo.png", Path: "./logo.png"},
		},
	})
	return reg
}

func newTable(t *testing.T, opts Options, extra ...Format) *Formats {
	t.Helper()
	formats := NewFormats()
	for _, format := range BuiltinFormats(opts) {
		require.NoError(t, formats.Register(format), "registering builtin format")
	}
	for _, format := range extra {
		require.NoError(t, formats.Register(format), "registering extra format")
	}
	return formats
}

func TestFormatsTable(t *testing.T) {
	formats := newTable(t, Options{})

	_, ok := formats.Get("text")
	assert.True(t, ok, "text format should be registered")
	_, ok = formats.Get("nope")
	assert.False(t, ok, "unknown name should miss")

	err := formats.Register(&textFormat{})
	require.Error(t, err, "duplicate name should be rejected")
	assert.ErrorIs(t, err, ErrDuplicateFormat, "error should wrap ErrDuplicateFormat")

	infos := formats.Describe()
	require.Len(t, infos, 3, "all builtins should be described")
	assert.Equal(t, "text", infos[0].Name, "registration order should be preserved")
	assert.Equal(t, ".txt", infos[0].Extension, "extension should be reported")
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	reg := fixtureRegistry(t)

	t.Run("writes_requested_artifacts", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out")
		dispatcher := NewDispatcher(newTable(t, Options{}))

		written, warnings := dispatcher.Dispatch(ctx, reg, []string{"text", "json"}, dest)
		assert.Empty(t, warnings, "no warnings expected")
		assert.ElementsMatch(t, []string{dest + ".txt", dest + ".json"}, written, "both artifacts should be written")

		for _, path := range written {
			info, err := os.Stat(path)
			require.NoError(t, err, "artifact should exist")
			assert.Greater(t, info.Size(), int64(0), "artifact should not be empty")
		}
	})

	t.Run("unknown_format_warns_and_continues", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out")
		dispatcher := NewDispatcher(newTable(t, Options{}))

		written, warnings := dispatcher.Dispatch(ctx, reg, []string{"text", "yaml"}, dest)
		assert.Equal(t, []string{dest + ".txt"}, written, "valid formats still render")
		require.Len(t, warnings, 1, "unknown name should warn")
		assert.ErrorIs(t, warnings[0].Err, ErrUnknownFormat, "warning should wrap ErrUnknownFormat")
	})

	t.Run("failing_renderer_is_isolated", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out")
		dispatcher := NewDispatcher(newTable(t, Options{}, &brokenFormat{}))

		written, warnings := dispatcher.Dispatch(ctx, reg, []string{"broken", "text"}, dest)
		assert.Equal(t, []string{dest + ".txt"}, written, "healthy formats still render")
		require.Len(t, warnings, 1, "failure should warn")
		assert.Equal(t, "render", warnings[0].Stage, "warning stage should be render")

		_, err := os.Stat(dest + ".broken")
		assert.True(t, os.IsNotExist(err), "no torn artifact should be left behind")
	})

	t.Run("name_matching_is_case_insensitive", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out")
		dispatcher := NewDispatcher(newTable(t, Options{}))

		written, warnings := dispatcher.Dispatch(ctx, reg, []string{" TEXT "}, dest)
		assert.Empty(t, warnings, "no warnings expected")
		assert.Equal(t, []string{dest + ".txt"}, written, "names are trimmed and lower-cased")
	})
}

func TestTextFormat(t *testing.T) {
	ctx := context.Background()
	reg := fixtureRegistry(t)

	var buf bytes.Buffer
	require.NoError(t, (&textFormat{}).Render(ctx, reg, &buf), "render should succeed")
	out := buf.String()

	assert.Contains(t, out, "project/\n", "root directory line")
	assert.Contains(t, out, "    src/\n", "nested directory is indented")
	assert.Contains(t, out, "        main.go\n", "file leaf is indented below its directory")
	assert.Contains(t, out, "### ./src/main.go BEGIN ###\npackage main\n### ./src/main.go END ###", "content between markers")
	assert.Contains(t, out, "logo.png", "binary files appear in the structure")
	assert.NotContains(t, out, "### ./logo.png BEGIN ###", "binary files are never flattened")
}

func TestJSONFormat(t *testing.T) {
	ctx := context.Background()
	reg := fixtureRegistry(t)

	type decoded struct {
		Structure []map[string]any `json:"structure"`
		Files     []struct {
			Path      string         `json:"path"`
			Size      int64          `json:"size"`
			Binary    bool           `json:"is_binary"`
			Metadata  map[string]any `json:"metadata"`
			Content   *string        `json:"content"`
			LineCount *int           `json:"line_count"`
		} `json:"files"`
		Statistics struct {
			Summary struct {
				TotalFiles int   `json:"total_files"`
				TotalSize  int64 `json:"total_size"`
			} `json:"summary"`
			Extensions map[string]int `json:"extensions"`
		} `json:"statistics"`
		Metadata *map[string]any `json:"metadata"`
	}

	t.Run("full_output", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&jsonFormat{opts: Options{}}).Render(ctx, reg, &buf), "render should succeed")

		var doc decoded
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), "output should be valid JSON")

		require.Len(t, doc.Files, 2, "both files present")
		assert.Equal(t, "./logo.png", doc.Files[0].Path, "files are sorted by path")
		assert.Equal(t, "./src/main.go", doc.Files[1].Path, "files are sorted by path")

		assert.True(t, doc.Files[0].Binary, "binary flag survives the round trip")
		require.NotNil(t, doc.Files[1].Content, "content included by default")
		assert.Equal(t, "package main\n", *doc.Files[1].Content, "content survives the round trip")
		assert.Equal(t, "deadbeef", doc.Files[1].Metadata["hash"], "metadata survives the round trip")

		assert.Equal(t, 2, doc.Statistics.Summary.TotalFiles, "statistics summary")
		assert.Equal(t, 1, doc.Statistics.Extensions["go"], "extension histogram")
		assert.NotEmpty(t, doc.Structure, "tree structure included")
		assert.Nil(t, doc.Metadata, "generator metadata is opt-in")
	})

	t.Run("no_content", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&jsonFormat{opts: Options{JSONNoContent: true}}).Render(ctx, reg, &buf), "render should succeed")

		var doc decoded
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), "output should be valid JSON")
		for _, file := range doc.Files {
			assert.Nil(t, file.Content, "content should be omitted")
			assert.Nil(t, file.LineCount, "line count should be omitted")
		}
	})

	t.Run("generator_metadata", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&jsonFormat{opts: Options{JSONMetadata: true}}).Render(ctx, reg, &buf), "render should succeed")

		var doc decoded
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), "output should be valid JSON")
		require.NotNil(t, doc.Metadata, "generator metadata should be present")
		assert.Contains(t, *doc.Metadata, "generated_at", "timestamp field present")
		assert.Contains(t, *doc.Metadata, "analyzed_paths", "roots field present")
	})

	t.Run("compact_mode", func(t *testing.T) {
		var indented, compact bytes.Buffer
		require.NoError(t, (&jsonFormat{opts: Options{}}).Render(ctx, reg, &indented), "render should succeed")
		require.NoError(t, (&jsonFormat{opts: Options{JSONCompact: true}}).Render(ctx, reg, &compact), "render should succeed")
		assert.Less(t, compact.Len(), indented.Len(), "compact output should be smaller")
	})
}

func TestMarkdownFormat(t *testing.T) {
	ctx := context.Background()
	reg := fixtureRegistry(t)

	t.Run("base_document", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&markdownFormat{opts: Options{}}).Render(ctx, reg, &buf), "render should succeed")
		out := buf.String()

		assert.Contains(t, out, "# Codebase Documentation", "document header")
		assert.Contains(t, out, "## Files", "files section")
		assert.NotContains(t, out, "## Table of Contents", "TOC is opt-in")
		assert.NotContains(t, out, "## Statistics", "statistics are opt-in")
		assert.Contains(t, out, "*Binary file contents omitted.*", "binary files are summarized")
	})

	t.Run("all_sections", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{MarkdownTOC: true, MarkdownStats: true, MarkdownSyntax: true}
		require.NoError(t, (&markdownFormat{opts: opts}).Render(ctx, reg, &buf), "render should succeed")
		out := buf.String()

		assert.Contains(t, out, "## Table of Contents", "TOC included")
		assert.Contains(t, out, "## Statistics", "statistics included")
		assert.Contains(t, out, "1. [Statistics](#statistics)\n", "statistics entry leads the TOC")
		assert.Contains(t, out, "2. [Files](#files)\n", "files entry follows statistics")
		assert.Contains(t, out, "3. [./logo.png]", "file entries continue the numbering")
		assert.Contains(t, out, "```go\npackage main", "language hint on the fence")
	})

	t.Run("toc_numbering_without_statistics", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&markdownFormat{opts: Options{MarkdownTOC: true}}).Render(ctx, reg, &buf), "render should succeed")
		out := buf.String()

		assert.Contains(t, out, "1. [Files](#files)\n", "files entry should start the numbering")
		assert.Contains(t, out, "2. [./logo.png]", "file entries follow without a gap")
		assert.NotContains(t, out, "[Statistics](#statistics)", "no statistics entry when the section is off")
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512.0 B", formatSize(512), "bytes")
	assert.Equal(t, "1.0 KB", formatSize(1024), "kilobytes")
	assert.Equal(t, "1.5 MB", formatSize(3*1024*1024/2), "megabytes")
}
