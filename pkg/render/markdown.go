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
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/walteh/flatrc/pkg/registry"
)

// 📝 markdownFormat renders the codebase as a single Markdown document with
// optional table of contents, statistics and syntax-highlighted fences.
type markdownFormat struct {
	opts Options
}

func (f *markdownFormat) Name() string      { return "markdown" }
func (f *markdownFormat) Extension() string { return ".md" }

func (f *markdownFormat) Render(ctx context.Context, reg *registry.Registry, w io.Writer) error {
	f.writeHeader(reg, w)

	if f.opts.MarkdownTOC {
		f.writeTOC(reg, w)
	}
	if f.opts.MarkdownStats {
		f.writeStatistics(reg, w)
	}
	f.writeFiles(reg, w)
	return nil
}

func (f *markdownFormat) writeHeader(reg *registry.Registry, w io.Writer) {
	fmt.Fprintf(w, "# Codebase Documentation\n\n")
	fmt.Fprintf(w, "Generated on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "## Analyzed Paths\n\n")
	for _, root := range reg.Roots() {
		fmt.Fprintf(w, "- `%s`\n", root.Path)
	}
	fmt.Fprintln(w)
}

func (f *markdownFormat) writeTOC(reg *registry.Registry, w io.Writer) {
	fmt.Fprintf(w, "## Table of Contents\n\n")
	// Numbering follows the sections actually rendered.
	idx := 1
	if f.opts.MarkdownStats {
		fmt.Fprintf(w, "%d. [Statistics](#statistics)\n", idx)
		idx++
	}
	fmt.Fprintf(w, "%d. [Files](#files)\n", idx)
	idx++
	for _, record := range reg.Records() {
		depth := strings.Count(record.Path, "/") - 1
		if depth < 0 {
			depth = 0
		}
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%d. [%s](#%s)\n", indent, idx, record.Path, makeAnchor(record.Path))
		idx++
	}
	fmt.Fprintln(w)
}

func (f *markdownFormat) writeStatistics(reg *registry.Registry, w io.Writer) {
	stats := reg.Stats()
	fmt.Fprintf(w, "## Statistics\n\n")

	fmt.Fprintf(w, "### Overview\n\n")
	fmt.Fprintf(w, "- **Total Files**: %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "- **Total Size**: %s\n\n", formatSize(stats.TotalSize))

	fmt.Fprintf(w, "### File Types\n\n")
	fmt.Fprintf(w, "| Extension | Count |\n")
	fmt.Fprintf(w, "|-----------|-------|\n")
	exts := make([]string, 0, len(stats.Extensions))
	for ext := range stats.Extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		label := ext
		if label == "" {
			label = "(no extension)"
		}
		fmt.Fprintf(w, "| %s | %d |\n", label, stats.Extensions[ext])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "### Largest Files\n\n")
	fmt.Fprintf(w, "| File | Size |\n")
	fmt.Fprintf(w, "|------|------|\n")
	for _, ref := range stats.LargestFiles {
		fmt.Fprintf(w, "| `%s` | %s |\n", ref.Path, formatSize(ref.Size))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "### Recent Changes\n\n")
	fmt.Fprintf(w, "| File | Modified |\n")
	fmt.Fprintf(w, "|------|----------|\n")
	for _, ref := range stats.RecentlyModified {
		fmt.Fprintf(w, "| `%s` | %s |\n", ref.Path, ref.Modified.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w)
}

func (f *markdownFormat) writeFiles(reg *registry.Registry, w io.Writer) {
	fmt.Fprintf(w, "## Files\n\n")
	for _, record := range reg.Records() {
		fmt.Fprintf(w, "### <a id='%s'></a>%s\n\n", makeAnchor(record.Path), record.Path)
		fmt.Fprintf(w, "**File Information:**\n\n")
		fmt.Fprintf(w, "- **Size**: %s\n", formatSize(record.Size))
		fmt.Fprintf(w, "- **Modified**: %s\n", record.Modified.Format("2006-01-02 15:04:05"))
		typeLabel := record.Extension
		if typeLabel == "" {
			typeLabel = "(no extension)"
		}
		fmt.Fprintf(w, "- **Type**: %s\n\n", typeLabel)

		if record.Binary {
			fmt.Fprintf(w, "*Binary file contents omitted.*\n\n")
		} else {
			hint := ""
			if f.opts.MarkdownSyntax {
				hint = languageHint(record.Extension)
			}
			fmt.Fprintf(w, "```%s\n", hint)
			io.WriteString(w, record.Content)
			fmt.Fprintf(w, "\n```\n\n")
		}

		fmt.Fprintf(w, "---\n\n")
	}
}

// 🔗 makeAnchor turns a path into an HTML-safe anchor id
func makeAnchor(path string) string {
	anchor := strings.ReplaceAll(path, "/", "-")
	anchor = strings.ReplaceAll(anchor, ".", "-")
	return strings.ToLower(anchor)
}

// 🎨 languageHint maps an extension to a Markdown code fence language
func languageHint(ext string) string {
	hints := map[string]string{
		"py":   "python",
		"js":   "javascript",
		"ts":   "typescript",
		"cpp":  "cpp",
		"c":    "c",
		"cs":   "csharp",
		"go":   "go",
		"java": "java",
		"rb":   "ruby",
		"php":  "php",
		"html": "html",
		"css":  "css",
		"scss": "scss",
		"sql":  "sql",
		"md":   "markdown",
		"json": "json",
		"yaml": "yaml",
		"yml":  "yaml",
		"xml":  "xml",
		"sh":   "bash",
		"bash": "bash",
	}
	return hints[ext]
}
