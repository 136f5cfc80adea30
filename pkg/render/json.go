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
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
)

// 🧾 jsonFormat renders the full registry as JSON: directory structure,
// file entries (content optional) and statistics.
type jsonFormat struct {
	opts Options
}

func (f *jsonFormat) Name() string      { return "json" }
func (f *jsonFormat) Extension() string { return ".json" }

// 🧾 jsonDocument is the top-level output shape
type jsonDocument struct {
	Structure  []*registry.TreeNode `json:"structure,omitempty"`
	Files      []jsonFile           `json:"files"`
	Statistics jsonStatistics       `json:"statistics"`
	Metadata   *jsonGeneratorInfo   `json:"metadata,omitempty"`
}

// 📄 jsonFile is one file record entry
type jsonFile struct {
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Size      int64          `json:"size"`
	SizeHuman string         `json:"size_human"`
	Modified  time.Time      `json:"modified"`
	Extension string         `json:"extension"`
	Binary    bool           `json:"is_binary"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Content   *string        `json:"content,omitempty"`
	LineCount *int           `json:"line_count,omitempty"`
}

// 📊 jsonStatistics mirrors the registry aggregates
type jsonStatistics struct {
	Summary       jsonSummary     `json:"summary"`
	Extensions    map[string]int  `json:"extensions"`
	LargestFiles  []jsonFileRef   `json:"largest_files"`
	RecentChanges []jsonRecentRef `json:"recent_changes"`
}

type jsonSummary struct {
	TotalFiles     int    `json:"total_files"`
	TotalSize      int64  `json:"total_size"`
	TotalSizeHuman string `json:"total_size_human"`
}

type jsonFileRef struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
}

type jsonRecentRef struct {
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// ℹ️ jsonGeneratorInfo is optional provenance for the artifact
type jsonGeneratorInfo struct {
	GeneratedAt   time.Time `json:"generated_at"`
	AnalyzedPaths []string  `json:"analyzed_paths"`
}

func (f *jsonFormat) Render(ctx context.Context, reg *registry.Registry, w io.Writer) error {
	doc := jsonDocument{
		Structure:  reg.Roots(),
		Files:      f.buildFiles(reg),
		Statistics: f.buildStatistics(reg),
	}

	if f.opts.JSONMetadata {
		roots := reg.Roots()
		paths := make([]string, 0, len(roots))
		for _, root := range roots {
			paths = append(paths, root.Path)
		}
		doc.Metadata = &jsonGeneratorInfo{
			GeneratedAt:   time.Now(),
			AnalyzedPaths: paths,
		}
	}

	encoder := json.NewEncoder(w)
	if !f.opts.JSONCompact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(doc); err != nil {
		return errors.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func (f *jsonFormat) buildFiles(reg *registry.Registry) []jsonFile {
	records := reg.Records()
	files := make([]jsonFile, 0, len(records))
	for _, record := range records {
		_, visible := record.VisibleMetadata()
		entry := jsonFile{
			Path:      record.Path,
			Name:      record.Name,
			Size:      record.Size,
			SizeHuman: formatSize(record.Size),
			Modified:  record.Modified,
			Extension: record.Extension,
			Binary:    record.Binary,
			Metadata:  visible,
		}
		if !f.opts.JSONNoContent {
			content := record.Content
			entry.Content = &content
			if !record.Binary {
				lineCount := record.LineCount
				entry.LineCount = &lineCount
			}
		}
		files = append(files, entry)
	}

	// Sorted by path for consistency across runs.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

func (f *jsonFormat) buildStatistics(reg *registry.Registry) jsonStatistics {
	stats := reg.Stats()

	largest := make([]jsonFileRef, 0, len(stats.LargestFiles))
	for _, ref := range stats.LargestFiles {
		largest = append(largest, jsonFileRef{
			Path:      ref.Path,
			Size:      ref.Size,
			SizeHuman: formatSize(ref.Size),
		})
	}

	recent := make([]jsonRecentRef, 0, len(stats.RecentlyModified))
	for _, ref := range stats.RecentlyModified {
		recent = append(recent, jsonRecentRef{Path: ref.Path, Modified: ref.Modified})
	}

	return jsonStatistics{
		Summary: jsonSummary{
			TotalFiles:     stats.TotalFiles,
			TotalSize:      stats.TotalSize,
			TotalSizeHuman: formatSize(stats.TotalSize),
		},
		Extensions:    stats.Extensions,
		LargestFiles:  largest,
		RecentChanges: recent,
	}
}
