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

// Package registry holds the in-memory result of one scan: the ordered file
// records, the directory trees, collected warnings and aggregate statistics.
// It is append-only while scanning and read-only while rendering.
package registry

import (
	"sort"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ErrDuplicatePath indicates a record was added twice for the same path
var ErrDuplicatePath = errors.New("duplicate record path")

// 📄 BinarySkippedContent is the content sentinel for files whose bytes were
// not decoded as text
const BinarySkippedContent = "**binary data found: skipped**"

// 🌲 NodeKind distinguishes directory nodes from file leaves
type NodeKind string

const (
	NodeDirectory NodeKind = "directory"
	NodeFile      NodeKind = "file"
)

// 🌳 TreeNode mirrors the filesystem shape under a scan root. Children are
// ordered: directories first, then files, each lexicographic by name.
type TreeNode struct {
	Kind     NodeKind    `json:"type"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
}

// 📄 FileRecord is one scanned file. Immutable once the metadata pipeline
// has finished with it.
type FileRecord struct {
	Path      string    // display path, unique within one run
	Name      string    // base name
	Size      int64     // bytes, from stat
	Modified  time.Time // mtime, from stat
	Extension string    // lower-cased, no leading dot
	Binary    bool      // content could not be decoded as text
	Content   string    // decoded text, a binary sentinel, or base64 payload
	LineCount int       // lines of text (0 for binary)

	// Metadata is the open field mapping: built-ins first, then each enabled
	// provider in registration order. Last write wins.
	Metadata map[string]any

	removed map[string]bool
}

// 🙈 RemoveField hides a metadata field from rendering. The value stays in
// Metadata so later providers can still read it; removal is a projection.
func (r *FileRecord) RemoveField(name string) {
	if r.removed == nil {
		r.removed = make(map[string]bool)
	}
	r.removed[name] = true
}

// 👁️ VisibleMetadata returns the metadata fields that survived removal, with
// keys sorted for deterministic output.
func (r *FileRecord) VisibleMetadata() ([]string, map[string]any) {
	keys := make([]string, 0, len(r.Metadata))
	visible := make(map[string]any, len(r.Metadata))
	for key, value := range r.Metadata {
		if r.removed[key] {
			continue
		}
		keys = append(keys, key)
		visible[key] = value
	}
	sort.Strings(keys)
	return keys, visible
}

// ⚠️ Warning is a non-fatal problem recorded during a run
type Warning struct {
	Path  string // the path the warning refers to (may be empty)
	Stage string // walk / metadata / provider / render
	Err   error
}

// 📐 FileRef is a lightweight (path, value) pair used in statistics
type FileRef struct {
	Path     string
	Size     int64
	Modified time.Time
}

// 📊 Stats aggregates run-wide numbers the way the renderers report them
type Stats struct {
	TotalFiles       int
	TotalSize        int64
	Extensions       map[string]int
	LargestFiles     []FileRef // top ten by size, descending
	RecentlyModified []FileRef // top ten by mtime, descending
}

const statsTopN = 10

// 🗃️ Registry is the sole data surface renderers consume
type Registry struct {
	mu       sync.Mutex
	order    []string
	records  map[string]*FileRecord
	roots    []*TreeNode
	warnings []Warning
	stats    Stats
}

// 🏭 New creates an empty registry
func New() *Registry {
	return &Registry{
		records: make(map[string]*FileRecord),
		stats: Stats{
			Extensions: make(map[string]int),
		},
	}
}

// ➕ Add inserts a record, preserving insertion order. Adding the same path
// twice is an error; the walker's visited set normally prevents this even
// under symlink cycles.
func (g *Registry) Add(record *FileRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[record.Path]; ok {
		return errors.Errorf("%w: %s", ErrDuplicatePath, record.Path)
	}
	g.records[record.Path] = record
	g.order = append(g.order, record.Path)
	g.updateStats(record)
	return nil
}

// 🌳 AddRoot attaches a root tree node
func (g *Registry) AddRoot(node *TreeNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roots = append(g.roots, node)
}

// ⚠️ Warn records a non-fatal warning
func (g *Registry) Warn(w Warning) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.warnings = append(g.warnings, w)
}

// 📄 Records returns all records in insertion order
func (g *Registry) Records() []*FileRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	records := make([]*FileRecord, 0, len(g.order))
	for _, path := range g.order {
		records = append(records, g.records[path])
	}
	return records
}

// 🔍 Record looks up a single record by path
func (g *Registry) Record(path string) (*FileRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.records[path]
	return record, ok
}

// 🔢 Len returns the number of records
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

// 🌳 Roots returns the root tree nodes in the order they were added
func (g *Registry) Roots() []*TreeNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*TreeNode{}, g.roots...)
}

// ⚠️ Warnings returns all collected warnings
func (g *Registry) Warnings() []Warning {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Warning{}, g.warnings...)
}

// 📊 Stats returns a snapshot of the aggregate statistics
func (g *Registry) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapshot := Stats{
		TotalFiles:       g.stats.TotalFiles,
		TotalSize:        g.stats.TotalSize,
		Extensions:       make(map[string]int, len(g.stats.Extensions)),
		LargestFiles:     append([]FileRef{}, g.stats.LargestFiles...),
		RecentlyModified: append([]FileRef{}, g.stats.RecentlyModified...),
	}
	for ext, count := range g.stats.Extensions {
		snapshot.Extensions[ext] = count
	}
	return snapshot
}

// 🧮 updateStats folds one record into the aggregates. Caller holds the lock.
func (g *Registry) updateStats(record *FileRecord) {
	g.stats.TotalFiles++
	g.stats.TotalSize += record.Size
	g.stats.Extensions[record.Extension]++

	ref := FileRef{Path: record.Path, Size: record.Size, Modified: record.Modified}

	g.stats.LargestFiles = append(g.stats.LargestFiles, ref)
	sort.SliceStable(g.stats.LargestFiles, func(i, j int) bool {
		return g.stats.LargestFiles[i].Size > g.stats.LargestFiles[j].Size
	})
	if len(g.stats.LargestFiles) > statsTopN {
		g.stats.LargestFiles = g.stats.LargestFiles[:statsTopN]
	}

	g.stats.RecentlyModified = append(g.stats.RecentlyModified, ref)
	sort.SliceStable(g.stats.RecentlyModified, func(i, j int) bool {
		return g.stats.RecentlyModified[i].Modified.After(g.stats.RecentlyModified[j].Modified)
	})
	if len(g.stats.RecentlyModified) > statsTopN {
		g.stats.RecentlyModified = g.stats.RecentlyModified[:statsTopN]
	}
}
