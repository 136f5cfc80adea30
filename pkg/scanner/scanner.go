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

// Package scanner walks the scan roots depth-first, consulting the filter
// engine at every boundary and handing accepted files to the metadata
// pipeline. Roots are walked concurrently; each root builds its own subtree
// and record batch before a single merge point fills the registry in root
// order, so output stays deterministic.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/flatrc/pkg/filter"
	"github.com/walteh/flatrc/pkg/metadata"
	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🚫 ErrAccess indicates a stat/open/read failure during the walk
var ErrAccess = errors.New("filesystem access")

// 🔧 Options configures one scan
type Options struct {
	// Roots are the starting paths. A file root bypasses filtering.
	Roots []string
	// MaxDepth limits directory recursion below each root (0 = unlimited)
	MaxDepth int
	// AbsolutePaths switches display paths from root-relative to absolute
	AbsolutePaths bool
	// FollowSymlinks enables symlink traversal (with cycle refusal)
	FollowSymlinks bool
	// IgnoreErrors downgrades per-path filesystem errors to warnings
	IgnoreErrors bool
}

// 🚶 Walker traverses the configured roots
type Walker struct {
	engine   *filter.Engine
	pipeline *metadata.Pipeline
	opts     Options
}

// 🏭 New creates a walker. The filter engine and metadata pipeline must
// already be configured; the walker only consumes them.
func New(engine *filter.Engine, pipeline *metadata.Pipeline, opts Options) *Walker {
	return &Walker{
		engine:   engine,
		pipeline: pipeline,
		opts:     opts,
	}
}

// 🧺 rootResult is one root's contribution, merged in root order
type rootResult struct {
	tree     *registry.TreeNode
	records  []*registry.FileRecord
	warnings []registry.Warning
}

// 🏃 Scan walks every root and returns the filled registry. With the
// ignore-errors switch off (the default) the first filesystem error aborts
// the whole run.
func (w *Walker) Scan(ctx context.Context) (*registry.Registry, error) {
	reg := registry.New()

	prefixes, absolute := displayPrefixes(w.opts.Roots)
	results := make([]*rootResult, len(w.opts.Roots))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, root := range w.opts.Roots {
		i, root := i, root
		group.Go(func() error {
			result, err := w.walkRoot(groupCtx, root, prefixes[i], absolute[i])
			if err != nil {
				return errors.Errorf("walking root %s: %w", root, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Single synchronization point: insert per-root batches in root order so
	// two runs over an unchanged tree produce identical registries.
	for _, result := range results {
		if result.tree != nil {
			reg.AddRoot(result.tree)
		}
		for _, record := range result.records {
			if err := reg.Add(record); err != nil {
				return nil, errors.Errorf("registering record: %w", err)
			}
		}
		for _, warning := range result.warnings {
			reg.Warn(warning)
		}
	}

	return reg, nil
}

// 🔤 displayPrefixes picks a per-root display namespace so records from
// different roots never collide on relative paths. A single root keeps plain
// relative paths; multiple roots are namespaced by the root's base name;
// roots sharing a base name fall back to absolute display paths.
func displayPrefixes(roots []string) ([]string, []bool) {
	prefixes := make([]string, len(roots))
	absolute := make([]bool, len(roots))
	if len(roots) <= 1 {
		return prefixes, absolute
	}

	counts := make(map[string]int, len(roots))
	bases := make([]string, len(roots))
	for i, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = root
		}
		bases[i] = filepath.Base(abs)
		counts[bases[i]]++
	}
	for i, base := range bases {
		if counts[base] > 1 {
			absolute[i] = true
			continue
		}
		prefixes[i] = base
	}
	return prefixes, absolute
}

// 🌲 rootWalk carries per-root walk state
type rootWalk struct {
	walker   *Walker
	base     string          // absolute root path, display paths are relative to it
	prefix   string          // display namespace under multiple roots
	absolute bool            // force absolute display paths for this root
	visited  map[string]bool // resolved directory identities, guards symlink cycles
	result   *rootResult
}

// 🚶 walkRoot walks a single root to completion
func (w *Walker) walkRoot(ctx context.Context, root string, prefix string, absolute bool) (*rootResult, error) {
	logger := zerolog.Ctx(ctx)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("%w: resolving root: %w", ErrAccess, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Errorf("%w: stating root: %w", ErrAccess, err)
	}

	rw := &rootWalk{
		walker:   w,
		base:     absRoot,
		prefix:   prefix,
		absolute: absolute,
		visited:  make(map[string]bool),
		result:   &rootResult{},
	}

	// A file given directly as a root is a forced inclusion: filters do not
	// apply to it.
	if !info.IsDir() {
		rw.base = filepath.Dir(absRoot)
		// The file's own name already namespaces it relative to the parent.
		rw.prefix = ""
		record, err := rw.buildRecord(ctx, absRoot)
		if err != nil {
			return nil, err
		}
		if record != nil {
			rw.result.tree = &registry.TreeNode{
				Kind: registry.NodeFile,
				Name: filepath.Base(absRoot),
				Path: record.Path,
			}
		}
		return rw.result, nil
	}

	logger.Debug().Str("root", absRoot).Msg("walking root")

	node, err := rw.visitDir(ctx, absRoot, 0)
	if err != nil {
		return nil, err
	}
	// An explicitly requested root is kept even when everything under it was
	// filtered away.
	rw.result.tree = node
	return rw.result, nil
}

// 📂 visitDir emits a directory node and recurses into accepted children.
// Returns nil (prune, no error) when the directory is unreadable under the
// ignore-errors switch.
func (rw *rootWalk) visitDir(ctx context.Context, absPath string, depth int) (*registry.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("scan cancelled: %w", err)
	}
	logger := zerolog.Ctx(ctx)
	opts := rw.walker.opts

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolved = absPath
	}
	if rw.visited[resolved] {
		logger.Debug().Str("path", absPath).Msg("already visited, refusing re-entry")
		rw.result.warnings = append(rw.result.warnings, registry.Warning{
			Path:  rw.displayPath(absPath),
			Stage: "walk",
			Err:   errors.New("symlink cycle detected, not re-entering"),
		})
		return nil, nil
	}
	rw.visited[resolved] = true

	node := &registry.TreeNode{
		Kind: registry.NodeDirectory,
		Name: filepath.Base(absPath),
		Path: rw.displayPath(absPath),
	}

	// Depth limit reached: the directory node exists but is not expanded.
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return node, nil
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		if !opts.IgnoreErrors {
			return nil, errors.Errorf("%w: opening directory %s: %w", ErrAccess, absPath, err)
		}
		logger.Warn().Str("path", absPath).Err(err).Msg("skipping unreadable directory")
		rw.result.warnings = append(rw.result.warnings, registry.Warning{
			Path:  rw.displayPath(absPath),
			Stage: "walk",
			Err:   errors.Errorf("%w: %w", ErrAccess, err),
		})
		return nil, nil
	}

	dirs, files := rw.partition(ctx, entries, absPath)

	// Directories first, then files, each lexicographic: sibling order is
	// stable regardless of how the filesystem enumerates.
	for _, entry := range dirs {
		childPath := filepath.Join(absPath, entry.Name())
		if !rw.walker.engine.Accept(entry.Name(), rw.relPath(childPath), filter.KindDirectory, "") {
			logger.Debug().Str("path", childPath).Msg("directory pruned by filter")
			continue
		}
		child, err := rw.visitDir(ctx, childPath, depth+1)
		if err != nil {
			return nil, err
		}
		// Empty branches are pruned, not retained as dead ends.
		if child != nil && len(child.Children) > 0 {
			node.Children = append(node.Children, child)
		}
	}

	for _, entry := range files {
		childPath := filepath.Join(absPath, entry.Name())
		ext := filter.NormalizeExtension(filepath.Ext(entry.Name()))
		if !rw.walker.engine.Accept(entry.Name(), rw.relPath(childPath), filter.KindFile, ext) {
			logger.Debug().Str("path", childPath).Msg("file skipped by filter")
			continue
		}
		record, err := rw.buildRecord(ctx, childPath)
		if err != nil {
			return nil, err
		}
		if record != nil {
			node.Children = append(node.Children, &registry.TreeNode{
				Kind: registry.NodeFile,
				Name: entry.Name(),
				Path: record.Path,
			})
		}
	}

	return node, nil
}

// 🧮 partition splits entries into directories and files, dropping symlinks
// unless following is enabled, and sorts both halves by name.
func (rw *rootWalk) partition(ctx context.Context, entries []fs.DirEntry, parent string) (dirs []fs.DirEntry, files []fs.DirEntry) {
	logger := zerolog.Ctx(ctx)

	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 {
			if !rw.walker.opts.FollowSymlinks {
				logger.Debug().Str("path", filepath.Join(parent, entry.Name())).Msg("symlink not followed")
				continue
			}
			target, err := os.Stat(filepath.Join(parent, entry.Name()))
			if err != nil {
				// Broken symlink, nothing to scan behind it.
				continue
			}
			if target.IsDir() {
				dirs = append(dirs, entry)
			} else {
				files = append(files, entry)
			}
			continue
		}
		if entry.IsDir() {
			dirs = append(dirs, entry)
		} else {
			files = append(files, entry)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return dirs, files
}

// 🏗️ buildRecord runs the metadata pipeline for one file, honoring the
// ignore-errors switch. A nil record with nil error means skipped-with-warning.
func (rw *rootWalk) buildRecord(ctx context.Context, absPath string) (*registry.FileRecord, error) {
	logger := zerolog.Ctx(ctx)

	record, warnings, err := rw.walker.pipeline.BuildRecord(ctx, absPath, rw.displayPath(absPath))
	rw.result.warnings = append(rw.result.warnings, warnings...)
	if err != nil {
		if !rw.walker.opts.IgnoreErrors {
			return nil, errors.Errorf("%w: %s: %w", ErrAccess, absPath, err)
		}
		logger.Warn().Str("path", absPath).Err(err).Msg("skipping unreadable file")
		rw.result.warnings = append(rw.result.warnings, registry.Warning{
			Path:  rw.displayPath(absPath),
			Stage: "walk",
			Err:   errors.Errorf("%w: %w", ErrAccess, err),
		})
		return nil, nil
	}

	rw.result.records = append(rw.result.records, record)
	return record, nil
}

// 🔤 relPath returns the slash-separated path relative to the root, used for
// full-path glob rules.
func (rw *rootWalk) relPath(absPath string) string {
	rel, err := filepath.Rel(rw.base, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

// 🔤 displayPath formats a path for records and tree nodes: absolute when
// requested (or when same-named roots would collide), otherwise root-relative
// with a leading "./" and the per-root namespace.
func (rw *rootWalk) displayPath(absPath string) string {
	if rw.walker.opts.AbsolutePaths || rw.absolute {
		return absPath
	}
	rel := rw.relPath(absPath)
	if strings.HasPrefix(rel, "..") {
		return absPath
	}
	if rw.prefix != "" {
		if rel == "." {
			return "./" + rw.prefix
		}
		return "./" + rw.prefix + "/" + rel
	}
	if rel == "." {
		return "."
	}
	return "./" + rel
}
