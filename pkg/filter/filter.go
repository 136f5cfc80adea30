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

// Package filter provides pure include/exclude predicate evaluation for
// scanned paths. Rules are compiled once and never mutated afterwards.
package filter

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🚫 ErrBadPattern indicates a rule that failed to compile
var ErrBadPattern = errors.New("invalid filter pattern")

// 📂 Kind distinguishes directory rules from file rules
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

// String returns a string representation of Kind
func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// 📋 RuleSet is the raw filter configuration. Name rules are regular
// expressions matched against the entry name (unanchored); glob rules are
// doublestar patterns matched against the slash-separated relative path.
type RuleSet struct {
	ExcludeDirs       []string `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty" hcl:"exclude_dirs,optional"`
	IncludeDirs       []string `json:"include_dirs,omitempty" yaml:"include_dirs,omitempty" hcl:"include_dirs,optional"`
	ExcludeFiles      []string `json:"exclude_files,omitempty" yaml:"exclude_files,omitempty" hcl:"exclude_files,optional"`
	IncludeFiles      []string `json:"include_files,omitempty" yaml:"include_files,omitempty" hcl:"include_files,optional"`
	OnlyExtensions    []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional"`
	ExcludeExtensions []string `json:"exclude_extensions,omitempty" yaml:"exclude_extensions,omitempty" hcl:"exclude_extensions,optional"`
	ExcludeGlobs      []string `json:"exclude_globs,omitempty" yaml:"exclude_globs,omitempty" hcl:"exclude_globs,optional"`
	NoDefaultRules    bool     `json:"no_default_rules,omitempty" yaml:"no_default_rules,omitempty" hcl:"no_default_rules,optional"`
}

// 🗂️ default exclusions, applied unless NoDefaultRules is set. These guard
// against accidental inclusion of VCS internals and build caches.
var (
	defaultExcludeDirs = []string{
		`^\.git$`,
		`^\.svn$`,
		`^\.hg$`,
		`^__pycache__$`,
		`^\.pytest_cache$`,
		`^node_modules$`,
		`^\.[^/]*$`,
	}

	defaultExcludeFiles = []string{
		`.*\.pyc$`,
		`.*\.pyo$`,
		`.*\.pyd$`,
		`.*~$`,
		`\.DS_Store$`,
		`Thumbs\.db$`,
	}
)

// 🔍 Engine evaluates a compiled RuleSet. It is stateless and safe for
// concurrent use.
type Engine struct {
	excludeDirs  []*regexp.Regexp
	includeDirs  []*regexp.Regexp
	excludeFiles []*regexp.Regexp
	includeFiles []*regexp.Regexp
	onlyExts     map[string]bool
	excludeExts  map[string]bool
	excludeGlobs []string
}

// 🏭 Compile builds an Engine from a RuleSet. Every malformed pattern is a
// fatal configuration error, never silently skipped.
func Compile(rs RuleSet) (*Engine, error) {
	e := &Engine{
		excludeGlobs: rs.ExcludeGlobs,
	}

	excludeDirs := rs.ExcludeDirs
	excludeFiles := rs.ExcludeFiles
	if !rs.NoDefaultRules {
		excludeDirs = append(append([]string{}, defaultExcludeDirs...), excludeDirs...)
		excludeFiles = append(append([]string{}, defaultExcludeFiles...), excludeFiles...)
	}

	var err error
	if e.excludeDirs, err = compilePatterns(excludeDirs); err != nil {
		return nil, errors.Errorf("exclude_dirs: %w", err)
	}
	if e.includeDirs, err = compilePatterns(rs.IncludeDirs); err != nil {
		return nil, errors.Errorf("include_dirs: %w", err)
	}
	if e.excludeFiles, err = compilePatterns(excludeFiles); err != nil {
		return nil, errors.Errorf("exclude_files: %w", err)
	}
	if e.includeFiles, err = compilePatterns(rs.IncludeFiles); err != nil {
		return nil, errors.Errorf("include_files: %w", err)
	}

	e.onlyExts = extensionSet(rs.OnlyExtensions)
	e.excludeExts = extensionSet(rs.ExcludeExtensions)

	for _, pattern := range rs.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("exclude_globs: %w: %q", ErrBadPattern, pattern)
		}
	}

	return e, nil
}

// 🧮 compilePatterns compiles each pattern, wrapping failures in ErrBadPattern
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Errorf("%w: %q: %w", ErrBadPattern, pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// 🧮 extensionSet normalizes extensions (lower-case, no leading dot)
func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[NormalizeExtension(ext)] = true
	}
	return set
}

// 🔤 NormalizeExtension lower-cases an extension and strips the leading dot
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ✅ Accept reports whether a path survives filtering. Precedence, first
// decisive rule wins:
//  1. a non-empty include list for this kind is an allow-list: the name must
//     match at least one include pattern
//  2. any exclude match (name rule or full-path glob) rejects
//  3. files only: the extension must be in the only-extensions set (if any)
//     and not in the exclude-extensions set
//  4. default accept
func (e *Engine) Accept(name string, relPath string, kind Kind, ext string) bool {
	includes := e.includeFiles
	excludes := e.excludeFiles
	if kind == KindDirectory {
		includes = e.includeDirs
		excludes = e.excludeDirs
	}

	if len(includes) > 0 {
		for _, re := range includes {
			if re.MatchString(name) {
				return true
			}
		}
		return false
	}

	for _, re := range excludes {
		if re.MatchString(name) {
			return false
		}
	}

	for _, pattern := range e.excludeGlobs {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return false
		}
	}

	if kind == KindFile {
		if e.onlyExts != nil && !e.onlyExts[ext] {
			return false
		}
		if e.excludeExts != nil && e.excludeExts[ext] {
			return false
		}
	}

	return true
}
