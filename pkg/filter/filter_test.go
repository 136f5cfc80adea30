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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		rules       RuleSet
		wantErr     bool
		errContains string
	}{
		{
			name:  "empty_rules",
			rules: RuleSet{},
		},
		{
			name: "valid_patterns",
			rules: RuleSet{
				ExcludeDirs:  []string{`^build$`},
				IncludeFiles: []string{`\.go$`},
				ExcludeGlobs: []string{"**/generated/**"},
			},
		},
		{
			name: "invalid_dir_regex",
			rules: RuleSet{
				ExcludeDirs: []string{`[unclosed`},
			},
			wantErr:     true,
			errContains: "exclude_dirs",
		},
		{
			name: "invalid_file_regex",
			rules: RuleSet{
				IncludeFiles: []string{`(?P<bad`},
			},
			wantErr:     true,
			errContains: "include_files",
		},
		{
			name: "invalid_glob",
			rules: RuleSet{
				ExcludeGlobs: []string{`a[`},
			},
			wantErr:     true,
			errContains: "exclude_globs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := Compile(tt.rules)
			if tt.wantErr {
				require.Error(t, err, "compile should fail")
				assert.ErrorIs(t, err, ErrBadPattern, "error should wrap ErrBadPattern")
				assert.Contains(t, err.Error(), tt.errContains, "error should name the rule group")
				return
			}
			require.NoError(t, err, "compile should succeed")
			require.NotNil(t, engine, "engine should not be nil")
		})
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name    string
		rules   RuleSet
		entry   string
		relPath string
		kind    Kind
		ext     string
		want    bool
	}{
		{
			name:  "default_accepts_regular_file",
			entry: "main.go",
			kind:  KindFile,
			ext:   "go",
			want:  true,
		},
		{
			name:  "default_rules_exclude_git_dir",
			entry: ".git",
			kind:  KindDirectory,
			want:  false,
		},
		{
			name:  "default_rules_exclude_pycache",
			entry: "__pycache__",
			kind:  KindDirectory,
			want:  false,
		},
		{
			name:  "default_rules_exclude_pyc_file",
			entry: "mod.pyc",
			kind:  KindFile,
			ext:   "pyc",
			want:  false,
		},
		{
			name:  "no_default_rules_keeps_git_dir",
			rules: RuleSet{NoDefaultRules: true},
			entry: ".git",
			kind:  KindDirectory,
			want:  true,
		},
		{
			name: "include_list_overrides_exclude",
			rules: RuleSet{
				IncludeDirs: []string{`^\.github$`},
				ExcludeDirs: []string{`^\.github$`},
			},
			entry: ".github",
			kind:  KindDirectory,
			want:  true,
		},
		{
			name: "include_list_is_an_allow_list",
			rules: RuleSet{
				IncludeDirs: []string{`^src$`},
			},
			entry: "docs",
			kind:  KindDirectory,
			want:  false,
		},
		{
			name: "exclude_file_pattern",
			rules: RuleSet{
				ExcludeFiles: []string{`_test\.go$`},
			},
			entry: "scanner_test.go",
			kind:  KindFile,
			ext:   "go",
			want:  false,
		},
		{
			name: "only_extensions_accepts_listed",
			rules: RuleSet{
				OnlyExtensions: []string{"py"},
			},
			entry: "tool.py",
			kind:  KindFile,
			ext:   "py",
			want:  true,
		},
		{
			name: "only_extensions_rejects_others",
			rules: RuleSet{
				OnlyExtensions: []string{"py"},
			},
			entry: "notes.txt",
			kind:  KindFile,
			ext:   "txt",
			want:  false,
		},
		{
			name: "only_extensions_does_not_gate_directories",
			rules: RuleSet{
				OnlyExtensions: []string{"py"},
			},
			entry: "src",
			kind:  KindDirectory,
			want:  true,
		},
		{
			name: "exclude_extensions",
			rules: RuleSet{
				ExcludeExtensions: []string{".LOG"},
			},
			entry: "server.log",
			kind:  KindFile,
			ext:   "log",
			want:  false,
		},
		{
			name: "glob_matches_relative_path",
			rules: RuleSet{
				ExcludeGlobs: []string{"vendor/**"},
			},
			entry:   "lib.go",
			relPath: "vendor/acme/lib.go",
			kind:    KindFile,
			ext:     "go",
			want:    false,
		},
		{
			name: "glob_misses_other_paths",
			rules: RuleSet{
				ExcludeGlobs: []string{"vendor/**"},
			},
			entry:   "lib.go",
			relPath: "pkg/acme/lib.go",
			kind:    KindFile,
			ext:     "go",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := Compile(tt.rules)
			require.NoError(t, err, "compile should succeed")

			got := engine.Accept(tt.entry, tt.relPath, tt.kind, tt.ext)
			assert.Equal(t, tt.want, got, "accept decision should match")
		})
	}
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, "go", NormalizeExtension(".go"), "leading dot should be stripped")
	assert.Equal(t, "py", NormalizeExtension("PY"), "extension should be lower-cased")
	assert.Equal(t, "", NormalizeExtension(""), "empty stays empty")
}
