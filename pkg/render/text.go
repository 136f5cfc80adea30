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
	"strings"

	"github.com/walteh/flatrc/pkg/registry"
	"gitlab.com/tozd/go/errors"
)

// 📄 textFormat is the default flattened-codebase output: per root, the
// directory structure followed by every text file's content between BEGIN
// and END markers. Binary files are listed in the tree but never flattened.
type textFormat struct{}

func (f *textFormat) Name() string      { return "text" }
func (f *textFormat) Extension() string { return ".txt" }

func (f *textFormat) Render(ctx context.Context, reg *registry.Registry, w io.Writer) error {
	for _, root := range reg.Roots() {
		if err := f.renderRoot(reg, root, w); err != nil {
			return err
		}
	}
	return nil
}

func (f *textFormat) renderRoot(reg *registry.Registry, root *registry.TreeNode, w io.Writer) error {
	writeStructure(w, root, 0)

	fmt.Fprintf(w, "\n### %s FLATTENED CONTENT ###\n", root.Path)
	for _, leaf := range collectLeaves(root) {
		record, ok := reg.Record(leaf.Path)
		if !ok || record.Binary {
			continue
		}
		fmt.Fprintf(w, "\n### %s BEGIN ###\n", record.Path)
		if _, err := io.WriteString(w, strings.TrimRight(record.Content, "\n")); err != nil {
			return errors.Errorf("writing content for %s: %w", record.Path, err)
		}
		fmt.Fprintf(w, "\n### %s END ###\n", record.Path)
	}
	fmt.Fprintf(w, "\n### %s FLATTENED CONTENT ###\n\n", root.Path)
	return nil
}

// 🌳 writeStructure writes the indented tree view for one node
func writeStructure(w io.Writer, node *registry.TreeNode, level int) {
	indent := strings.Repeat("    ", level)
	if node.Kind == registry.NodeDirectory {
		fmt.Fprintf(w, "%s%s/\n", indent, node.Name)
		for _, child := range node.Children {
			writeStructure(w, child, level+1)
		}
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, node.Name)
}

// 🍃 collectLeaves returns the file leaves of a tree in traversal order,
// which is the same deterministic order the walker recorded them in.
func collectLeaves(node *registry.TreeNode) []*registry.TreeNode {
	if node.Kind == registry.NodeFile {
		return []*registry.TreeNode{node}
	}
	var leaves []*registry.TreeNode
	for _, child := range node.Children {
		leaves = append(leaves, collectLeaves(child)...)
	}
	return leaves
}
