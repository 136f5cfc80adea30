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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/flatrc/pkg/render"
	"gitlab.com/tozd/go/errors"
)

// NewFormatsCmd creates the formats command, the query surface for the
// output format capability table.
func NewFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List available output formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := render.NewFormats()
			for _, format := range render.BuiltinFormats(render.Options{}) {
				if err := formats.Register(format); err != nil {
					return errors.Errorf("registering format: %w", err)
				}
			}

			for _, info := range formats.Describe() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", info.Name, info.Extension)
			}
			return nil
		},
	}
}
