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
	"github.com/walteh/flatrc/pkg/metadata"
)

// NewProvidersCmd creates the providers command, the query surface for the
// metadata provider capability table.
func NewProvidersCmd(table *metadata.Providers) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List available metadata providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, info := range table.Describe() {
				enabled := " "
				if info.EnabledByDefault {
					enabled = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %s\n", enabled, info.Name, info.Description)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n* enabled by default")
			return nil
		},
	}
}
