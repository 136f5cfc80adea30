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

	"github.com/pterm/pterm"
	"github.com/walteh/flatrc/pkg/registry"
)

// 📊 reportScan prints the end-of-run summary: artifacts written, totals,
// and every warning collected along the way.
func reportScan(reg *registry.Registry, written []string, renderWarnings []registry.Warning) {
	stats := reg.Stats()

	pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"}).Printf(
		"%d files scanned across %d roots (%d bytes)\n",
		stats.TotalFiles, len(reg.Roots()), stats.TotalSize)

	for _, dest := range written {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"}).Printf("wrote %s\n", dest)
	}

	warnings := append(reg.Warnings(), renderWarnings...)
	for _, warning := range warnings {
		msg := warning.Err.Error()
		if warning.Path != "" {
			msg = fmt.Sprintf("%s: %s", warning.Path, msg)
		}
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Printf("[%s] %s\n", warning.Stage, msg)
	}
}
