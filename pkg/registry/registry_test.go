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

package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func newRecord(path string, size int64, modified time.Time) *FileRecord {
	return &FileRecord{
		Path:     path,
		Name:     path,
		Size:     size,
		Modified: modified,
		Metadata: map[string]any{"path": path},
	}
}

func TestAdd(t *testing.T) {
	reg := New()

	require.NoError(t, reg.Add(newRecord("./a.txt", 1, time.Now())), "first add should succeed")
	require.NoError(t, reg.Add(newRecord("./b.txt", 2, time.Now())), "second add should succeed")

	err := reg.Add(newRecord("./a.txt", 3, time.Now()))
	require.Error(t, err, "duplicate path should be rejected")
	assert.ErrorIs(t, err, ErrDuplicatePath, "error should wrap ErrDuplicatePath")
	assert.Equal(t, 2, reg.Len(), "rejected record should not be stored")
}

func TestRecordsOrder(t *testing.T) {
	reg := New()
	paths := []string{"./z.txt", "./a.txt", "./m.txt"}
	for _, path := range paths {
		require.NoError(t, reg.Add(newRecord(path, 1, time.Now())), "add should succeed")
	}

	records := reg.Records()
	require.Len(t, records, 3, "all records should be returned")
	for i, record := range records {
		assert.Equal(t, paths[i], record.Path, "insertion order should be preserved")
	}
}

func TestRemoveFieldIsProjection(t *testing.T) {
	record := newRecord("./a.txt", 1, time.Now())
	record.Metadata["hash"] = "abc123"
	record.Metadata["size"] = int64(1)

	record.RemoveField("hash")

	// The value stays readable for anyone holding the record.
	assert.Equal(t, "abc123", record.Metadata["hash"], "removed field should still be computed")

	keys, visible := record.VisibleMetadata()
	assert.NotContains(t, keys, "hash", "removed field should not be listed")
	assert.NotContains(t, visible, "hash", "removed field should not be visible")
	assert.Contains(t, visible, "size", "other fields should survive")
	assert.Contains(t, visible, "path", "other fields should survive")
}

func TestVisibleMetadataSorted(t *testing.T) {
	record := newRecord("./a.txt", 1, time.Now())
	record.Metadata["zeta"] = 1
	record.Metadata["alpha"] = 2

	keys, _ := record.VisibleMetadata()
	require.Len(t, keys, 3, "all visible keys should be listed")
	assert.Equal(t, []string{"alpha", "path", "zeta"}, keys, "keys should be sorted")
}

func TestStats(t *testing.T) {
	reg := New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 15; i++ {
		record := newRecord(fmt.Sprintf("./f%02d.go", i), int64(i*100), base.Add(time.Duration(i)*time.Hour))
		record.Extension = "go"
		require.NoError(t, reg.Add(record), "add should succeed")
	}

	stats := reg.Stats()
	assert.Equal(t, 15, stats.TotalFiles, "total files should match")
	assert.Equal(t, 15, stats.Extensions["go"], "extension counts should match")
	require.Len(t, stats.LargestFiles, 10, "largest files should be capped at ten")
	require.Len(t, stats.RecentlyModified, 10, "recent files should be capped at ten")

	assert.Equal(t, "./f14.go", stats.LargestFiles[0].Path, "largest file should rank first")
	assert.Equal(t, "./f14.go", stats.RecentlyModified[0].Path, "newest file should rank first")
	for i := 1; i < len(stats.LargestFiles); i++ {
		assert.GreaterOrEqual(t, stats.LargestFiles[i-1].Size, stats.LargestFiles[i].Size,
			"largest files should be sorted descending")
	}
}

func TestWarnings(t *testing.T) {
	reg := New()
	reg.Warn(Warning{Path: "./broken", Stage: "walk", Err: errors.New("permission denied")})
	reg.Warn(Warning{Stage: "render", Err: errors.New("unknown format")})

	warnings := reg.Warnings()
	require.Len(t, warnings, 2, "both warnings should be kept")
	assert.Equal(t, "walk", warnings[0].Stage, "warning order should be preserved")
}
