// Copyright 2024 The Cockroach Authors
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

package hopscotch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioS6 fills a small table until an insertion would need more
// room than displacement can find, forcing a resize, and confirms every
// key inserted before the resize is still retrievable afterwards.
func TestScenarioS6(t *testing.T) {
	tbl, err := New[int, string](1, 16, 4, 8, 4, WithHash[int, string](identityHash()))
	require.NoError(t, err)

	inserted := make([]int, 0, 32)
	for k := 0; k < 32; k++ {
		if err := tbl.Put(k, "v"); err != nil {
			require.ErrorIs(t, err, ErrResizeExhausted)
			break
		}
		inserted = append(inserted, k)
	}

	require.GreaterOrEqual(t, tbl.Stats().Resizes, int64(1))

	for _, k := range inserted {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, "v", v)
	}
}

func TestResizeDoublesSegmentCountAndPreservesBucketMask(t *testing.T) {
	tbl, err := New[int, int](2, 16, 4, 8, 4)
	require.NoError(t, err)

	before := tbl.Stats()
	require.Equal(t, 2, before.Segments)

	for i := 0; i < 2000; i++ {
		if err := tbl.Put(i, i); err != nil {
			require.ErrorIs(t, err, ErrResizeExhausted)
			break
		}
	}

	after := tbl.Stats()
	require.Greater(t, after.Segments, before.Segments)
	require.Equal(t, before.BucketsPerSegment, after.BucketsPerSegment)
	require.True(t, (after.Segments&(after.Segments-1)) == 0, "segment count must remain a power of two")
}

func TestResizePreservesAllEntries(t *testing.T) {
	tbl, err := New[int, int](1, 8, 4, 8, 6)
	require.NoError(t, err)

	e := make(map[int]int)
	for i := 0; i < 5000; i++ {
		if err := tbl.Put(i, i*i); err != nil {
			require.ErrorIs(t, err, ErrResizeExhausted)
			break
		}
		e[i] = i * i
	}

	require.Equal(t, len(e), tbl.Len())
	for k, want := range e {
		got, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}
