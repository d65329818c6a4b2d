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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// toBuiltinMap returns the table's entries as a map[K]V, for reconciling
// against a reference implementation in tests.
func (t *Table[K, V]) toBuiltinMap() map[K]V {
	r := make(map[K]V)
	t.All(func(k K, v V) bool {
		r[k] = v
		return true
	})
	return r
}

// identityHash returns a HashFunc for small non-negative ints that maps key
// k to hkey k directly, as the S1-S6 scenario tests use. Once passed
// through WithHash, key 0 is remapped to hashReservedRemap by
// withReservedRemap rather than to 1.
func identityHash() HashFunc[int] {
	return func(key int) uint64 {
		return uint64(key)
	}
}

func newScenarioTable(t testing.TB) *Table[int, string] {
	tbl, err := New[int, string](2, 16, 4, 8, 4, WithHash[int, string](identityHash()))
	require.NoError(t, err)
	return tbl
}

// TestScenarioS1 covers put/get/remove/get on a single key.
func TestScenarioS1(t *testing.T) {
	tbl := newScenarioTable(t)

	require.NoError(t, tbl.Put(1, "a"))
	v, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	removed, ok := tbl.Remove(1)
	require.True(t, ok)
	require.Equal(t, "a", removed)

	_, ok = tbl.Get(1)
	require.False(t, ok)
}

// TestScenarioS2 covers two keys sharing a home bucket but occupying
// distinct offsets within its neighborhood.
func TestScenarioS2(t *testing.T) {
	tbl := newScenarioTable(t)

	require.NoError(t, tbl.Put(1, "a"))
	require.NoError(t, tbl.Put(17, "b"))

	v, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	v, ok = tbl.Get(17)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

// TestScenarioS3 fills every offset of home bucket 1's neighborhood
// (hop_range 4) with keys 1, 17, 33 and 49, then inserts a fifth key, 65,
// with the same home. No displacement can bring a free bucket into that
// neighborhood, so the fifth Put succeeds only once the table has grown;
// all five keys must then be retrievable.
func TestScenarioS3(t *testing.T) {
	tbl := newScenarioTable(t)

	for _, k := range []int{1, 17, 33, 49} {
		require.NoError(t, tbl.Put(k, "x"))
	}
	require.NoError(t, tbl.Put(65, "e"))

	for _, k := range []int{1, 17, 33, 49, 65} {
		_, ok := tbl.Get(k)
		require.Truef(t, ok, "key %d not retrievable after inserting a fifth key with the same home", k)
	}
}

// TestScenarioS4 confirms insert-or-ignore semantics: a second Put of an
// already-present key does not overwrite the first value.
func TestScenarioS4(t *testing.T) {
	tbl := newScenarioTable(t)

	require.NoError(t, tbl.Put(1, "a"))
	require.NoError(t, tbl.Put(1, "b"))

	v, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", v)
}

func TestRemoveIdempotent(t *testing.T) {
	tbl := newScenarioTable(t)
	require.NoError(t, tbl.Put(1, "a"))

	v, ok := tbl.Remove(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	_, ok = tbl.Remove(1)
	require.False(t, ok)

	_, ok = tbl.Get(1)
	require.False(t, ok)
}

func TestNewValidatesParameters(t *testing.T) {
	cases := []struct {
		name                                            string
		nSegments, nBuckets, hopRange, addRange, tries uint32
	}{
		{"n_segments not power of two", 3, 16, 4, 8, 4},
		{"n_buckets_per_segment not power of two", 2, 15, 4, 8, 4},
		{"hop_range zero", 2, 16, 0, 8, 4},
		{"hop_range too wide", 2, 16, 33, 33, 4},
		{"add_range less than hop_range", 2, 16, 8, 4, 4},
		{"n_buckets less than add_range", 2, 4, 4, 8, 4},
		{"max_tries zero", 2, 16, 4, 8, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New[int, int](c.nSegments, c.nBuckets, c.hopRange, c.addRange, c.tries)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMisconfigured)
		})
	}
}

func TestBasicPutGetRemove(t *testing.T) {
	tbl, err := New[int, int](4, 32, 8, 16, 8)
	require.NoError(t, err)

	const count = 500
	e := make(map[int]int)

	for i := 0; i < count; i++ {
		_, ok := tbl.Get(i)
		require.False(t, ok)
	}

	for i := 0; i < count; i++ {
		require.NoError(t, tbl.Put(i, i+count))
		e[i] = i + count
	}
	require.Equal(t, count, tbl.Len())
	require.Equal(t, e, tbl.toBuiltinMap())

	for i := 0; i < count; i++ {
		v, ok := tbl.Get(i)
		require.True(t, ok)
		require.Equal(t, i+count, v)
	}

	for i := 0; i < count; i += 2 {
		v, ok := tbl.Remove(i)
		require.True(t, ok)
		require.Equal(t, i+count, v)
		delete(e, i)
	}
	require.Equal(t, count/2, tbl.Len())
	require.Equal(t, e, tbl.toBuiltinMap())
}

func TestRandomOperations(t *testing.T) {
	tbl, err := New[int, int](4, 16, 4, 8, 8)
	require.NoError(t, err)

	e := make(map[int]int)
	const keySpace = 2000

	for i := 0; i < 20000; i++ {
		k := rand.Intn(keySpace)
		switch {
		case rand.Float64() < 0.5:
			if _, present := e[k]; !present {
				if err := tbl.Put(k, k); err != nil {
					require.ErrorIs(t, err, ErrResizeExhausted)
					continue
				}
				e[k] = k
			}
		default:
			if _, present := e[k]; present {
				v, ok := tbl.Remove(k)
				require.True(t, ok)
				require.Equal(t, k, v)
				delete(e, k)
			} else {
				_, ok := tbl.Remove(k)
				require.False(t, ok)
			}
		}
	}

	for k, want := range e {
		got, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	require.Equal(t, len(e), tbl.Len())
}

func TestStats(t *testing.T) {
	tbl, err := New[int, int](2, 16, 4, 8, 4)
	require.NoError(t, err)

	require.NoError(t, tbl.Put(1, 1))
	require.NoError(t, tbl.Put(2, 2))

	stats := tbl.Stats()
	require.Equal(t, 2, stats.Segments)
	require.Equal(t, 16, stats.BucketsPerSegment)
	require.Equal(t, 2, stats.Entries)

	require.InDelta(t, float64(tbl.Len())/float64(tbl.Cap()), tbl.LoadFactor(), 1e-9)
}

func TestAllStopsOnFalse(t *testing.T) {
	tbl, err := New[int, int](2, 16, 4, 8, 4)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, tbl.Put(i, i))
	}

	seen := 0
	tbl.All(func(k, v int) bool {
		seen++
		return seen < 3
	})
	require.Equal(t, 3, seen)
}

func TestDisposeIsIdempotent(t *testing.T) {
	tbl, err := New[int, int](2, 16, 4, 8, 4)
	require.NoError(t, err)
	require.NoError(t, tbl.Put(1, 1))

	tbl.Dispose()
	tbl.Dispose()
}
