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
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func BenchmarkTableGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetHit[int64], genBenchKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapGetHit[string], genBenchKeys[string]))
	})
	b.Run("impl=hopscotchTable", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkTableGetHit[int64], genBenchKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkTableGetHit[string], genBenchKeys[string]))
	})
}

func BenchmarkTableGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetMiss[int64], genBenchKeys[int64]))
	})
	b.Run("impl=hopscotchTable", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkTableGetMiss[int64], genBenchKeys[int64]))
	})
}

func BenchmarkTablePutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutGrow[int64], genBenchKeys[int64]))
	})
	b.Run("impl=hopscotchTable", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkTablePutGrow[int64], genBenchKeys[int64]))
	})
}

func BenchmarkTablePutDelete(b *testing.B) {
	b.Run("impl=hopscotchTable", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkTablePutDelete[int64], genBenchKeys[int64]))
	})
}

type benchTypes interface {
	int64 | string
}

func benchSizes[T benchTypes](
	f func(b *testing.B, n int, genKeys func(start, end int) []T), genKeys func(start, end int) []T,
) func(*testing.B) {
	cases := []int{64, 512, 4096, 1 << 16}
	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n, genKeys) })
		}
	}
}

func genBenchKeys[T benchTypes](start, end int) []T {
	var t T
	switch any(t).(type) {
	case int64:
		keys := make([]int64, end-start)
		for i := range keys {
			keys[i] = int64(start + i)
		}
		return any(keys).([]T)
	case string:
		keys := make([]string, end-start)
		for i := range keys {
			keys[i] = strconv.Itoa(start + i)
		}
		return any(keys).([]T)
	default:
		panic("not reached")
	}
}

// newBenchTable sizes a table's structural parameters from an expected
// element count n: segments scale with n, while buckets per segment stay a
// small constant multiple of hopRange.
func newBenchTable[T comparable](n int) *Table[T, T] {
	segments := uint32(1)
	for int(segments)*8 < n && segments < 1<<16 {
		segments *= 2
	}
	tbl, err := New[T, T](segments, 64, 8, 16, 32)
	if err != nil {
		panic(err)
	}
	return tbl
}

func benchmarkRuntimeMapGetHit[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[keys[i%n]]
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkTableGetHit[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	perfbench.Open(b)
	tbl := newBenchTable[T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		if err := tbl.Put(k, k); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = tbl.Get(keys[i%n])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapGetMiss[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[miss[i%len(miss)]]
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkTableGetMiss[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	tbl := newBenchTable[T](n)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		if err := tbl.Put(k, k); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = tbl.Get(miss[i%len(miss)])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapPutGrow[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[T]T)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkTablePutGrow[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl := newBenchTable[T](n)
		for _, k := range keys {
			if err := tbl.Put(k, k); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func benchmarkTablePutDelete[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	tbl := newBenchTable[T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		if err := tbl.Put(k, k); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := keys[i%n]
		tbl.Remove(j)
		if err := tbl.Put(j, j); err != nil {
			b.Fatal(err)
		}
	}
}
