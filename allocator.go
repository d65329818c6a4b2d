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

// Allocator specifies an interface for allocating the bucket ring backing
// a segment. The default allocator uses Go's builtin make() and allows the
// GC to reclaim memory when a segment is discarded by a resize.
//
// AllocBuckets may fail (for example, an allocator backed by a fixed arena)
// in which case it should return a non-nil error; the failing New or
// resize call surfaces it wrapped in ErrAllocation and leaves the table in
// its prior consistent state.
type Allocator[K comparable, V any] interface {
	// AllocBuckets returns a slice of n empty buckets, or an error if the
	// allocation cannot be satisfied.
	AllocBuckets(n int) ([]bucket[K, V], error)

	// FreeBuckets optionally releases the memory associated with a slice
	// previously returned by AllocBuckets. The default allocator's
	// implementation is a no-op and relies on the garbage collector.
	FreeBuckets(v []bucket[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) ([]bucket[K, V], error) {
	return make([]bucket[K, V], n), nil
}

func (defaultAllocator[K, V]) FreeBuckets(v []bucket[K, V]) {
}
