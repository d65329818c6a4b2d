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
	"sync"

	"go.uber.org/atomic"
)

// segment is a contiguous, wrapping ring of buckets guarded by a single
// mutex. Every put and remove that hashes into this segment serializes on
// mu; every get for this segment is lock-free and instead fences on
// timestamp.
type segment[K comparable, V any] struct {
	mu sync.Mutex

	buckets []bucket[K, V]
	// mask is len(buckets)-1; buckets is always a power-of-two length so
	// h&mask is equivalent to h%len(buckets).
	mask uint64

	// timestamp is incremented once per displacement swap performed in
	// this segment (see displace). Get reads it before and after probing
	// to detect a swap that ran concurrently with the probe.
	timestamp atomic.Uint32

	// count is the number of occupied buckets in this segment. It is
	// maintained with atomics so Table.Len can be read without acquiring
	// every segment's lock.
	count atomic.Int64
}

// newSegment allocates a segment with the given number of buckets, which
// must be a power of two. The bucket ring is obtained from alloc so a
// custom Allocator is honored during both initial construction and resize.
func newSegment[K comparable, V any](alloc Allocator[K, V], nBuckets uint32) (*segment[K, V], error) {
	buckets, err := alloc.AllocBuckets(int(nBuckets))
	if err != nil {
		return nil, err
	}
	return &segment[K, V]{
		buckets: buckets,
		mask:    uint64(nBuckets) - 1,
	}, nil
}

// bucketAt returns a pointer to the bucket at ring offset i (already
// reduced modulo the segment size by the caller, or reduced here via mask).
func (s *segment[K, V]) bucketAt(i uint64) *bucket[K, V] {
	return &s.buckets[i&s.mask]
}

// wrap reduces an arbitrary offset (which may have been computed as
// home+distance without modular reduction) into the segment's index space.
func (s *segment[K, V]) wrap(i uint64) uint64 {
	return i & s.mask
}

// nBuckets returns the number of buckets in the segment's ring.
func (s *segment[K, V]) nBuckets() uint32 {
	return uint32(s.mask + 1)
}
