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
	"math/bits"

	"go.uber.org/zap"
)

// resize grows the table's segment count and redistributes every live entry
// across the new segments, then publishes the new generation. It is a
// stop-the-world operation with respect to the table as a whole: every
// segment in the old generation is locked (in ascending index order, to
// avoid deadlocking against a concurrent resize) for the duration of the
// copy.
//
// Doubling the segment count rather than the bucket count per segment
// keeps a segment's internal bucket mask, and therefore every home-bucket
// computation within it, unchanged across a resize: only the segment
// selection shift changes. An entry's hash is already known, so
// redistribution needs no rehashing, only a redirect to (possibly) a
// different segment and a fresh insertion within it.
//
// A single doubling can itself run out of room for an unlucky hash
// distribution: reinsertion into the new segments follows the same
// addRange/hopRange rules as an ordinary Put, so it can hit the same
// capacity wall. When that happens resize discards the failed attempt and
// doubles again, retrying until an attempt succeeds or maxResizes further
// doublings have also failed, mirroring the bound Put itself places on how
// many resizes it will trigger for one insertion.
//
// stale is the generation the caller observed before deciding it needed to
// resize; if some other goroutine has already installed a newer generation
// by the time resize acquires resizeMu, resize returns immediately without
// doing further work, and the caller's next loop iteration will observe
// the newer generation.
func (t *Table[K, V]) resize(stale *tableSegments[K, V]) error {
	t.resizeMu.Lock()
	defer t.resizeMu.Unlock()

	current := t.segs.Load()
	if current != stale {
		// Another goroutine already grew the table; nothing to do.
		return nil
	}

	oldSegs := current.segs
	nBucketsPerSegment := oldSegs[0].nBuckets()

	for _, seg := range oldSegs {
		seg.mu.Lock()
	}
	defer func() {
		for _, seg := range oldSegs {
			seg.mu.Unlock()
		}
	}()

	newCount := len(oldSegs) * 2
	var next *tableSegments[K, V]
	for attempt := 0; ; attempt++ {
		t.logger.Info("hopscotch resize attempt",
			zap.Int("old_segments", len(oldSegs)),
			zap.Int("new_segments", newCount),
		)
		newSegs, err := allocSegments[K, V](t.allocator, newCount, nBucketsPerSegment)
		if err != nil {
			return err
		}

		candidate := &tableSegments[K, V]{
			segs:     newSegs,
			segShift: uint(64 - bits.TrailingZeros32(uint32(newCount))),
		}
		if t.migrateInto(oldSegs, candidate) {
			next = candidate
			break
		}

		for _, s := range newSegs {
			t.allocator.FreeBuckets(s.buckets)
		}
		if attempt >= t.maxResizes {
			return ErrResizeExhausted
		}
		newCount *= 2
	}

	t.segs.Store(next)
	t.resizes.Inc()
	t.metrics.observeResize()
	t.logger.Info("hopscotch table resized",
		zap.Int("old_segments", len(oldSegs)),
		zap.Int("new_segments", len(next.segs)),
	)

	// next is already published, so a lock-free Get in flight against
	// current may still be dereferencing a bucket inside oldSegs at this
	// exact instant. The default allocator's FreeBuckets is a no-op and
	// relies on the garbage collector, which keeps oldSegs's backing
	// arrays alive for as long as that Get's already-loaded
	// *tableSegments references them — never a use-after-free. A pooling
	// or arena-backed Allocator that actually recycles memory here must
	// not do so until it can itself guarantee every reader that observed
	// current has finished (a quiescent interval, an epoch reclamation
	// scheme, or equivalent); this package provides no such guarantee to
	// FreeBuckets on the caller's behalf.
	for _, seg := range oldSegs {
		t.allocator.FreeBuckets(seg.buckets)
	}
	return nil
}

// allocSegments allocates n fresh segments of nBucketsPerSegment buckets
// each. If any allocation fails, every segment already allocated in this
// call is freed before returning the error, so a caller never leaks a
// partially-built segment array.
func allocSegments[K comparable, V any](alloc Allocator[K, V], n int, nBucketsPerSegment uint32) ([]*segment[K, V], error) {
	segs := make([]*segment[K, V], n)
	for i := range segs {
		s, err := newSegment[K, V](alloc, nBucketsPerSegment)
		if err != nil {
			for _, done := range segs[:i] {
				alloc.FreeBuckets(done.buckets)
			}
			return nil, newAllocationError(i, nBucketsPerSegment, err)
		}
		segs[i] = s
	}
	return segs, nil
}

// migrateInto redistributes every live entry in oldSegs into next,
// returning false the moment a single reinsertion fails. A false result
// leaves next partially populated; the caller discards it (and frees its
// buckets) rather than trying to unwind the partial copy.
func (t *Table[K, V]) migrateInto(oldSegs []*segment[K, V], next *tableSegments[K, V]) bool {
	for _, seg := range oldSegs {
		for i := range seg.buckets {
			e := seg.buckets[i].ent.Load()
			if e == nil {
				continue
			}
			dstSeg, homeIdx := next.locate(e.hkey)
			if !t.reinsert(dstSeg, homeIdx, e) {
				return false
			}
		}
	}
	return true
}

// reinsert places an already-hashed entry into dstSeg during a resize. The
// caller holds every old segment's lock but dstSeg belongs to the
// not-yet-published next generation, so no lock is needed on dstSeg
// itself; reinsert cannot race with any other goroutine.
//
// It mirrors Table.putLocked's placement logic without needing to probe
// for an existing match first (resize only ever moves distinct keys into
// fresh, empty segments).
func (t *Table[K, V]) reinsert(seg *segment[K, V], homeIdx uint64, e *entry[K, V]) bool {
	nBuckets := uint64(seg.nBuckets())
	var freeIdx uint64
	found := false
	for d := uint64(0); d < uint64(t.addRange) && d < nBuckets; d++ {
		idx := seg.wrap(homeIdx + d)
		if seg.bucketAt(idx).isEmpty() {
			freeIdx = idx
			found = true
			break
		}
	}
	if !found {
		return false
	}

	for {
		distance := seg.wrap(freeIdx - homeIdx)
		if distance < uint64(t.hopRange) {
			seg.bucketAt(freeIdx).occupy(e.hkey, e.key, e.value)
			seg.bucketAt(homeIdx).setHop(uint32(distance))
			seg.count.Inc()
			return true
		}

		newFree, ok := displace(seg, freeIdx, t.hopRange)
		if !ok {
			return false
		}
		freeIdx = newFree
	}
}
