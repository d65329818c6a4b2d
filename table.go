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
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	// maxHopRange is the widest hopInfo bitmap this package supports. It
	// is pinned to 32 so hopInfo fits in a single atomically-loadable
	// machine word on every platform Go targets, per the "bitmap width
	// vs. word size" design note.
	maxHopRange = 32

	defaultMaxResizes = 32
)

// tableSegments is the directory of segments a Table currently points at.
// A resize builds a new tableSegments and swaps the Table's pointer to it.
// A Get already in flight against the old tableSegments finishes against
// it undisturbed. Put and Remove re-check Table.segs once they hold a
// segment lock and retry against the newer generation if a resize replaced
// the one they locked; a Put that discovers it must resize always re-reads
// Table.segs after resizing rather than assuming it holds the latest
// generation.
type tableSegments[K comparable, V any] struct {
	segs []*segment[K, V]
	// segShift is the right-shift applied to a hash to obtain its
	// segment index: segIdx = h >> segShift. It equals 64-log2(len(segs)).
	segShift uint
}

func (ts *tableSegments[K, V]) locate(h uint64) (*segment[K, V], uint64) {
	seg := ts.segs[h>>ts.segShift]
	return seg, h & seg.mask
}

// Table is a concurrent hash map using the Hopscotch hashing scheme of
// Herlihy, Shavit and Tzafrir (2008). See the package doc for the
// algorithm and doc.go's overview of the concurrency protocol.
//
// A Table must be constructed with New; the zero value is not usable.
type Table[K comparable, V any] struct {
	hash       HashFunc[K]
	allocator  Allocator[K, V]
	logger     *zap.Logger
	metrics    tableMetrics
	maxResizes int

	hopRange uint32
	addRange uint32
	maxTries uint32

	segs atomic.Pointer[tableSegments[K, V]]

	// resizeMu serializes resize invocations; the algorithm never needs
	// more than one resize in flight; a second Put that also discovers it
	// must resize simply waits for the first to finish and re-reads segs.
	resizeMu sync.Mutex

	resizes         atomic.Int64
	maxDisplacement atomic.Int64
}

// New constructs a Table. nSegments and nBucketsPerSegment must be powers
// of two; nBucketsPerSegment must be at least addRange so that ADD_RANGE
// linear positions always fit within one lap of the ring. hopRange must be
// between 1 and 32 inclusive and no greater than addRange. maxTries bounds
// Get's retry loop and must be at least 1.
func New[K comparable, V any](nSegments, nBucketsPerSegment, hopRange, addRange, maxTries uint32, opts ...Option[K, V]) (*Table[K, V], error) {
	if nSegments == 0 || nSegments&(nSegments-1) != 0 {
		return nil, newMisconfigured("n_segments %d is not a power of two", nSegments)
	}
	if nBucketsPerSegment == 0 || nBucketsPerSegment&(nBucketsPerSegment-1) != 0 {
		return nil, newMisconfigured("n_buckets_per_segment %d is not a power of two", nBucketsPerSegment)
	}
	if hopRange == 0 || hopRange > maxHopRange {
		return nil, newMisconfigured("hop_range %d must be in [1, %d]", hopRange, maxHopRange)
	}
	if addRange < hopRange {
		return nil, newMisconfigured("add_range %d must be >= hop_range %d", addRange, hopRange)
	}
	if nBucketsPerSegment < addRange {
		return nil, newMisconfigured("n_buckets_per_segment %d must be >= add_range %d", nBucketsPerSegment, addRange)
	}
	if maxTries == 0 {
		return nil, newMisconfigured("max_tries must be >= 1")
	}

	t := &Table[K, V]{
		hash:       withReservedRemap(defaultHash[K]()),
		allocator:  defaultAllocator[K, V]{},
		logger:     zap.NewNop(),
		metrics:    noopMetrics{},
		maxResizes: defaultMaxResizes,
		hopRange:   hopRange,
		addRange:   addRange,
		maxTries:   maxTries,
	}
	for _, op := range opts {
		op.apply(t)
	}

	segs := make([]*segment[K, V], nSegments)
	for i := range segs {
		s, err := newSegment[K, V](t.allocator, nBucketsPerSegment)
		if err != nil {
			return nil, newAllocationError(i, nBucketsPerSegment, err)
		}
		segs[i] = s
	}
	t.segs.Store(&tableSegments[K, V]{
		segs:     segs,
		segShift: uint(64 - bits.TrailingZeros32(nSegments)),
	})

	t.logger.Info("hopscotch table created",
		zap.Uint32("n_segments", nSegments),
		zap.Uint32("n_buckets_per_segment", nBucketsPerSegment),
		zap.Uint32("hop_range", hopRange),
		zap.Uint32("add_range", addRange),
		zap.Uint32("max_tries", maxTries),
	)
	return t, nil
}

// Put inserts key/value into the table if key is not already present. It is
// a no-op, not an error, if key is already present — this table follows
// insert-or-ignore semantics; callers wanting replace semantics should
// Remove then Put.
func (t *Table[K, V]) Put(key K, value V) error {
	h := t.hash(key)

	for attempt := 0; ; {
		gen := t.segs.Load()
		seg, homeIdx := gen.locate(h)

		seg.mu.Lock()
		if t.segs.Load() != gen {
			// A resize published a newer generation while this Put waited
			// for the lock; seg is no longer part of the table.
			seg.mu.Unlock()
			continue
		}
		inserted := t.putLocked(seg, homeIdx, h, key, value)
		seg.mu.Unlock()

		if inserted {
			// Either newly inserted, or already present (insert-or-ignore).
			t.metrics.observePut()
			return nil
		}

		if attempt >= t.maxResizes {
			return ErrResizeExhausted
		}
		attempt++
		if err := t.resize(gen); err != nil {
			return err
		}
	}
}

// putLocked implements one attempt at inserting (h, key, value) into seg.
// The caller must hold seg.mu. It returns false only if no room could be
// found for the key and the caller must resize and retry; a true result
// covers both a fresh insertion and an already-present key
// (insert-or-ignore).
func (t *Table[K, V]) putLocked(seg *segment[K, V], homeIdx, h uint64, key K, value V) bool {
	if _, _, found := probeNeighborhood(seg, homeIdx, h); found {
		return true
	}

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

	cascadeLen := 0
	for {
		distance := seg.wrap(freeIdx - homeIdx)
		if distance < uint64(t.hopRange) {
			seg.bucketAt(freeIdx).occupy(h, key, value)
			seg.bucketAt(homeIdx).setHop(uint32(distance))
			seg.count.Inc()
			t.metrics.observeDisplacement(cascadeLen)
			t.recordDisplacement(cascadeLen)
			return true
		}

		newFree, ok := displace(seg, freeIdx, t.hopRange)
		if !ok {
			t.logger.Warn("hopscotch displacement cascade exhausted",
				zap.Int("cascade_len", cascadeLen),
			)
			return false
		}
		freeIdx = newFree
		cascadeLen++
	}
}

// Get retrieves the value stored for key. It never blocks in the steady
// state: it reads the home segment's timestamp, probes the neighborhood
// without taking any lock, and — only if the neighborhood search came up
// empty and the timestamp changed underneath it, meaning a displacement
// swap might have moved the key out from under the probe — retries, up to
// maxTries times.
func (t *Table[K, V]) Get(key K) (V, bool) {
	h := t.hash(key)
	gen := t.segs.Load()
	seg, homeIdx := gen.locate(h)

	var zero V
	for try := uint32(0); ; try++ {
		ts0 := seg.timestamp.Load()

		if _, e, found := probeNeighborhood(seg, homeIdx, h); found {
			t.metrics.observeGetHit()
			return e.value, true
		}

		ts1 := seg.timestamp.Load()
		if ts1 == ts0 || try >= t.maxTries {
			t.metrics.observeGetMiss()
			return zero, false
		}
		t.metrics.observeGetRetry()
	}
}

// Remove deletes key from the table if present, returning its prior value.
// It takes the home segment's lock; unlike a displacement swap, removing an
// entry never needs to bump the segment timestamp, because clearing a
// bucket cannot cause a concurrent Get to miss a key that is still present
// elsewhere in the neighborhood.
func (t *Table[K, V]) Remove(key K) (V, bool) {
	h := t.hash(key)
	gen := t.segs.Load()
	seg, homeIdx := gen.locate(h)

	seg.mu.Lock()
	if t.segs.Load() != gen {
		// A resize published a newer generation while this Remove waited
		// for the lock; seg is no longer part of the table.
		seg.mu.Unlock()
		return t.Remove(key)
	}
	defer seg.mu.Unlock()

	idx, e, found := probeNeighborhood(seg, homeIdx, h)
	t.metrics.observeRemove()
	if !found {
		var zero V
		return zero, false
	}

	seg.bucketAt(idx).clear()
	seg.bucketAt(homeIdx).clearHop(uint32(seg.wrap(idx - homeIdx)))
	seg.count.Dec()
	return e.value, true
}

// Len returns the number of entries currently stored in the table.
func (t *Table[K, V]) Len() int {
	gen := t.segs.Load()
	var n int64
	for _, seg := range gen.segs {
		n += seg.count.Load()
	}
	return int(n)
}

// Cap returns the total number of buckets across all segments.
func (t *Table[K, V]) Cap() int {
	gen := t.segs.Load()
	if gen == nil {
		return 0
	}
	var n int
	for _, seg := range gen.segs {
		n += int(seg.nBuckets())
	}
	return n
}

// LoadFactor returns Len()/Cap(), or 0 for an empty table with zero
// capacity (which cannot happen for a table constructed by New, but is
// guarded against for safety after Dispose).
func (t *Table[K, V]) LoadFactor() float64 {
	capacity := t.Cap()
	if capacity == 0 {
		return 0
	}
	return float64(t.Len()) / float64(capacity)
}

// All calls yield once for every (key, value) currently in the table, in
// unspecified order. Each segment is visited under its own lock so that a
// concurrent displacement cannot be observed half-applied, but the table as
// a whole is not locked, so entries inserted or removed by other goroutines
// during the call may or may not be visible to it. If yield returns false,
// All stops iterating and returns immediately.
func (t *Table[K, V]) All(yield func(key K, value V) bool) {
	gen := t.segs.Load()
	for _, seg := range gen.segs {
		if !t.allInSegment(seg, yield) {
			return
		}
	}
}

func (t *Table[K, V]) allInSegment(seg *segment[K, V], yield func(key K, value V) bool) bool {
	seg.mu.Lock()
	defer seg.mu.Unlock()
	for i := range seg.buckets {
		e := seg.buckets[i].ent.Load()
		if e == nil {
			continue
		}
		if !yield(e.key, e.value) {
			return false
		}
	}
	return true
}

// Dispose tears down the table. The caller must guarantee there are no
// concurrent operations in flight; Dispose does not itself synchronize
// against them. It is safe to call Dispose more than once.
func (t *Table[K, V]) Dispose() {
	gen := t.segs.Swap(nil)
	if gen == nil {
		return
	}
	for _, seg := range gen.segs {
		t.allocator.FreeBuckets(seg.buckets)
	}
	t.logger.Info("hopscotch table disposed")
}

func (t *Table[K, V]) recordDisplacement(n int) {
	for {
		cur := t.maxDisplacement.Load()
		if int64(n) <= cur || t.maxDisplacement.CAS(cur, int64(n)) {
			return
		}
	}
}
