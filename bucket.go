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

import "go.uber.org/atomic"

// entry holds the hashed key alongside the key and value stored by an
// occupied bucket. A bucket publishes a *entry through a single atomic
// pointer rather than storing hkey, K and V as separate fields, so that a
// lock-free Get sees either a fully-formed entry or none at all — never a
// bucket whose hkey field matches but whose key/value fields belong to a
// different, concurrently-installed entry.
type entry[K comparable, V any] struct {
	hkey  uint64
	key   K
	value V
}

// bucket is a single cell of a segment's ring. Its zero value is the empty
// bucket: hopInfo is 0, ent is nil.
//
// ent and hopInfo are read without the segment lock by Get (see Table.Get
// and probeNeighborhood), so every field a lock-free reader touches is a
// fixed-width atomic. Writers still serialize on the segment mutex; the
// atomics exist for publication safety towards readers, not for
// writer-writer exclusion.
type bucket[K comparable, V any] struct {
	// hopInfo is a HOP_RANGE-bit bitmap. Bit i means "the bucket at
	// offset i from this bucket (the bucket's home) holds an entry whose
	// home is this bucket".
	hopInfo atomic.Uint32
	// ent is nil when the bucket is empty, otherwise it points at an
	// immutable entry that is never mutated in place — a change of
	// occupant is always a pointer swap, so a reader that loads a non-nil
	// ent always sees a self-consistent (hkey, key, value) triple.
	ent atomic.Pointer[entry[K, V]]
}

// isEmpty reports whether the bucket currently holds no entry.
func (b *bucket[K, V]) isEmpty() bool {
	return b.ent.Load() == nil
}

// occupy fills an empty bucket with (h, key, value). The caller must hold
// the segment lock and must have already established that the bucket is
// empty.
func (b *bucket[K, V]) occupy(h uint64, key K, value V) {
	b.ent.Store(&entry[K, V]{hkey: h, key: key, value: value})
}

// clear empties an occupied bucket. The caller must hold the segment lock.
func (b *bucket[K, V]) clear() {
	b.ent.Store(nil)
}

// setHop sets bit i of hopInfo.
func (b *bucket[K, V]) setHop(i uint32) {
	for {
		old := b.hopInfo.Load()
		if b.hopInfo.CAS(old, old|(1<<i)) {
			return
		}
	}
}

// clearHop clears bit i of hopInfo.
func (b *bucket[K, V]) clearHop(i uint32) {
	for {
		old := b.hopInfo.Load()
		if b.hopInfo.CAS(old, old&^(1<<i)) {
			return
		}
	}
}
