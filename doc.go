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

// Package hopscotch is a Go implementation of concurrent Hopscotch hashing as
// described in Herlihy, Shavit and Tzafrir, "Hopscotch Hashing" (2008). See
// also the original paper's reference C implementation, which this package's
// segment/bucket/displacement terminology follows.
//
// # Hopscotch hashing
//
// Hopscotch tables are open-addressed hash tables where every key is
// guaranteed to live within a small, fixed "neighborhood" of buckets
// starting at its home bucket (the bucket its hash maps to directly). Each
// bucket carries a bitmap, hopInfo, recording which of the neighborhood's
// buckets are occupied by an entry whose home is this bucket. A lookup reads
// the home bucket's bitmap once and visits only the (few) neighbors the
// bitmap says are occupied, rather than probing linearly until it hits an
// empty slot the way classic open addressing does. This is the scheme's
// central performance claim: lookups touch O(1) cache lines regardless of
// load factor, as long as the neighborhood fits in one or two cache lines.
//
// Insertion may have to work harder than lookup. If the home bucket's
// neighborhood is full but an empty bucket exists slightly further away, the
// displacement engine walks backward from the empty bucket, hunting for an
// occupied bucket it can vacate by moving its entry into the empty slot
// without leaving that entry's own neighborhood. Each such swap shrinks the distance between the empty bucket
// and the original home bucket; repeating it drags the empty bucket into
// the neighborhood, at which point insertion completes as normal. If no
// swap chain manages to do this, the table is resized.
//
// # Concurrency
//
// This package shards the table into a fixed number of segments, each with
// its own mutex; a key's top hash bits select its segment, so puts and
// removes only ever contend with other operations on the same segment.
// Reads never take a lock. Instead a Get reads a per-segment timestamp
// before and after probing; if a displacement swap ran concurrently (which
// bumps the timestamp) and the read is inconclusive, Get retries up to a
// configurable bound. See Table.Get for the precise protocol.
//
// # Performance
//
// The scheme trades slightly more expensive inserts (occasional
// displacement chains, occasional table-wide resizes) for lookups that are
// close to optimal for a read-heavy workload: a handful of atomic loads and
// at most popcount(hopInfo) key comparisons, no locking, no probe-sequence
// wandering through the table.
package hopscotch
