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
	"github.com/cespare/xxhash/v2"
	"github.com/dolthub/maphash"
)

// hashReservedRemap is the value substituted for a hash that would
// otherwise compute to the reserved "empty" sentinel of 0. It is an
// arbitrary odd constant; any process-deterministic nonzero value works.
const hashReservedRemap uint64 = 0x9e3779b97f4a7c15

// HashFunc computes a deterministic, process-stable hash for a key. It must
// never return 0; New wraps any HashFunc supplied via WithHash so that a
// literal zero result is remapped to hashReservedRemap, matching the "hkey
// == 0 means empty" convention used throughout the bucket layout.
type HashFunc[K comparable] func(key K) uint64

// defaultHash returns the table's default hash adapter. It is backed by
// maphash.Hasher, which wraps the runtime's built-in hash for comparable
// types (the same one map[K]V uses internally) behind a stable, exported
// API, so callers of New need not supply a hash function for ordinary key
// types.
func defaultHash[K comparable]() HashFunc[K] {
	hasher := maphash.NewHasher[K]()
	return func(key K) uint64 {
		return hasher.Hash(key)
	}
}

// withReservedRemap wraps a HashFunc so that it never returns the reserved
// empty sentinel.
func withReservedRemap[K comparable](hash HashFunc[K]) HashFunc[K] {
	return func(key K) uint64 {
		h := hash(key)
		if h == 0 {
			return hashReservedRemap
		}
		return h
	}
}

// StringHash is a HashFunc for string keys backed by xxhash, useful with
// WithHash when a caller wants a faster or more collision-resistant hash
// than the runtime default for large string keys.
func StringHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// BytesHash is a HashFunc for []byte keys backed by xxhash.
func BytesHash(key []byte) uint64 {
	return xxhash.Sum64(key)
}
