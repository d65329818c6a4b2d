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

import "math/bits"

// displace attempts to move a free bucket closer to home. freeIdx is an
// absolute (already-wrapped) ring index naming a currently empty bucket
// whose distance from its target home is >= hopRange (a smaller distance
// would have been handled directly by the caller without displacement).
// The caller must hold the segment's lock.
//
// On success it returns the index of a new empty bucket strictly closer to
// home than freeIdx was, and true. If no entry within range can be moved,
// it returns false and the caller must resize. displace has no notion of
// which home it is ultimately serving — it only ever shortens the distance
// from freeIdx to whatever bucket ends up owning the vacated slot next —
// so the caller re-checks the distance to its own home after each call.
func displace[K comparable, V any](s *segment[K, V], freeIdx uint64, hopRange uint32) (uint64, bool) {
	candIdx := s.wrap(freeIdx - uint64(hopRange-1))

	for window := hopRange - 1; window >= 1; window-- {
		cand := s.bucketAt(candIdx)
		info := cand.hopInfo.Load()

		// Bits 1..window-1 of info name buckets whose entries can move to
		// window without leaving cand's neighborhood; the lowest such bit
		// shortens the remaining distance to home the most.
		inRange := uint32(1)<<window - 1 // bits 0..window-1
		inRange &^= 1                    // bit 0 is cand itself, never a candidate
		candidates := info & inRange

		if candidates != 0 {
			j := uint32(bits.TrailingZeros32(candidates))
			moveIdx := s.wrap(candIdx + uint64(j))
			move := s.bucketAt(moveIdx)
			free := s.bucketAt(freeIdx)

			cand.setHop(window)
			free.ent.Store(move.ent.Load())
			cand.clearHop(j)
			move.clear()
			s.timestamp.Inc()

			return moveIdx, true
		}

		candIdx = s.wrap(candIdx + 1)
	}

	return 0, false
}
