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

// probeNeighborhood scans the neighborhood of home for a bucket holding
// hkey h, visiting only the offsets home's hopInfo bitmap claims are
// occupied. It returns the matching bucket's ring index and entry; found is
// false if none of the visited offsets held h.
//
// This is safe to call without the segment lock (Get does exactly that): a
// bit observed set may point at a bucket that has since been vacated or now
// holds a different key (simply skipped, since the hkey compare will
// fail), and a bit observed clear may belong to a key that is present but
// mid-displacement (Get's timestamp fence exists to catch that case, not
// this function).
func probeNeighborhood[K comparable, V any](s *segment[K, V], homeIdx uint64, h uint64) (idx uint64, e *entry[K, V], found bool) {
	home := s.bucketAt(homeIdx)
	info := home.hopInfo.Load()
	offset := homeIdx
	for info != 0 {
		if info&1 != 0 {
			if cand := s.bucketAt(offset).ent.Load(); cand != nil && cand.hkey == h {
				return s.wrap(offset), cand, true
			}
		}
		info >>= 1
		offset++
	}
	return 0, nil, false
}
