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

// TableStats is a point-in-time snapshot of a Table's shape and activity,
// intended for introspection (logging, /debug endpoints, the hopmapctl
// bench subcommand) rather than for driving control flow.
type TableStats struct {
	Segments           int
	BucketsPerSegment  int
	Entries            int
	Resizes            int64
	MaxDisplacementLen int64
}

// Stats returns a TableStats snapshot. It is not atomic across fields: the
// table may be concurrently mutated while the snapshot is assembled, so
// Entries in particular may not exactly match Len() called immediately
// after.
func (t *Table[K, V]) Stats() TableStats {
	gen := t.segs.Load()
	var entries int64
	for _, seg := range gen.segs {
		entries += seg.count.Load()
	}
	return TableStats{
		Segments:           len(gen.segs),
		BucketsPerSegment:  int(gen.segs[0].nBuckets()),
		Entries:            int(entries),
		Resizes:            t.resizes.Load(),
		MaxDisplacementLen: t.maxDisplacement.Load(),
	}
}
