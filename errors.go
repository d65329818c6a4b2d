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

import "github.com/cockroachdb/errors"

// ErrMisconfigured is returned by New when the constructor parameters
// violate one of the table's structural requirements (power-of-two sizes,
// HOP_RANGE <= ADD_RANGE, HOP_RANGE within the bitmap word width).
var ErrMisconfigured = errors.New("hopscotch: misconfigured table")

// ErrAllocation is returned when the configured Allocator fails to produce
// a bucket ring during construction or resize. The table is left in its
// prior consistent state.
var ErrAllocation = errors.New("hopscotch: allocation failure")

// ErrResizeExhausted is returned by Put when the table has been resized
// MaxResizes times in service of a single insertion and is still unable to
// place the entry, or when a single resize cannot fit the existing entries
// even after MaxResizes further doublings. This is fatal for the triggering
// operation; the table itself remains usable.
var ErrResizeExhausted = errors.New("hopscotch: resize budget exhausted")

// newMisconfigured wraps ErrMisconfigured with a formatted reason so
// construction failures are diagnosable without a debugger.
func newMisconfigured(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMisconfigured, format, args...)
}

// newAllocationError wraps ErrAllocation with the segment and requested
// capacity that failed to allocate.
func newAllocationError(segment int, capacity uint32, cause error) error {
	return errors.Wrapf(ErrAllocation, "segment %d: allocating %d buckets: %v", segment, capacity, cause)
}
