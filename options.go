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

import "go.uber.org/zap"

// Option provides an interface to do work on a Table while it is being
// created.
type Option[K comparable, V any] interface {
	apply(t *Table[K, V])
}

type hashOption[K comparable, V any] struct {
	hash HashFunc[K]
}

func (op hashOption[K, V]) apply(t *Table[K, V]) {
	t.hash = withReservedRemap(op.hash)
}

// WithHash overrides the table's default hash function. The supplied
// function need not avoid returning 0; New wraps it so a 0 result is
// remapped to the reserved-empty sentinel automatically.
func WithHash[K comparable, V any](hash HashFunc[K]) Option[K, V] {
	return hashOption[K, V]{hash}
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(t *Table[K, V]) {
	t.allocator = op.allocator
}

// WithAllocator overrides the Allocator used for a Table's segment bucket
// rings, both at construction and on every resize.
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}

type loggerOption[K comparable, V any] struct {
	logger *zap.Logger
}

func (op loggerOption[K, V]) apply(t *Table[K, V]) {
	t.logger = op.logger
}

// WithLogger attaches a structured logger. Construction, resize
// (attempted and completed doublings), and displacement-cascade exhaustion
// are logged at Info/Warn. A Table built without WithLogger uses
// zap.NewNop(), so logging is opt-in.
func WithLogger[K comparable, V any](logger *zap.Logger) Option[K, V] {
	return loggerOption[K, V]{logger}
}

type metricsOption[K comparable, V any] struct {
	metrics *Metrics
}

func (op metricsOption[K, V]) apply(t *Table[K, V]) {
	t.metrics = op.metrics
}

// WithMetrics attaches a Prometheus metrics bundle produced by NewMetrics.
func WithMetrics[K comparable, V any](metrics *Metrics) Option[K, V] {
	return metricsOption[K, V]{metrics}
}

type maxResizesOption[K comparable, V any] struct {
	n int
}

func (op maxResizesOption[K, V]) apply(t *Table[K, V]) {
	t.maxResizes = op.n
}

// WithMaxResizes bounds how many resizes a single Put may trigger while
// searching for room for one entry before giving up with
// ErrResizeExhausted. Each resize at least doubles the segment count, and
// a resize whose entries do not fit the doubled array doubles again, up to
// the same bound, before it too gives up with ErrResizeExhausted. The
// default is 32 — in practice the bound exists to fail fast on a
// pathological hash function rather than to constrain realistic workloads.
func WithMaxResizes[K comparable, V any](n int) Option[K, V] {
	return maxResizesOption[K, V]{n}
}
