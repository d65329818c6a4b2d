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

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a bundle of Prometheus collectors a Table reports its
// operations against. Attach one with WithMetrics; a Table with no
// attached Metrics uses an internal no-op implementation so the hot path
// never has to branch on a nil pointer.
type Metrics struct {
	puts               prometheus.Counter
	getHits            prometheus.Counter
	getMisses          prometheus.Counter
	getRetries         prometheus.Counter
	removes            prometheus.Counter
	resizes            prometheus.Counter
	displacementLength prometheus.Histogram
}

// NewMetrics constructs a Metrics bundle and registers its collectors with
// reg. Passing prometheus.NewRegistry() gives the caller an isolated
// registry suitable for tests; passing prometheus.DefaultRegisterer wires
// the table into a process's default /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "puts_total",
			Help:      "Total number of Put calls that returned without error, including no-op inserts of already-present keys.",
		}),
		getHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "gets_total",
			ConstLabels: prometheus.Labels{
				"result": "hit",
			},
			Help: "Total number of Get calls that found the key.",
		}),
		getMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "gets_total",
			ConstLabels: prometheus.Labels{
				"result": "miss",
			},
			Help: "Total number of Get calls that did not find the key.",
		}),
		getRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "get_retries_total",
			Help:      "Total number of times Get restarted its probe after observing a segment timestamp change.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "removes_total",
			Help:      "Total number of Remove calls, including no-op removals of absent keys.",
		}),
		resizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopscotch",
			Name:      "resizes_total",
			Help:      "Total number of completed resizes; each at least doubles the segment count.",
		}),
		displacementLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hopscotch",
			Name:      "displacement_cascade_length",
			Help:      "Number of swaps performed by a single insertion's displacement cascade.",
			Buckets:   prometheus.LinearBuckets(0, 1, 16),
		}),
	}
	reg.MustRegister(m.puts, m.getHits, m.getMisses, m.getRetries, m.removes, m.resizes, m.displacementLength)
	return m
}

// noopMetrics satisfies the same call sites as *Metrics without requiring
// nil checks at every call site.
type noopMetrics struct{}

func (noopMetrics) observePut()               {}
func (noopMetrics) observeGetHit()            {}
func (noopMetrics) observeGetMiss()           {}
func (noopMetrics) observeGetRetry()          {}
func (noopMetrics) observeRemove()            {}
func (noopMetrics) observeResize()            {}
func (noopMetrics) observeDisplacement(n int) {}

type tableMetrics interface {
	observePut()
	observeGetHit()
	observeGetMiss()
	observeGetRetry()
	observeRemove()
	observeResize()
	observeDisplacement(n int)
}

func (m *Metrics) observePut()      { m.puts.Inc() }
func (m *Metrics) observeGetHit()   { m.getHits.Inc() }
func (m *Metrics) observeGetMiss()  { m.getMisses.Inc() }
func (m *Metrics) observeGetRetry() { m.getRetries.Inc() }
func (m *Metrics) observeRemove()   { m.removes.Inc() }
func (m *Metrics) observeResize()   { m.resizes.Inc() }
func (m *Metrics) observeDisplacement(n int) {
	m.displacementLength.Observe(float64(n))
}
