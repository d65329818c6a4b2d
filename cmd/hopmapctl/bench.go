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

package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/cockroachlabs/hopscotch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func benchCommand() *cobra.Command {
	var configPath string
	var ops int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic put/get/remove workload and report table stats and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTableConfig(configPath)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metrics := hopscotch.NewMetrics(reg)

			tbl, err := hopscotch.New[string, int](
				cfg.Segments, cfg.BucketsPerSegment, cfg.HopRange, cfg.AddRange, cfg.MaxTries,
				hopscotch.WithMetrics[string, int](metrics),
			)
			if err != nil {
				return err
			}
			defer tbl.Dispose()

			start := time.Now()
			present := make(map[string]bool)
			for i := 0; i < ops; i++ {
				k := strconv.Itoa(rand.Intn(ops / 4))
				switch {
				case !present[k]:
					if err := tbl.Put(k, i); err == nil {
						present[k] = true
					}
				case rand.Float64() < 0.3:
					tbl.Remove(k)
					present[k] = false
				default:
					tbl.Get(k)
				}
			}
			elapsed := time.Since(start)

			stats := tbl.Stats()
			metricFamilies, err := reg.Gather()
			if err != nil {
				return err
			}

			fmt.Printf("ops=%d elapsed=%s ops/sec=%.0f\n", ops, elapsed, float64(ops)/elapsed.Seconds())
			fmt.Printf("segments=%d entries=%d resizes=%d max_displacement=%d load_factor=%.3f\n",
				stats.Segments, stats.Entries, stats.Resizes, stats.MaxDisplacementLen, tbl.LoadFactor())
			for _, mf := range metricFamilies {
				for _, m := range mf.GetMetric() {
					name := mf.GetName()
					for _, lp := range m.GetLabel() {
						name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
					}
					if h := m.GetHistogram(); h != nil {
						fmt.Printf("metric %s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
						continue
					}
					fmt.Printf("metric %s %g\n", name, m.GetCounter().GetValue())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().IntVar(&ops, "ops", 100000, "number of operations to perform")
	return cmd
}
