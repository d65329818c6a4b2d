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

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs/hopscotch"
	"github.com/spf13/cobra"
)

// scenario is one of the concrete scenarios named S1-S6: it builds a table
// with the scenario's parameters and returns an error describing the first
// assertion that failed, or nil if every assertion held.
type scenario struct {
	name string
	run  func() error
}

func identityHash() hopscotch.HashFunc[int] {
	return func(key int) uint64 { return uint64(key) }
}

func newScenarioTable() (*hopscotch.Table[int, string], error) {
	return hopscotch.New[int, string](2, 16, 4, 8, 4, hopscotch.WithHash[int, string](identityHash()))
}

var scenarios = []scenario{
	{"S1", func() error {
		tbl, err := newScenarioTable()
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		if err := tbl.Put(1, "a"); err != nil {
			return err
		}
		if v, ok := tbl.Get(1); !ok || v != "a" {
			return errors.Newf("get(1) = %q, %v, want \"a\", true", v, ok)
		}
		if v, ok := tbl.Remove(1); !ok || v != "a" {
			return errors.Newf("remove(1) = %q, %v, want \"a\", true", v, ok)
		}
		if _, ok := tbl.Get(1); ok {
			return errors.New("get(1) after remove found a value, want absent")
		}
		return nil
	}},
	{"S2", func() error {
		tbl, err := newScenarioTable()
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		if err := tbl.Put(1, "a"); err != nil {
			return err
		}
		if err := tbl.Put(17, "b"); err != nil {
			return err
		}
		if v, ok := tbl.Get(1); !ok || v != "a" {
			return errors.Newf("get(1) = %q, %v, want \"a\", true", v, ok)
		}
		if v, ok := tbl.Get(17); !ok || v != "b" {
			return errors.Newf("get(17) = %q, %v, want \"b\", true", v, ok)
		}
		return nil
	}},
	{"S3", func() error {
		tbl, err := newScenarioTable()
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		for _, k := range []int{1, 17, 33, 49} {
			if err := tbl.Put(k, "x"); err != nil {
				return err
			}
		}
		if err := tbl.Put(65, "e"); err != nil {
			return err
		}
		for _, k := range []int{1, 17, 33, 49, 65} {
			if _, ok := tbl.Get(k); !ok {
				return errors.Newf("get(%d) not found after inserting a fifth key with the same home", k)
			}
		}
		return nil
	}},
	{"S4", func() error {
		tbl, err := newScenarioTable()
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		if err := tbl.Put(1, "a"); err != nil {
			return err
		}
		if err := tbl.Put(1, "b"); err != nil {
			return err
		}
		if v, ok := tbl.Get(1); !ok || v != "a" {
			return errors.Newf("get(1) = %q, %v, want \"a\", true (insert-or-ignore)", v, ok)
		}
		return nil
	}},
	{"S5", func() error {
		tbl, err := hopscotch.New[int, int](4, 256, 8, 16, 16)
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		const perWorker = 10000
		done := make(chan error, 2)
		go func() {
			for i := 0; i < perWorker; i++ {
				if err := tbl.Put(i, i); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
		go func() {
			for i := perWorker; i < 2*perWorker; i++ {
				if err := tbl.Put(i, i); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
		for i := 0; i < 2; i++ {
			if err := <-done; err != nil {
				return err
			}
		}
		if got, want := tbl.Len(), 2*perWorker; got != want {
			return errors.Newf("len = %d, want %d", got, want)
		}
		return nil
	}},
	{"S6", func() error {
		tbl, err := hopscotch.New[int, string](1, 16, 4, 8, 4, hopscotch.WithHash[int, string](identityHash()))
		if err != nil {
			return err
		}
		defer tbl.Dispose()

		var inserted []int
		for k := 0; k < 32; k++ {
			if err := tbl.Put(k, "v"); err != nil {
				break
			}
			inserted = append(inserted, k)
		}
		if tbl.Stats().Resizes == 0 {
			return errors.New("expected at least one resize while filling the table")
		}
		for _, k := range inserted {
			if _, ok := tbl.Get(k); !ok {
				return errors.Newf("get(%d) not found after resize", k)
			}
		}
		return nil
	}},
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the S1-S6 scripted scenarios against a live table and report pass/fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			var failures int
			for _, s := range scenarios {
				if err := s.run(); err != nil {
					fmt.Printf("FAIL %s: %v\n", s.name, err)
					failures++
					continue
				}
				fmt.Printf("PASS %s\n", s.name)
			}
			if failures > 0 {
				return errors.Newf("%d scenario(s) failed", failures)
			}
			return nil
		},
	}
}
