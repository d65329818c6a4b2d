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

// Command hopmapctl is a small driver for exercising a hopscotch.Table: it
// reads table parameters from an optional TOML config file (there are no
// per-parameter flags), and can print resolved parameters, run a synthetic
// put/get/remove workload, or run the package's scripted scenario tests
// against a live table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "hopmapctl",
		Short: "Exercise a hopscotch.Table from the command line",
	}
	root.AddCommand(createCommand())
	root.AddCommand(benchCommand())
	root.AddCommand(checkCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
