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

	"github.com/cockroachlabs/hopscotch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func createCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Resolve table parameters from the defaults and config file, and build a table to validate them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTableConfig(configPath)
			if err != nil {
				return err
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			tbl, err := hopscotch.New[string, string](
				cfg.Segments, cfg.BucketsPerSegment, cfg.HopRange, cfg.AddRange, cfg.MaxTries,
				hopscotch.WithLogger[string, string](logger),
			)
			if err != nil {
				return err
			}
			defer tbl.Dispose()

			fmt.Printf("segments=%d buckets_per_segment=%d hop_range=%d add_range=%d max_tries=%d capacity=%d\n",
				cfg.Segments, cfg.BucketsPerSegment, cfg.HopRange, cfg.AddRange, cfg.MaxTries, tbl.Cap())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	return cmd
}
