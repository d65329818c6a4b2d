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
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// tableConfig mirrors the structural parameters of hopscotch.New. Loading
// it from TOML lets a caller check in a config file describing a
// particular workload's table shape instead of repeating flags.
type tableConfig struct {
	Segments          uint32 `toml:"segments"`
	BucketsPerSegment uint32 `toml:"buckets_per_segment"`
	HopRange          uint32 `toml:"hop_range"`
	AddRange          uint32 `toml:"add_range"`
	MaxTries          uint32 `toml:"max_tries"`
}

func defaultTableConfig() tableConfig {
	return tableConfig{
		Segments:          16,
		BucketsPerSegment: 64,
		HopRange:          8,
		AddRange:          16,
		MaxTries:          32,
	}
}

// loadTableConfig starts from the defaults and overlays a TOML file if
// path is non-empty.
func loadTableConfig(path string) (tableConfig, error) {
	cfg := defaultTableConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return tableConfig{}, errors.Wrapf(err, "loading config %q", path)
	}
	return cfg, nil
}
