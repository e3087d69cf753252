// gf2-morse
// Copyright (c) 2025 The gf2-morse Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gf2-morse.
//
// gf2-morse is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gf2-morse is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gf2-morse; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config holds the settings of one run. Values come from the optional
// YAML file first and are then overridden by flags and arguments.
type config struct {
	Serial     string `yaml:"serial"`
	LogDir     string `yaml:"log_dir"`
	Debug      bool   `yaml:"debug"`
	SessionLog bool   `yaml:"session_log"`
}

// loadConfig reads a YAML config file. An empty path yields defaults.
func loadConfig(path string) (*config, error) {
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.LogDir != "" && !cfg.SessionLog {
		return nil, errors.New("log_dir is set but session_log is disabled")
	}
	return cfg, nil
}
