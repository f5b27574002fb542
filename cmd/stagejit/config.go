// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// config is the on-disk settings file layered underneath CLI flags:
// any flag the user passes on the command line overrides the matching
// config field, but a config file lets a project pin its own defaults
// (log level, metrics address) without every invocation repeating them.
type config struct {
	LogLevel   string `yaml:"logLevel"`
	MetricsAddr string `yaml:"metricsAddr"`
	CPUProfile string `yaml:"cpuProfile"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}
