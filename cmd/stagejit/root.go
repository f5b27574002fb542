// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagMetricsAddr string
	flagCPUProfile  string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stagejit",
		Short:         "JIT compiler and runtime for block programs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	fs := root.PersistentFlags()
	fs.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	fs.StringVar(&flagLogLevel, "log-level", "info", "zap log level (debug, info, warn, error)")
	fs.StringVar(&flagMetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, empty to disable")
	fs.StringVar(&flagCPUProfile, "cpuprofile", "", "write a scheduler-tick CPU profile to this path")

	root.AddCommand(newRunCmd())
	root.AddCommand(newDisasmCmd())
	return root
}

// newLogger builds the zap.Logger every subcommand shares, honoring
// -log-level and a config file's logLevel as a fallback default.
func newLogger(cfg config, explicitFlag *pflag.Flag) (*zap.Logger, error) {
	level := flagLogLevel
	if !explicitFlag.Changed && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	var zl zapcore.Level
	if err := zl.Set(level); err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
