// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"archive/zip"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hatrun/stagejit/internal/engine"
	"github.com/hatrun/stagejit/internal/loader"
	"github.com/hatrun/stagejit/internal/render"
	"github.com/hatrun/stagejit/internal/scheduler"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <bundle.zip>",
		Short: "Load a project bundle and run its green-flag scripts to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.Flags().Lookup("log-level"))
	if err != nil {
		return err
	}
	defer log.Sync()

	metricsAddr := flagMetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	cpuProfile := flagCPUProfile
	if cpuProfile == "" {
		cpuProfile = cfg.CPUProfile
	}

	r, err := zip.OpenReader(args[0])
	if err != nil {
		return errors.Wrapf(err, "opening bundle %s", args[0])
	}
	defer r.Close()

	res, err := loader.Bundle(&r.Reader)
	if err != nil {
		return errors.Wrap(err, "loading bundle")
	}
	log.Info("loaded project",
		zap.Int("sprites", len(res.Project.Sprites)),
		zap.Int("customBlocks", len(res.Project.CustomBlocks)),
		zap.Int("vars", res.Project.NumVars),
		zap.Int("assets", len(res.Assets)),
	)

	spriteIDs := make([]int, len(res.Project.Sprites))
	for i := range res.Project.Sprites {
		spriteIDs[i] = i
	}
	renderer := render.New(spriteIDs)

	eng, err := engine.Build(res.Project, renderer, log)
	if err != nil {
		return errors.Wrap(err, "compiling project")
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		for _, c := range eng.Scheduler.Metrics() {
			reg.MustRegister(c)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", metricsAddr))
	}

	var profiler *scheduler.Profiler
	tick := eng.Tick
	if cpuProfile != "" {
		profiler = &scheduler.Profiler{}
		tick = profiler.Wrap(eng.Scheduler)
	}

	eng.RunGreenFlag(tick)

	if profiler != nil {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return errors.Wrapf(err, "creating cpu profile %s", cpuProfile)
		}
		defer f.Close()
		if err := profiler.WriteTo(f); err != nil {
			return errors.Wrap(err, "writing cpu profile")
		}
	}

	log.Info("run complete")
	return nil
}
