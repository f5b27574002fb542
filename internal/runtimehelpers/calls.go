// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimehelpers

import (
	"math/rand"
	"unsafe"

	"github.com/hatrun/stagejit/internal/execctx"
	"github.com/hatrun/stagejit/internal/thread"
	"github.com/hatrun/stagejit/internal/value"
)

// ABIMod is the stagejit.op_mod CALL target: p holds {a, b} in; the
// result replaces p[0] so the caller can reload it from the same
// pointer it passed in.
func ABIMod(p *[2]float64) {
	p[0] = Mod(p[0], p[1])
}

// ABIRandom is the stagejit.op_random CALL target.
func ABIRandom(p *[2]float64) {
	p[0] = Random(p[0], p[1], rand.Float64)
}

func currentRenderer() thread.Renderer {
	ctx := execctx.Current()
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Renderer.(thread.Renderer)
	return r
}

func currentScheduler() thread.Scheduler {
	ctx := execctx.Current()
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Scheduler.(thread.Scheduler)
	return s
}

func currentSpriteID() int {
	if ctx := execctx.Current(); ctx != nil {
		return ctx.SpriteID
	}
	return 0
}

// ABIRenderGoTo, ABIRenderSetX, ... are the stagejit.render.* CALL
// targets. Each reads its coordinate argument(s) from the pointer
// compiled code staged them at and forwards to the sprite id
// execctx.Current() names.
func ABIRenderGoTo(p *[2]float64) { currentRenderer().GoTo(currentSpriteID(), p[0], p[1]) }
func ABIRenderSetX(p *float64)    { currentRenderer().SetX(currentSpriteID(), *p) }
func ABIRenderSetY(p *float64)    { currentRenderer().SetY(currentSpriteID(), *p) }
func ABIRenderChangeX(p *float64) { currentRenderer().ChangeX(currentSpriteID(), *p) }
func ABIRenderChangeY(p *float64) { currentRenderer().ChangeY(currentSpriteID(), *p) }
func ABIRenderGetX(out *float64)  { *out = currentRenderer().GetX(currentSpriteID()) }
func ABIRenderGetY(out *float64)  { *out = currentRenderer().GetY(currentSpriteID()) }

// ABIStackPush and ABIStackPop are the stagejit.stack_push /
// stack_pop CALL targets, operating on the calling thread's loop-state
// stack. The stack pointer rides in a fixed register for the lifetime
// of the compiled function per the ABI table (spec §6); internal/codegen
// threads it straight through from its own incoming argument.
func ABIStackPush(stack *thread.LoopStateStack, v int64) {
	stack.Push(v)
}

func ABIStackPop(stack *thread.LoopStateStack) int64 {
	return stack.Pop()
}

// callEnded and callPaused mirror the two outcomes a custom-block call
// can report to the caller's dispatch logic (spec §4.E).
const (
	callEnded  = 0
	callPaused = 1
)

func decodeArgBuffer(base unsafe.Pointer, argc int64) []value.Value {
	args := make([]value.Value, argc)
	for i := int64(0); i < argc; i++ {
		p := (*[4]word)(unsafe.Pointer(uintptr(base) + uintptr(i)*4*8))
		args[i] = decodeValue(p)
	}
	return args
}

// ABICallNoScreenRefresh is the
// stagejit.custom_block.call_no_screen_refresh CALL target: id names
// the callee, argsBase/argc describe the marshalled argument buffer.
// A non-pausable callee always runs to completion before this
// returns, ticking it until it terminates.
func ABICallNoScreenRefresh(id int64, argsBase unsafe.Pointer, argc int64) {
	sched := currentScheduler()
	child := sched.InvokeCustomBlock(int(id), decodeArgBuffer(argsBase, argc), false)
	for !child.Terminated() {
		child.Tick(sched, currentRenderer())
	}
}

// ABICallScreenRefresh is the call_screen_refresh CALL target. It
// starts the callee and ticks it once; if the callee is still running
// afterward it reports callPaused so the caller's own lowering can
// yield in turn, holding the child thread for the next resume.
func ABICallScreenRefresh(id int64, argsBase unsafe.Pointer, argc int64) int64 {
	sched := currentScheduler()
	child := sched.InvokeCustomBlock(int(id), decodeArgBuffer(argsBase, argc), true)
	if child.Tick(sched, currentRenderer()) {
		return callEnded
	}
	return callPaused
}
