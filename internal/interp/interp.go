// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interp implements a direct tree-walking evaluator over
// internal/ir, used only by tests as the other half of the
// "compiler round-trip" property (spec §8): for a representative
// program, running it through internal/codegen's generated machine
// code and running it through this package must produce the same
// observable effects. It shares internal/runtimehelpers' functions
// for every operation that package already implements, so the two
// evaluators can only disagree about the mechanics of compiling an
// opcode, never about that opcode's arithmetic semantics.
package interp

import (
	"math"
	"math/rand"

	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/runtimehelpers"
	"github.com/hatrun/stagejit/internal/thread"
	"github.com/hatrun/stagejit/internal/value"
)

// Interp walks one script's IR to completion against a shared variable
// heap and an injected renderer/scheduler pair, mirroring the effects
// of a compiled thread.CompiledFunc. It never stops at a pause point:
// screen-refresh blocks are no-ops and custom-block calls are ticked
// until they terminate.
type Interp struct {
	Heap      []value.Value // process-wide variable heap, shared across calls (spec §9)
	Renderer  thread.Renderer
	Scheduler thread.Scheduler
	Rand      func() float64 // defaults to rand.Float64 if nil

	args []value.Value // current custom-block invocation's argument slots
}

// stop is the internal control-flow signal OpStopScript raises to
// unwind out of an arbitrarily nested statement walk without every
// caller needing to check a sentinel return value.
type stop struct{}

// Run evaluates body (a script or custom-block's top-level OpSeq) to
// completion. args supplies OpArgRead's slots for a custom-block body;
// pass nil for a top-level script.
func (in *Interp) Run(body *ir.Block, args []value.Value) {
	in.args = args
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stop); ok {
				return
			}
			panic(r)
		}
	}()
	in.exec(body)
}

func (in *Interp) randFloat() float64 {
	if in.Rand != nil {
		return in.Rand()
	}
	return rand.Float64()
}

func (in *Interp) exec(b *ir.Block) {
	switch b.Op {
	case ir.OpSeq:
		for _, s := range b.Inputs {
			in.exec(s)
		}

	case ir.OpVarSet:
		v := in.eval(b.Inputs[0])
		in.Heap[b.Var] = v

	case ir.OpVarChange:
		delta := in.eval(b.Inputs[0]).ToNumber()
		cur := in.Heap[b.Var].ToNumber()
		in.Heap[b.Var] = value.Number(runtimehelpers.SanitizeArithInput(cur) + runtimehelpers.SanitizeArithInput(delta))

	case ir.OpMotionGoTo:
		x := in.eval(b.Inputs[0]).ToNumber()
		y := in.eval(b.Inputs[1]).ToNumber()
		in.Renderer.GoTo(in.spriteID(), x, y)

	case ir.OpMotionSetX:
		in.Renderer.SetX(in.spriteID(), in.eval(b.Inputs[0]).ToNumber())
	case ir.OpMotionSetY:
		in.Renderer.SetY(in.spriteID(), in.eval(b.Inputs[0]).ToNumber())
	case ir.OpMotionChangeX:
		in.Renderer.ChangeX(in.spriteID(), in.eval(b.Inputs[0]).ToNumber())
	case ir.OpMotionChangeY:
		in.Renderer.ChangeY(in.spriteID(), in.eval(b.Inputs[0]).ToNumber())

	case ir.OpControlIf:
		if in.eval(b.Inputs[0]).ToBool() {
			in.exec(b.Inputs[1])
		}

	case ir.OpControlIfElse:
		if in.eval(b.Inputs[0]).ToBool() {
			in.exec(b.Inputs[1])
		} else {
			in.exec(b.Inputs[2])
		}

	case ir.OpControlRepeat:
		n := int64(in.eval(b.Inputs[0]).ToNumber())
		for i := int64(0); i < n; i++ {
			in.exec(b.Inputs[1])
		}

	case ir.OpControlRepeatUntil:
		for !in.eval(b.Inputs[0]).ToBool() {
			in.exec(b.Inputs[1])
		}

	case ir.OpScreenRefresh:
		// The interpreter runs a script to completion in one call; a
		// screen-refresh yield point has no observable effect here since
		// there is no concurrent thread for it to interleave with.

	case ir.OpStopScript:
		panic(stop{})

	case ir.OpCallNonPausable, ir.OpCallPausable:
		in.evalCall(b)

	default:
		in.eval(b)
	}
}

func (in *Interp) spriteID() int {
	// The interpreter is always invoked for one sprite at a time by its
	// caller (interp_test.go), so sprite identity is carried externally
	// via the Renderer's own bookkeeping rather than through execctx,
	// which compiled code alone depends on.
	return 0
}

func (in *Interp) eval(b *ir.Block) value.Value {
	switch b.Op {
	case ir.OpLiteralNumber:
		return value.Number(b.Num)
	case ir.OpLiteralString:
		return value.String(b.Str)
	case ir.OpLiteralBool:
		return value.Bool(b.Bl)

	case ir.OpVarRead:
		return runtimehelpers.VarRead(in.Heap[b.Var])

	case ir.OpArgRead:
		if int(b.Var) >= len(in.args) {
			return value.Value{}
		}
		return in.args[b.Var]

	case ir.OpAdd:
		return in.arith(b, func(a, c float64) float64 { return a + c })
	case ir.OpSub:
		return in.arith(b, func(a, c float64) float64 { return a - c })
	case ir.OpMul:
		return in.arith(b, func(a, c float64) float64 { return a * c })
	case ir.OpDiv:
		return in.arith(b, func(a, c float64) float64 { return a / c })
	case ir.OpMod:
		return in.arith(b, runtimehelpers.Mod)

	case ir.OpMathUnary:
		return value.Number(in.mathUnary(ir.MathFn(b.Aux), in.eval(b.Inputs[0]).ToNumber()))

	case ir.OpRandom:
		lo := in.eval(b.Inputs[0]).ToNumber()
		hi := in.eval(b.Inputs[1]).ToNumber()
		return value.Number(runtimehelpers.Random(lo, hi, in.randFloat))

	case ir.OpStringJoin:
		a, c := in.eval(b.Inputs[0]), in.eval(b.Inputs[1])
		return runtimehelpers.OpStrJoin(a, c, true, true)

	case ir.OpStringLetterOf:
		idx, s := in.eval(b.Inputs[0]), in.eval(b.Inputs[1])
		return runtimehelpers.OpStrLetterOf(idx, s, true)

	case ir.OpStringLen:
		return value.Number(float64(runtimehelpers.OpStrLen(in.eval(b.Inputs[0]), true)))

	case ir.OpStringContains:
		s, needle := in.eval(b.Inputs[0]), in.eval(b.Inputs[1])
		return value.Bool(runtimehelpers.OpStrContains(s, needle, true, true))

	case ir.OpEquals:
		l, r := in.eval(b.Inputs[0]), in.eval(b.Inputs[1])
		if l.Kind == value.KindNumber && r.Kind == value.KindNumber {
			return value.Bool(l.Num == r.Num)
		}
		return value.Bool(l.ToStringValue() == r.ToStringValue())
	case ir.OpLess:
		return value.Bool(in.eval(b.Inputs[0]).ToNumber() < in.eval(b.Inputs[1]).ToNumber())
	case ir.OpGreater:
		return value.Bool(in.eval(b.Inputs[0]).ToNumber() > in.eval(b.Inputs[1]).ToNumber())
	case ir.OpAnd:
		return value.Bool(in.eval(b.Inputs[0]).ToBool() && in.eval(b.Inputs[1]).ToBool())
	case ir.OpOr:
		return value.Bool(in.eval(b.Inputs[0]).ToBool() || in.eval(b.Inputs[1]).ToBool())
	case ir.OpNot:
		return value.Bool(!in.eval(b.Inputs[0]).ToBool())

	case ir.OpMotionGetX:
		return value.Number(in.Renderer.GetX(in.spriteID()))
	case ir.OpMotionGetY:
		return value.Number(in.Renderer.GetY(in.spriteID()))

	case ir.OpCallNonPausable, ir.OpCallPausable:
		return in.evalCall(b)
	}
	return value.Value{}
}

func (in *Interp) arith(b *ir.Block, fn func(a, c float64) float64) value.Value {
	a := runtimehelpers.SanitizeArithInput(in.eval(b.Inputs[0]).ToNumber())
	c := runtimehelpers.SanitizeArithInput(in.eval(b.Inputs[1]).ToNumber())
	return value.Number(fn(a, c))
}

func (in *Interp) mathUnary(fn ir.MathFn, x float64) float64 {
	switch fn {
	case ir.MathAbs:
		if x < 0 {
			return -x
		}
		return x
	case ir.MathSqrt:
		return math.Sqrt(x)
	case ir.MathFloor:
		return math.Floor(x)
	case ir.MathCeil:
		return math.Ceil(x)
	}
	return x
}

// evalCall invokes a custom block through the injected scheduler, the
// same Scheduler interface compiled code's runtime helpers use, so a
// custom-block call behaves identically whether it was reached from
// JIT-compiled code or from this interpreter.
func (in *Interp) evalCall(b *ir.Block) value.Value {
	args := make([]value.Value, len(b.Inputs))
	for i, a := range b.Inputs {
		args[i] = in.eval(a)
	}
	isPausable := b.Op == ir.OpCallPausable
	child := in.Scheduler.InvokeCustomBlock(b.Aux, args, isPausable)
	for !child.Terminated() {
		child.Tick(in.Scheduler, in.Renderer)
	}
	return value.Value{}
}
