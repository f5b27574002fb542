// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/hatrun/stagejit/internal/codegen/amd64"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/stackcache"
)

// handle is what expr lowering hands back to its caller: a typed
// location holding the expression's value. Number and Bool values
// live in a register for the rest of the enclosing statement's
// lowering; String (and Unknown) values are always materialised into
// the scratch object slot reserved at the top of the stack-cache
// region, and handle carries that slot's offset instead of a register.
type handle struct {
	typ      ir.VarTypeChecked
	reg      int16
	objSlot  int32
	isObject bool
}

// scratchObjectOffset is the stack-cache-region offset of the one
// scratch Value slot every function reserves beyond its tracked
// variables, used to stage String/Unknown intermediate results before
// they're stored to a variable or passed to a runtime helper.
func (f *Func) scratchObjectOffset() int32 {
	return f.argsRegionSize() + f.layout.Size()
}

// scratchBitsOffset is one word past the scratch object slot, used
// only to round-trip a GP register's bit pattern through memory into
// an XMM register (see bitsToFloat) without disturbing a Value being
// staged in the scratch slot at the same time.
func (f *Func) scratchBitsOffset() int32 {
	return f.scratchObjectOffset() + stackcache.SlotBytes
}

// maxCallArgs bounds the custom-block argument buffer the cache
// region reserves; a generous static bound avoids having to size the
// function's frame per call site.
const maxCallArgs = 16

// argBufferOffset is where marshalArgs stages a custom-block call's
// argument Values before the call, one Value-sized slot per argument
// in declaration order.
func (f *Func) argBufferOffset() int32 {
	return f.scratchBitsOffset() + stackcache.WordSize
}

// constPoolBase is where per-basic-block pooled constants are spilled,
// one word per distinct constant; constpool.Pool dedups within a block
// so the same Handle (here, a stack offset) is reused for repeat
// references instead of growing further.
func (f *Func) constPoolBase() int32 {
	return f.argBufferOffset() + maxCallArgs*stackcache.SlotBytes
}

func (f *Func) allocConstSlot() int32 {
	off := f.constPoolBase() + f.constNext
	f.constNext += stackcache.WordSize
	return off
}

// stmt lowers one IR statement node, threading f.typemap forward.
func (f *Func) stmt(b *ir.Block) error {
	if b == nil {
		return nil
	}
	switch b.Op {
	case ir.OpSeq:
		for _, s := range b.Inputs {
			if err := f.stmt(s); err != nil {
				return err
			}
		}
		return nil
	case ir.OpVarSet:
		return f.lowerVarSet(b)
	case ir.OpVarChange:
		return f.lowerVarChange(b)
	case ir.OpControlIf:
		return f.lowerIf(b)
	case ir.OpControlIfElse:
		return f.lowerIfElse(b)
	case ir.OpControlRepeat:
		return f.lowerRepeat(b)
	case ir.OpControlRepeatUntil:
		return f.lowerRepeatUntil(b)
	case ir.OpScreenRefresh:
		return f.lowerScreenRefresh()
	case ir.OpStopScript:
		f.emitStop()
		return nil
	case ir.OpCallNonPausable:
		return f.lowerCallNonPausable(b)
	case ir.OpCallPausable:
		return f.lowerCallPausable(b)
	case ir.OpMotionGoTo, ir.OpMotionSetX, ir.OpMotionSetY, ir.OpMotionChangeX, ir.OpMotionChangeY:
		return f.lowerRendererOp(b)
	}
	// A value-producing block used in statement position (e.g. a bare
	// expression whose result is discarded) is lowered for its side
	// effects only.
	if _, ok := ir.ReturnType(b, f.typemap); ok {
		_, err := f.expr(b)
		return err
	}
	return errors.Errorf("codegen: unknown opcode %d", b.Op)
}

// lowerVarSet implements spec §4.E's VarSet rule: a literal RHS gets a
// typed store and a precise type-map update; a computed RHS is
// specialised for Num/Bool and falls through to the generic Object
// path otherwise. A prior String occupant is dropped before being
// overwritten, since the stack cache never implicitly frees a slot.
func (f *Func) lowerVarSet(b *ir.Block) error {
	off, _ := f.varOffset(b.Var)
	prior := f.typemap.Lookup(b.Var)
	rhs := b.Inputs[0]

	h, err := f.expr(rhs)
	if err != nil {
		return err
	}
	if prior == ir.CheckedString && h.typ != ir.CheckedString {
		f.emitDropObj(off, false)
	}
	f.storeHandle(off, h)
	f.typemap.Set(b.Var, h.typ)
	return nil
}

// lowerVarChange implements VarChange: read as number, add the input
// (as number), store as number, and mark the variable Number in the
// type map.
func (f *Func) lowerVarChange(b *ir.Block) error {
	off, _ := f.varOffset(b.Var)
	cur := amd64.REGTMP0
	amd64.LoadFloat64(f.pp, REGSP, int64(off)+8, cur) // word1 holds the float payload
	delta, err := f.exprNumber(b.Inputs[0])
	if err != nil {
		return err
	}
	amd64.AddFloat64(f.pp, delta, cur)
	amd64.StoreFloat64(f.pp, cur, REGSP, int64(off)+8)
	amd64.MovConst64(f.pp, int64(ir.TypeNumber), amd64.REGTMP1)
	amd64.StoreMem64(f.pp, amd64.REGTMP1, REGSP, int64(off))
	f.typemap.Set(b.Var, ir.CheckedNumber)
	return nil
}

// lowerIf implements the single-arm If: branch on the condition, fall
// through the then-block to the join, and at the join set the type
// map to the common entries of the pre-if map and the post-then map —
// a variable the then-arm wrote is Unknown afterward unless the
// pre-map already agreed with it.
func (f *Func) lowerIf(b *ir.Block) error {
	cond, err := f.exprBool(b.Inputs[0])
	if err != nil {
		return err
	}
	skip := amd64.JmpIfZero(f.pp, cond)
	f.consts.Clear()

	pre := f.typemap.Clone()
	if err := f.stmt(b.Inputs[1]); err != nil {
		return err
	}
	post := f.typemap

	join := f.pp.Prog(obj.ANOP)
	Patch(skip, join)

	f.typemap = ir.Common(pre, post)
	return nil
}

// lowerIfElse implements the two-arm If/else per spec §4.E: the final
// map is the pairwise agreement of pre-map, then-map and else-map.
func (f *Func) lowerIfElse(b *ir.Block) error {
	cond, err := f.exprBool(b.Inputs[0])
	if err != nil {
		return err
	}
	elseJump := amd64.JmpIfZero(f.pp, cond)
	f.consts.Clear()

	pre := f.typemap.Clone()
	if err := f.stmt(b.Inputs[1]); err != nil {
		return err
	}
	thenMap := f.typemap
	endJump := amd64.Jmp(f.pp)

	elseLabel := f.pp.Prog(obj.ANOP)
	Patch(elseJump, elseLabel)
	f.consts.Clear()
	f.typemap = pre.Clone()
	if err := f.stmt(b.Inputs[2]); err != nil {
		return err
	}
	elseMap := f.typemap

	join := f.pp.Prog(obj.ANOP)
	Patch(endJump, join)

	f.typemap = ir.Common3(pre, thenMap, elseMap)
	return nil
}

// lowerRepeat lowers OpControlRepeat (spec §4.E "Repeat-n"). It
// inspects the body via CouldRefreshScreen to choose between the fast
// non-pausable counted loop and the pausable form that saves the
// counter/bound across a yield. The counter and bound live in two
// words permanently reserved via allocConstSlot — unlike an ordinary
// pooled constant these must survive every Clear() the loop body
// triggers, so they're allocated once, up front, and never looked up
// by value again.
func (f *Func) lowerRepeat(b *ir.Block) error {
	countExpr, body := b.Inputs[0], b.Inputs[1]
	pausable := ir.CouldRefreshScreen(body)
	counterOff, boundOff := int64(f.allocConstSlot()), int64(f.allocConstSlot())

	n, err := f.exprNumber(countExpr)
	if err != nil {
		return err
	}
	amd64.StoreFloat64(f.pp, n, REGSP, boundOff)
	zero := amd64.FREGTMP1
	amd64.MovConst64(f.pp, 0, amd64.REGTMP0)
	f.bitsToFloat(amd64.REGTMP0, zero)
	amd64.StoreFloat64(f.pp, zero, REGSP, counterOff)

	if pausable {
		// Spilling the counter/bound to the loop-state stack lets a
		// yield inside the body suspend mid-iteration; the resumed
		// function pops them back before re-testing the header.
		amd64.Mov64(f.pp, amd64.REGLOOPSTACK, amd64.REGARG0)
		amd64.LoadMem64(f.pp, REGSP, counterOff, amd64.REGARG1)
		amd64.Call(f.pp, f.helpers.StackPush)
		amd64.Mov64(f.pp, amd64.REGLOOPSTACK, amd64.REGARG0)
		amd64.LoadMem64(f.pp, REGSP, boundOff, amd64.REGARG1)
		amd64.Call(f.pp, f.helpers.StackPush)
	}

	header := f.pp.Prog(obj.ANOP)
	f.consts.Clear()
	i := amd64.FREGTMP0
	amd64.LoadFloat64(f.pp, REGSP, counterOff, i)
	bound := amd64.FREGTMP1
	amd64.LoadFloat64(f.pp, REGSP, boundOff, bound)
	exitJump := amd64.JmpIfFloatGE(f.pp, i, bound)

	if err := f.stmt(body); err != nil {
		return err
	}
	f.consts.Clear()
	amd64.LoadFloat64(f.pp, REGSP, counterOff, i)
	amd64.MovConst64(f.pp, int64(oneBits), amd64.REGTMP0)
	one := amd64.FREGTMP1
	f.bitsToFloat(amd64.REGTMP0, one)
	amd64.AddFloat64(f.pp, one, i)
	amd64.StoreFloat64(f.pp, i, REGSP, counterOff)
	back := amd64.Jmp(f.pp)
	Patch(back, header)

	exit := f.pp.Prog(obj.ANOP)
	Patch(exitJump, exit)

	if pausable {
		amd64.Mov64(f.pp, amd64.REGLOOPSTACK, amd64.REGARG0)
		amd64.Call(f.pp, f.helpers.StackPop)
		amd64.StoreMem64(f.pp, amd64.REGRET, REGSP, boundOff)
		amd64.Mov64(f.pp, amd64.REGLOOPSTACK, amd64.REGARG0)
		amd64.Call(f.pp, f.helpers.StackPop)
		amd64.StoreMem64(f.pp, amd64.REGRET, REGSP, counterOff)
	}
	return nil
}

// oneBits is the IEEE-754 bit pattern of 1.0, baked in directly since
// the counted-loop increment doesn't go through the per-block constant
// pool (it must survive across the pool's Clear() at the loop header).
var oneBits = int64(0x3FF0000000000000)

// lowerRepeatUntil lowers OpControlRepeatUntil: the condition is
// re-tested at the header; the body is pausable if it contains any
// pausable construct.
func (f *Func) lowerRepeatUntil(b *ir.Block) error {
	cond, body := b.Inputs[0], b.Inputs[1]
	header := f.pp.Prog(obj.ANOP)
	f.consts.Clear()
	c, err := f.exprBool(cond)
	if err != nil {
		return err
	}
	amd64.Mov64(f.pp, c, amd64.REGTMP1)
	// A false condition runs the body; a true one leaves the loop.
	stay := amd64.JmpIfZero(f.pp, amd64.REGTMP1)
	exitJump := amd64.Jmp(f.pp)
	bodyStart := f.pp.Prog(obj.ANOP)
	Patch(stay, bodyStart)
	if err := f.stmt(body); err != nil {
		return err
	}
	f.consts.Clear()
	back := amd64.Jmp(f.pp)
	Patch(back, header)
	exit := f.pp.Prog(obj.ANOP)
	Patch(exitJump, exit)
	return nil
}

// lowerScreenRefresh implements the yield statement. Outside a
// pausable function this is a documented no-op; inside one it saves
// the cache, allocates a fresh resume label, and returns that label —
// the dispatcher in the prologue jumps straight back to the following
// instruction on re-entry.
func (f *Func) lowerScreenRefresh() error {
	if !f.isPausable {
		return nil
	}
	f.saveStackCache()
	label := f.nextBreakLabel()
	amd64.MovConst64(f.pp, label, amd64.REGRET)
	amd64.Ret(f.pp)

	resume := f.initStackCache()
	f.resumeLabels[label] = resume
	return nil
}

// lowerCallNonPausable implements the non-pausable FunctionCall
// lowering: the callee may write any variable, so the type map is
// cleared; the cache is saved before the call and re-initialised
// after, bracketing the one place besides a yield where variable
// memory can change out from under the cache.
func (f *Func) lowerCallNonPausable(b *ir.Block) error {
	if err := f.marshalArgs(b.Inputs); err != nil {
		return err
	}
	f.saveStackCache()
	amd64.MovConst64(f.pp, int64(b.Aux), amd64.REGARG0)
	amd64.Call(f.pp, f.helpers.CallNoScreenRefresh)
	f.typemap = ir.TypeMap{}
	f.initStackCache()
	return nil
}

// lowerCallPausable implements the pausable FunctionCall lowering.
// The helper reports Ended or Paused; on Paused the caller must yield
// too, so it saves the cache and returns the current break label. On
// re-entry the dispatcher resumes that same label, which re-invokes a
// continuation form of the helper ticking the stored child thread.
func (f *Func) lowerCallPausable(b *ir.Block) error {
	if err := f.marshalArgs(b.Inputs); err != nil {
		return err
	}
	f.saveStackCache()
	amd64.MovConst64(f.pp, int64(b.Aux), amd64.REGARG0)
	amd64.Call(f.pp, f.helpers.CallScreenRefresh)
	f.typemap = ir.TypeMap{}

	pausedJump := amd64.JmpIfZero(f.pp, amd64.REGRET) // 0 == Ended; nonzero == Paused
	label := f.nextBreakLabel()
	amd64.MovConst64(f.pp, label, amd64.REGRET)
	amd64.Ret(f.pp)

	resume := f.initStackCache()
	f.resumeLabels[label] = resume

	ended := f.pp.Prog(obj.ANOP)
	Patch(pausedJump, ended)
	f.initStackCache()
	return nil
}

// pointArg loads REGARG2 with the address of the function's scratch
// Value slot, used as the one-pointer argument every render/arith
// helper below expects.
func (f *Func) pointArg() {
	amd64.Mov64(f.pp, REGSP, amd64.REGARG2)
	amd64.AddConstInt64(f.pp, f.scratchObjectOffset64(), amd64.REGARG2)
}

// scratchObjectOffset64 is scratchObjectOffset widened to int64, the
// width every amd64 helper taking a memory offset expects.
func (f *Func) scratchObjectOffset64() int64 {
	return int64(f.scratchObjectOffset())
}

// scratchBitsOffset64 is scratchBitsOffset widened to int64.
func (f *Func) scratchBitsOffset64() int64 {
	return int64(f.scratchBitsOffset())
}

// lowerRendererOp lowers the typed motion calls into renderer helper
// invocations against the sprite execctx.Current() names at call time.
func (f *Func) lowerRendererOp(b *ir.Block) error {
	switch b.Op {
	case ir.OpMotionGoTo:
		x, err := f.exprNumber(b.Inputs[0])
		if err != nil {
			return err
		}
		y, err := f.exprNumber(b.Inputs[1])
		if err != nil {
			return err
		}
		amd64.StoreFloat64(f.pp, x, REGSP, f.scratchObjectOffset64())
		amd64.StoreFloat64(f.pp, y, REGSP, f.scratchObjectOffset64()+8)
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderGoTo)
	case ir.OpMotionSetX:
		x, err := f.exprNumber(b.Inputs[0])
		if err != nil {
			return err
		}
		amd64.StoreFloat64(f.pp, x, REGSP, f.scratchObjectOffset64())
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderSetX)
	case ir.OpMotionSetY:
		y, err := f.exprNumber(b.Inputs[0])
		if err != nil {
			return err
		}
		amd64.StoreFloat64(f.pp, y, REGSP, f.scratchObjectOffset64())
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderSetY)
	case ir.OpMotionChangeX:
		dx, err := f.exprNumber(b.Inputs[0])
		if err != nil {
			return err
		}
		amd64.StoreFloat64(f.pp, dx, REGSP, f.scratchObjectOffset64())
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderChangeX)
	case ir.OpMotionChangeY:
		dy, err := f.exprNumber(b.Inputs[0])
		if err != nil {
			return err
		}
		amd64.StoreFloat64(f.pp, dy, REGSP, f.scratchObjectOffset64())
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderChangeY)
	}
	return nil
}

// marshalArgs writes each argument expression's four-word
// representation into the argument buffer before a custom-block call,
// per spec §4.E ("materialise the argument buffer as a stack array of
// four-word Values"), then points REGARG1 at the buffer's base and
// REGARG2 at the argument count for the call that follows. The
// callee id itself (REGARG0) is the call site's responsibility, set
// after marshalArgs returns, since it never needs a register here.
func (f *Func) marshalArgs(args []*ir.Block) error {
	if len(args) > maxCallArgs {
		return errors.Errorf("codegen: %d arguments exceeds the %d-argument static bound", len(args), maxCallArgs)
	}
	for i, a := range args {
		h, err := f.expr(a)
		if err != nil {
			return err
		}
		off := f.argBufferOffset() + int32(i)*stackcache.SlotBytes
		f.storeHandle(off, h)
	}
	amd64.Mov64(f.pp, REGSP, amd64.REGARG1)
	amd64.AddConstInt64(f.pp, int64(f.argBufferOffset()), amd64.REGARG1)
	amd64.MovConst64(f.pp, int64(len(args)), amd64.REGARG2)
	return nil
}

func (f *Func) emitDropObj(off int32, isConstant bool) {
	if isConstant {
		return
	}
	amd64.Mov64(f.pp, REGSP, amd64.REGARG2)
	amd64.AddConstInt64(f.pp, int64(off), amd64.REGARG2)
	amd64.Call(f.pp, f.helpers.DropObj)
}

// storeHandle writes h into the stack cache at off.
func (f *Func) storeHandle(off int32, h handle) {
	f.storeHandleTo(REGSP, off, h)
}

func (f *Func) storeHandleTo(base int16, off int32, h handle) {
	switch h.typ {
	case ir.CheckedNumber:
		amd64.MovConst64(f.pp, int64(ir.TypeNumber), amd64.REGTMP1)
		amd64.StoreMem64(f.pp, amd64.REGTMP1, base, int64(off))
		amd64.StoreFloat64(f.pp, h.reg, base, int64(off)+8)
	case ir.CheckedBool:
		amd64.MovConst64(f.pp, int64(ir.TypeBool), amd64.REGTMP1)
		amd64.StoreMem64(f.pp, amd64.REGTMP1, base, int64(off))
		amd64.StoreMem64(f.pp, h.reg, base, int64(off)+8)
	default:
		// String / Unknown: the value already lives at h.objSlot as a
		// fully formed four-word Value; copy it verbatim.
		for w := 0; w < stackcache.WordsPerValue; w++ {
			amd64.LoadMem64(f.pp, REGSP, int64(h.objSlot)+int64(w)*stackcache.WordSize, amd64.REGTMP0)
			amd64.StoreMem64(f.pp, amd64.REGTMP0, base, int64(off)+int64(w)*stackcache.WordSize)
		}
	}
}
