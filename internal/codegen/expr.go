// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"math"

	"github.com/pkg/errors"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/hatrun/stagejit/internal/codegen/amd64"
	"github.com/hatrun/stagejit/internal/constpool"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/literalpool"
	"github.com/hatrun/stagejit/internal/stackcache"
)

// expr lowers a value-producing IR node to a handle. Number and Bool
// results land in a scratch register; everything else (String,
// Unknown, variable reads of unknown type) is materialised into the
// function's scratch object slot as a full four-word Value so the
// caller can copy or pass it on without caring which case produced it.
func (f *Func) expr(b *ir.Block) (handle, error) {
	rt, _ := ir.ReturnType(b, f.typemap)

	switch b.Op {
	case ir.OpLiteralNumber:
		return f.literalNumber(b.Num), nil

	case ir.OpLiteralBool:
		reg := amd64.REGTMP0
		v := int64(0)
		if b.Bl {
			v = 1
		}
		amd64.MovConst64(f.pp, v, reg)
		return handle{typ: ir.CheckedBool, reg: reg}, nil

	case ir.OpLiteralString:
		return f.materializeStringLiteral(b.Str), nil

	case ir.OpVarRead:
		return f.exprVarRead(b.Var), nil

	case ir.OpArgRead:
		return f.exprObjectAt(int32(b.Var) * stackcache.SlotBytes), nil

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return f.exprArith(b)

	case ir.OpMod:
		return f.exprCallNumber(f.helpers.Mod, b.Inputs[0], b.Inputs[1])

	case ir.OpMathUnary:
		return f.exprMathUnary(b)

	case ir.OpRandom:
		return f.exprCallNumber(f.helpers.Random, b.Inputs[0], b.Inputs[1])

	case ir.OpStringLen:
		s, err := f.expr(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		f.loadObjectArg(s)
		amd64.Call(f.pp, f.helpers.OpStrLen)
		reg := amd64.FREGTMP0
		f.bitsToFloat(amd64.REGRET, reg)
		return handle{typ: ir.CheckedNumber, reg: reg}, nil

	case ir.OpStringJoin:
		a, err := f.expr(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		c, err := f.expr(b.Inputs[1])
		if err != nil {
			return handle{}, err
		}
		f.loadObjectHandle(a)
		amd64.Mov64(f.pp, amd64.REGARG2, amd64.REGARG0)
		f.loadObjectHandle(c)
		f.loadOutArg(f.scratchObjectOffset())
		amd64.Call(f.pp, f.helpers.OpStrJoin)
		return f.exprObjectAt(f.scratchObjectOffset()), nil

	case ir.OpStringLetterOf:
		idx, err := f.expr(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		s, err := f.expr(b.Inputs[1])
		if err != nil {
			return handle{}, err
		}
		f.loadObjectHandle(idx)
		amd64.Mov64(f.pp, amd64.REGARG2, amd64.REGARG0)
		f.loadObjectHandle(s)
		f.loadOutArg(f.scratchObjectOffset())
		amd64.Call(f.pp, f.helpers.OpStrLetterOf)
		return f.exprObjectAt(f.scratchObjectOffset()), nil

	case ir.OpStringContains:
		s, err := f.expr(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		needle, err := f.expr(b.Inputs[1])
		if err != nil {
			return handle{}, err
		}
		f.loadObjectHandle(s)
		amd64.Mov64(f.pp, amd64.REGARG2, amd64.REGARG0)
		f.loadObjectHandle(needle)
		amd64.Call(f.pp, f.helpers.OpStrContains)
		return handle{typ: ir.CheckedBool, reg: amd64.REGRET}, nil

	case ir.OpEquals, ir.OpLess, ir.OpGreater:
		return f.exprCompare(b)

	case ir.OpAnd, ir.OpOr:
		return f.exprLogical(b)

	case ir.OpNot:
		c, err := f.exprBool(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		p := f.pp.Prog(x86.AXORQ)
		p.From.Type = obj.TYPE_CONST
		p.From.Offset = 1
		p.To.Type = obj.TYPE_REG
		p.To.Reg = c
		return handle{typ: ir.CheckedBool, reg: c}, nil

	case ir.OpMotionGetX:
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderGetX)
		reg := amd64.FREGTMP0
		amd64.LoadFloat64(f.pp, REGSP, f.scratchObjectOffset64(), reg)
		return handle{typ: ir.CheckedNumber, reg: reg}, nil

	case ir.OpMotionGetY:
		f.pointArg()
		amd64.Call(f.pp, f.helpers.RenderGetY)
		reg := amd64.FREGTMP0
		amd64.LoadFloat64(f.pp, REGSP, f.scratchObjectOffset64(), reg)
		return handle{typ: ir.CheckedNumber, reg: reg}, nil
	}

	if rt == ir.CheckedUnknown && !isValueOp(b.Op) {
		return handle{}, errors.Errorf("codegen: %d is not a value-producing op", b.Op)
	}
	return handle{}, errors.Errorf("codegen: unhandled expr opcode %d", b.Op)
}

func isValueOp(op ir.Op) bool {
	switch op {
	case ir.OpVarRead, ir.OpArgRead:
		return true
	}
	return false
}

// exprNumber lowers b and coerces the result to a float64 register,
// calling the runtime ToNumber helper when the static type isn't
// already Number. NaN-producing subexpressions are sanitised first.
func (f *Func) exprNumber(b *ir.Block) (int16, error) {
	h, err := f.expr(b)
	if err != nil {
		return 0, err
	}
	reg := h.reg
	switch h.typ {
	case ir.CheckedNumber:
		// already a float register
	case ir.CheckedBool:
		tmp := amd64.FREGTMP1
		amd64.Int64ToFloat64(f.pp, h.reg, tmp)
		reg = tmp
	default:
		f.loadObjectHandle(h)
		amd64.Call(f.pp, f.helpers.ToNumber)
		reg = amd64.FREGTMP0
		f.bitsToFloat(amd64.REGRET, reg)
	}
	if ir.CouldBeNaN(b) {
		f.sanitizeNaN(reg)
	}
	return reg, nil
}

// exprBool lowers b and coerces the result to an integer 0/1 register.
func (f *Func) exprBool(b *ir.Block) (int16, error) {
	h, err := f.expr(b)
	if err != nil {
		return 0, err
	}
	if h.typ == ir.CheckedBool {
		return h.reg, nil
	}
	f.loadObjectHandle(h)
	amd64.Call(f.pp, f.helpers.ToBool)
	return amd64.REGRET, nil
}

func (f *Func) exprArith(b *ir.Block) (handle, error) {
	l, err := f.exprNumber(b.Inputs[0])
	if err != nil {
		return handle{}, err
	}
	r, err := f.exprNumber(b.Inputs[1])
	if err != nil {
		return handle{}, err
	}
	switch b.Op {
	case ir.OpAdd:
		amd64.AddFloat64(f.pp, r, l)
	case ir.OpSub:
		amd64.SubFloat64(f.pp, r, l)
	case ir.OpMul:
		amd64.MulFloat64(f.pp, r, l)
	case ir.OpDiv:
		amd64.DivFloat64(f.pp, r, l)
	}
	return handle{typ: ir.CheckedNumber, reg: l}, nil
}

func (f *Func) exprMathUnary(b *ir.Block) (handle, error) {
	x, err := f.exprNumber(b.Inputs[0])
	if err != nil {
		return handle{}, err
	}
	switch ir.MathFn(b.Aux) {
	case ir.MathSqrt:
		p := f.pp.Prog(x86.ASQRTSD)
		p.From.Type = obj.TYPE_REG
		p.From.Reg = x
		p.To.Type = obj.TYPE_REG
		p.To.Reg = x
	case ir.MathFloor:
		p := f.pp.Prog(x86.AROUNDSD)
		p.From.Type = obj.TYPE_CONST
		p.From.Offset = 1 // round toward -Inf
		p.To.Type = obj.TYPE_REG
		p.To.Reg = x
	case ir.MathCeil:
		p := f.pp.Prog(x86.AROUNDSD)
		p.From.Type = obj.TYPE_CONST
		p.From.Offset = 2 // round toward +Inf
		p.To.Type = obj.TYPE_REG
		p.To.Reg = x
	case ir.MathAbs:
		mask := amd64.REGTMP1
		amd64.MovConst64(f.pp, int64(^uint64(0)>>1), mask)
		tmp := amd64.FREGTMP1
		f.bitsToFloat(mask, tmp)
		p := f.pp.Prog(x86.AANDPD)
		p.From.Type = obj.TYPE_REG
		p.From.Reg = tmp
		p.To.Type = obj.TYPE_REG
		p.To.Reg = x
	}
	return handle{typ: ir.CheckedNumber, reg: x}, nil
}

func (f *Func) exprCallNumber(sym *obj.LSym, a, b *ir.Block) (handle, error) {
	x, err := f.exprNumber(a)
	if err != nil {
		return handle{}, err
	}
	y, err := f.exprNumber(b)
	if err != nil {
		return handle{}, err
	}
	amd64.StoreFloat64(f.pp, x, REGSP, f.scratchObjectOffset64())
	amd64.StoreFloat64(f.pp, y, REGSP, f.scratchObjectOffset64()+8)
	amd64.Mov64(f.pp, REGSP, amd64.REGARG2)
	amd64.AddConstInt64(f.pp, int64(f.scratchObjectOffset()), amd64.REGARG2)
	amd64.Call(f.pp, sym)
	reg := amd64.FREGTMP0
	amd64.LoadFloat64(f.pp, REGSP, f.scratchObjectOffset64(), reg)
	return handle{typ: ir.CheckedNumber, reg: reg}, nil
}

func (f *Func) exprCompare(b *ir.Block) (handle, error) {
	lt, _ := ir.ReturnType(b.Inputs[0], f.typemap)
	rt, _ := ir.ReturnType(b.Inputs[1], f.typemap)
	if b.Op == ir.OpEquals && (lt != ir.CheckedNumber || rt != ir.CheckedNumber) {
		// String/mixed equality goes through the coercion-aware runtime
		// helper rather than a raw float compare.
		l, err := f.expr(b.Inputs[0])
		if err != nil {
			return handle{}, err
		}
		r, err := f.expr(b.Inputs[1])
		if err != nil {
			return handle{}, err
		}
		f.loadObjectHandle(l)
		amd64.Mov64(f.pp, amd64.REGARG2, amd64.REGARG0)
		f.loadObjectHandle(r)
		amd64.Call(f.pp, f.helpers.Equals)
		return handle{typ: ir.CheckedBool, reg: amd64.REGRET}, nil
	}

	l, err := f.exprNumber(b.Inputs[0])
	if err != nil {
		return handle{}, err
	}
	r, err := f.exprNumber(b.Inputs[1])
	if err != nil {
		return handle{}, err
	}
	amd64.CompareFloat64(f.pp, r, l)
	var jmp *obj.Prog
	switch b.Op {
	case ir.OpEquals:
		jmp = f.pp.Prog(x86.AJEQ)
	case ir.OpLess:
		jmp = f.pp.Prog(x86.AJCS)
	case ir.OpGreater:
		jmp = f.pp.Prog(x86.AJHI)
	}
	reg := amd64.REGTMP0
	amd64.MovConst64(f.pp, 0, reg)
	skip := amd64.Jmp(f.pp)
	trueLabel := f.pp.Prog(obj.ANOP)
	Patch(jmp, trueLabel)
	amd64.MovConst64(f.pp, 1, reg)
	join := f.pp.Prog(obj.ANOP)
	Patch(skip, join)
	return handle{typ: ir.CheckedBool, reg: reg}, nil
}

// exprLogical short-circuits: And skips the right operand when the
// left is already false, Or skips it when the left is already true.
func (f *Func) exprLogical(b *ir.Block) (handle, error) {
	l, err := f.exprBool(b.Inputs[0])
	if err != nil {
		return handle{}, err
	}
	result := amd64.REGTMP1
	amd64.Mov64(f.pp, l, result)

	var skip *obj.Prog
	if b.Op == ir.OpAnd {
		skip = amd64.JmpIfZero(f.pp, l)
	} else {
		notZero := amd64.JmpIfZero(f.pp, l)
		skip = amd64.Jmp(f.pp)
		here := f.pp.Prog(obj.ANOP)
		Patch(notZero, here)
	}

	r, err := f.exprBool(b.Inputs[1])
	if err != nil {
		return handle{}, err
	}
	amd64.Mov64(f.pp, r, result)

	join := f.pp.Prog(obj.ANOP)
	Patch(skip, join)
	return handle{typ: ir.CheckedBool, reg: result}, nil
}

// exprVarRead loads a variable's current value from the stack cache,
// specialising on the statically known type where available.
func (f *Func) exprVarRead(ptr ir.Ptr) handle {
	off, _ := f.varOffset(ptr)
	switch f.typemap.Lookup(ptr) {
	case ir.CheckedNumber:
		reg := amd64.FREGTMP0
		amd64.LoadFloat64(f.pp, REGSP, int64(off)+8, reg)
		return handle{typ: ir.CheckedNumber, reg: reg}
	case ir.CheckedBool:
		reg := amd64.REGTMP0
		amd64.LoadMem64(f.pp, REGSP, int64(off)+8, reg)
		return handle{typ: ir.CheckedBool, reg: reg}
	default:
		return f.exprObjectAt(int32(off))
	}
}

// exprObjectAt produces a handle referencing a four-word Value already
// resident at the given stack-cache offset, without copying it.
func (f *Func) exprObjectAt(off int32) handle {
	return handle{typ: ir.CheckedUnknown, isObject: true, objSlot: off}
}

// materializeStringLiteral interns s in the process-wide literal table
// (internal/literalpool) the first time this block sees it, stores a
// tagged String Value carrying that index into a pooled scratch slot,
// and returns a handle to the slot. constpool dedups the emission
// within one basic block; the literal table itself persists across
// the whole compiled function so runtime helpers can resolve the
// index back to the string at call time.
func (f *Func) materializeStringLiteral(s string) handle {
	offHandle := f.consts.GetString(s, func(s string) constpool.Handle {
		idx := literalpool.Intern(s)
		off := f.allocConstSlot()
		amd64.MovConst64(f.pp, int64(ir.TypeString), amd64.REGTMP0)
		amd64.StoreMem64(f.pp, amd64.REGTMP0, REGSP, off)
		amd64.MovConst64(f.pp, idx, amd64.REGTMP0)
		amd64.StoreMem64(f.pp, amd64.REGTMP0, REGSP, off+8)
		return off
	})
	return f.exprObjectAt(offHandle.(int32))
}

// loadObjectHandle stages h as the sole argument to a runtime helper
// call expecting a *Value in REGARG2; Number/Bool handles are first
// spilled to the scratch slot so every helper sees the same ABI.
func (f *Func) loadObjectHandle(h handle) {
	if h.isObject || h.typ == ir.CheckedString || h.typ == ir.CheckedUnknown {
		f.loadObjectArg(h)
		return
	}
	f.storeHandle(f.scratchObjectOffset(), h)
	amd64.Mov64(f.pp, REGSP, amd64.REGTMP1)
	amd64.AddConstInt64(f.pp, f.scratchObjectOffset64(), amd64.REGTMP1)
	amd64.Mov64(f.pp, amd64.REGTMP1, amd64.REGARG2)
}

func (f *Func) loadObjectArg(h handle) {
	amd64.Mov64(f.pp, REGSP, amd64.REGARG2)
	amd64.AddConstInt64(f.pp, int64(h.objSlot), amd64.REGARG2)
}

// loadOutArg stages the address of the stack-cache slot at off as the
// third pointer argument (REGARG1) a call expects, for helpers that
// write their result through an out parameter rather than returning it
// in REGRET — e.g. OpStrJoin, OpStrLetterOf. REGARG1 is free for this
// once the prologue has copied the incoming loop-state stack pointer
// into REGLOOPSTACK.
func (f *Func) loadOutArg(off int32) {
	amd64.Mov64(f.pp, REGSP, amd64.REGARG1)
	amd64.AddConstInt64(f.pp, int64(off), amd64.REGARG1)
}

// bitsToFloat reinterprets an integer register's bit pattern as a
// float64 register via a round trip through the scratch slot — the
// back end exposes no direct GP<->XMM move helper, so codegen goes
// through memory the way the teacher's own ggen does for odd-width
// reinterprets.
func (f *Func) bitsToFloat(src, dst int16) {
	amd64.StoreMem64(f.pp, src, REGSP, f.scratchBitsOffset64())
	amd64.LoadFloat64(f.pp, REGSP, f.scratchBitsOffset64(), dst)
}

// literalNumber interns n in the per-block constant pool: the first
// reference emits the bit pattern into a pooled slot, every later
// reference in the same block just reloads from it.
func (f *Func) literalNumber(n float64) handle {
	offHandle := f.consts.GetFloat(n, func(n float64) constpool.Handle {
		off := f.allocConstSlot()
		amd64.MovConst64(f.pp, int64(math.Float64bits(n)), amd64.REGTMP0)
		amd64.StoreMem64(f.pp, amd64.REGTMP0, REGSP, off)
		return off
	})
	off := offHandle.(int32)
	reg := amd64.FREGTMP0
	amd64.LoadFloat64(f.pp, REGSP, int64(off), reg)
	return handle{typ: ir.CheckedNumber, reg: reg}
}

// sanitizeNaN replaces a NaN-valued float register with 0.0 in place,
// per spec §4.E's "coerce NaN sources to a clean Number before they
// can observably propagate" rule.
func (f *Func) sanitizeNaN(reg int16) {
	ordered := amd64.NaNSelectJumpIfOrdered(f.pp, reg)
	zero := amd64.REGTMP1
	amd64.MovConst64(f.pp, 0, zero)
	f.bitsToFloat(zero, reg)
	join := f.pp.Prog(obj.ANOP)
	Patch(ordered, join)
}
