// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twitchyliquid64/golang-asm/obj"
	"golang.org/x/arch/x86/x86asm"
)

// progs is a minimal Appender, mirroring internal/codegen.Progs just
// enough to drive the back end's assemble pass from this package's own
// tests without importing internal/codegen (which imports this
// package, and would be a cycle).
type progs struct {
	ctxt  *obj.Link
	first *obj.Prog
	last  *obj.Prog
}

func (pp *progs) Prog(as obj.As) *obj.Prog {
	p := pp.ctxt.NewProg()
	p.As = as
	if pp.last == nil {
		pp.first = p
	} else {
		pp.last.Link = p
	}
	pp.last = p
	return p
}

// assemble runs the same Flushplist step internal/codegen.assemble
// does, standalone, and returns the encoded machine code.
func assemble(t *testing.T, pp *progs) []byte {
	t.Helper()
	fnSym := pp.ctxt.Lookup("amd64test.fn")
	text := pp.ctxt.NewProg()
	text.As = obj.ATEXT
	text.From.Type = obj.TYPE_MEM
	text.From.Sym = fnSym
	text.Link = pp.first

	pl := &obj.Plist{Firstpc: text}
	obj.Flushplist(pp.ctxt, pl, nil, "")
	require.NotNil(t, fnSym.P, "back end produced no machine code")
	return fnSym.P
}

// patch mirrors internal/codegen.Patch, which this package cannot
// import (codegen imports amd64, not the reverse).
func patch(p *obj.Prog, target *obj.Prog) {
	p.To.Type = obj.TYPE_BRANCH
	p.To.Val = target
}

func newProgs() *progs {
	ctxt := obj.Linknew(LinkArch)
	New(ctxt)
	return &progs{ctxt: ctxt}
}

// decodeAll runs x86asm over code until every byte is consumed,
// failing at the first instruction it cannot decode. This is the
// self-check spec §11 describes: every helper in this package must
// emit bytes a real x86 decoder accepts as 64-bit instructions, not
// just bytes golang-asm's own encoder is willing to produce.
func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()
	var insts []x86asm.Inst
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		require.NoErrorf(t, err, "decoding instruction at offset %d (% x)", off, code[off:])
		require.Greater(t, inst.Len, 0, "zero-length decode at offset %d", off)
		insts = append(insts, inst)
		off += inst.Len
	}
	return insts
}

func TestDecodeArithmeticSequence(t *testing.T) {
	pp := newProgs()
	MovConst64(pp, 7, REGTMP0)
	MovConst64(pp, 5, REGTMP1)
	Mov64(pp, REGTMP0, REGARG0)
	AddConstInt64(pp, 3, REGARG0)
	Ret(pp)

	insts := decodeAll(t, assemble(t, pp))
	require.Len(t, insts, 5)
	for _, in := range insts {
		require.NotEqual(t, x86asm.Op(0), in.Op, "undecodable opcode")
	}
}

func TestDecodeFloatSequence(t *testing.T) {
	pp := newProgs()
	LoadFloat64(pp, REGTMP2, 0, FREGTMP0)
	LoadFloat64(pp, REGTMP2, 8, FREGTMP1)
	AddFloat64(pp, FREGTMP1, FREGTMP0)
	StoreFloat64(pp, FREGTMP0, REGTMP2, 0)
	Ret(pp)

	insts := decodeAll(t, assemble(t, pp))
	require.Len(t, insts, 5)
}

// TestDecodeBranchCascade exercises the shape patchResumeDispatch emits
// in internal/codegen: a CMPQ/JEQ pair followed by an unconditional
// JMP, the two instruction forms the resume dispatch cascade is built
// from.
func TestDecodeBranchCascade(t *testing.T) {
	pp := newProgs()
	jeq := CmpConstJumpIfEqual(pp, REGARG0, 3)
	fallthroughTarget := pp.Prog(obj.ANOP)
	patch(jeq, fallthroughTarget)
	jmp := Jmp(pp)
	target := pp.Prog(obj.ANOP)
	patch(jmp, target)
	Ret(pp)

	code := assemble(t, pp)
	insts := decodeAll(t, code)
	require.NotEmpty(t, insts)
	require.Equal(t, x86asm.CMP, insts[0].Op)
	require.Equal(t, x86asm.JE, insts[1].Op)
}
