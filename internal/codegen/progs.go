// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import "github.com/twitchyliquid64/golang-asm/obj"

// Progs accumulates the obj.Prog chain for one function compilation,
// mirroring the teacher compiler's gc.Progs. Prog is the single
// chokepoint every statement and expression lowerer in this package
// goes through, which is what makes it cheap to dump the full
// instruction listing for `stagejit disasm` (spec §12 item 3).
type Progs struct {
	ctxt  *obj.Link
	first *obj.Prog
	last  *obj.Prog
}

func NewProgs(ctxt *obj.Link) *Progs {
	return &Progs{ctxt: ctxt}
}

// Prog allocates a fresh instruction with opcode as and appends it to
// the end of the chain.
func (pp *Progs) Prog(as obj.As) *obj.Prog {
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

// Appendpp inserts a new instruction after p with the given opcode
// and from/to operands, and returns it. The signature matches the
// teacher back ends' own Appendpp exactly (see
// compile/internal/riscv64/ggen.go) since the statement lowerers in
// this package are a direct generalisation of that code to the
// pausable-function ABI.
func (pp *Progs) Appendpp(p *obj.Prog, as obj.As, ftype obj.AddrType, freg int16, foffset int64, ttype obj.AddrType, treg int16, toffset int64) *obj.Prog {
	q := pp.ctxt.NewProg()
	q.As = as
	q.From.Type = ftype
	q.From.Reg = freg
	q.From.Offset = foffset
	q.To.Type = ttype
	q.To.Reg = treg
	q.To.Offset = toffset
	q.Link = p.Link
	p.Link = q
	if pp.last == p {
		pp.last = q
	}
	return q
}

// First returns the head of the instruction chain.
func (pp *Progs) First() *obj.Prog { return pp.first }

// Patch sets p's branch target to target, the same helper the teacher
// back ends call after emitting a loop body to close the back edge.
func Patch(p *obj.Prog, target *obj.Prog) {
	p.To.Type = obj.TYPE_BRANCH
	p.To.Val = target
}
