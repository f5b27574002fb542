// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stackcache computes the stack-slot layout the code
// generator (internal/codegen) uses to shadow variable-heap accesses
// for the lifetime of one compiled function (spec §4.D). The layout
// is pure bookkeeping; the actual load/store instructions that
// realise init/save against this layout are emitted by
// internal/codegen, which is the only package that talks to the
// native back end.
package stackcache

import "github.com/hatrun/stagejit/internal/ir"

// WordsPerValue is the number of 64-bit words a Value occupies in
// both variable-heap storage and the stack slot: one discriminant
// word plus three payload words, matching internal/value's ABI layout.
const WordsPerValue = 4

// WordSize is the size in bytes of one ABI word.
const WordSize = 8

// SlotBytes is the size in bytes reserved per tracked Ptr: one Value,
// word-aligned. 32 matches WordsPerValue*WordSize and is the multiple
// spec §4.D requires slot offsets to fall on.
const SlotBytes = WordsPerValue * WordSize

// Layout assigns every Ptr referenced by a script a fixed offset into
// a single contiguous stack slot of SlotBytes*len(ordered) bytes.
type Layout struct {
	offsets map[ir.Ptr]int32
	ordered []ir.Ptr
}

// Build walks script via the supplied pre-pass and returns a Layout
// reserving one slot per distinct Ptr referenced by read, write or
// change, in first-encounter order. The pre-pass is a pure tree walk;
// it never needs a type map because the cache tracks presence, not type.
func Build(script *ir.Block) *Layout {
	l := &Layout{offsets: make(map[ir.Ptr]int32)}
	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		if b == nil {
			return
		}
		switch b.Op {
		case ir.OpVarRead, ir.OpVarSet, ir.OpVarChange:
			l.track(b.Var)
		}
		for _, in := range b.Inputs {
			walk(in)
		}
	}
	walk(script)
	return l
}

func (l *Layout) track(ptr ir.Ptr) {
	if _, ok := l.offsets[ptr]; ok {
		return
	}
	l.offsets[ptr] = int32(len(l.ordered)) * SlotBytes
	l.ordered = append(l.ordered, ptr)
}

// Offset returns the byte offset of ptr's slot within the cache's
// stack region, and whether ptr is tracked at all.
func (l *Layout) Offset(ptr ir.Ptr) (int32, bool) {
	off, ok := l.offsets[ptr]
	return off, ok
}

// Tracked returns every tracked Ptr in first-encounter order, the
// order init/save walk them in.
func (l *Layout) Tracked() []ir.Ptr {
	return l.ordered
}

// Size is the total number of bytes the cache's stack region needs.
func (l *Layout) Size() int32 {
	return int32(len(l.ordered)) * SlotBytes
}
