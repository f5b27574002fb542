// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stackcache

import (
	"testing"

	"github.com/hatrun/stagejit/internal/ir"
)

func TestBuildAssignsDenseOffsets(t *testing.T) {
	script := &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
		{Op: ir.OpVarSet, Var: 2, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 1}}},
		{Op: ir.OpVarRead, Var: 5},
		{Op: ir.OpVarChange, Var: 2},
	}}
	l := Build(script)

	if got := len(l.Tracked()); got != 2 {
		t.Fatalf("Tracked() len = %d, want 2", got)
	}
	off2, ok := l.Offset(2)
	if !ok || off2 != 0 {
		t.Fatalf("Offset(2) = %d, %v, want 0, true", off2, ok)
	}
	off5, ok := l.Offset(5)
	if !ok || off5 != SlotBytes {
		t.Fatalf("Offset(5) = %d, %v, want %d, true", off5, ok, SlotBytes)
	}
	if l.Size() != 2*SlotBytes {
		t.Fatalf("Size() = %d, want %d", l.Size(), 2*SlotBytes)
	}
	if _, ok := l.Offset(99); ok {
		t.Fatalf("Offset(99) unexpectedly tracked")
	}
}

func TestBuildNestedBlocks(t *testing.T) {
	script := &ir.Block{Op: ir.OpControlIfElse, Inputs: []*ir.Block{
		{Op: ir.OpVarRead, Var: 0},
		{Op: ir.OpVarSet, Var: 1, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 1}}},
		{Op: ir.OpVarSet, Var: 2, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 2}}},
	}}
	l := Build(script)
	if len(l.Tracked()) != 3 {
		t.Fatalf("Tracked() len = %d, want 3", len(l.Tracked()))
	}
}
