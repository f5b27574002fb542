// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "testing"

func num(n float64) *Block { return &Block{Op: OpLiteralNumber, Num: n} }

func TestReturnType(t *testing.T) {
	b := &Block{Op: OpAdd, Inputs: []*Block{num(1), num(2)}}
	rt, ok := ReturnType(b, nil)
	if !ok || rt != CheckedNumber {
		t.Fatalf("ReturnType(Add) = %v, %v", rt, ok)
	}
	arg := &Block{Op: OpArgRead, Var: 0}
	if rt, ok := ReturnType(arg, nil); !ok || rt != CheckedUnknown {
		t.Fatalf("ReturnType(ArgRead) = %v, %v", rt, ok)
	}
}

func TestAffectsVarSeqLastWriterWins(t *testing.T) {
	tm := TypeMap{}
	seq := &Block{Op: OpSeq, Inputs: []*Block{
		{Op: OpVarSet, Var: 0, Inputs: []*Block{num(1)}},
		{Op: OpVarSet, Var: 0, Inputs: []*Block{{Op: OpLiteralString, Str: "x"}}},
	}}
	rt, ok := AffectsVar(seq, 0, tm)
	if !ok || rt != CheckedString {
		t.Fatalf("AffectsVar = %v, %v, want String", rt, ok)
	}
}

func TestAffectsVarIfElseAgreement(t *testing.T) {
	tm := TypeMap{}
	ifElse := &Block{Op: OpControlIfElse, Inputs: []*Block{
		{Op: OpLiteralBool, Bl: true},
		{Op: OpVarSet, Var: 0, Inputs: []*Block{num(1)}},
		{Op: OpVarSet, Var: 0, Inputs: []*Block{num(2)}},
	}}
	rt, ok := AffectsVar(ifElse, 0, tm)
	if !ok || rt != CheckedNumber {
		t.Fatalf("AffectsVar(if/else agree) = %v, %v", rt, ok)
	}

	ifElseDisagree := &Block{Op: OpControlIfElse, Inputs: []*Block{
		{Op: OpLiteralBool, Bl: true},
		{Op: OpVarSet, Var: 0, Inputs: []*Block{num(1)}},
		{Op: OpVarSet, Var: 0, Inputs: []*Block{{Op: OpLiteralString, Str: "x"}}},
	}}
	rt, ok = AffectsVar(ifElseDisagree, 0, tm)
	if !ok || rt != CheckedUnknown {
		t.Fatalf("AffectsVar(if/else disagree) = %v, %v, want Unknown", rt, ok)
	}
}

func TestAffectsVarCallIsConservative(t *testing.T) {
	call := &Block{Op: OpCallNonPausable, Aux: 7}
	rt, ok := AffectsVar(call, 42, TypeMap{42: CheckedNumber})
	if !ok || rt != CheckedUnknown {
		t.Fatalf("AffectsVar(call) = %v, %v, want (Unknown, true)", rt, ok)
	}
}

func TestCouldRefreshScreen(t *testing.T) {
	if CouldRefreshScreen(num(1)) {
		t.Fatal("literal should not refresh")
	}
	repeat := &Block{Op: OpControlRepeat, Inputs: []*Block{num(3), {Op: OpScreenRefresh}}}
	if !CouldRefreshScreen(repeat) {
		t.Fatal("repeat containing yield should refresh")
	}
	pausableCall := &Block{Op: OpCallPausable}
	if !CouldRefreshScreen(pausableCall) {
		t.Fatal("pausable call should refresh")
	}
}

func TestCouldBeNaN(t *testing.T) {
	if !CouldBeNaN(&Block{Op: OpDiv}) {
		t.Fatal("div could be NaN")
	}
	if !CouldBeNaN(&Block{Op: OpVarRead}) {
		t.Fatal("var read could be NaN")
	}
	if CouldBeNaN(&Block{Op: OpAdd}) {
		t.Fatal("add cannot be NaN by itself")
	}
}

func TestJoinRule(t *testing.T) {
	a := TypeMap{0: CheckedNumber, 1: CheckedString}
	b := TypeMap{0: CheckedNumber, 1: CheckedBool}
	c := Common(a, b)
	if len(c) != 1 || c[0] != CheckedNumber {
		t.Fatalf("Common = %v, want only {0: Number}", c)
	}
}
