// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// ReturnType reports the static type a value-producing block
// evaluates to, or ok=false for statements. Arithmetic, random,
// math-unary and string-length return Number; string-join and
// letter-of return String; comparisons, logical and string-contains
// return Bool; variable read returns the current map entry (or
// Unknown); argument read returns Unknown; motion-getters return
// Number.
func ReturnType(b *Block, typemap TypeMap) (t VarTypeChecked, ok bool) {
	switch b.Op {
	case OpLiteralNumber, OpAdd, OpSub, OpMul, OpDiv, OpMod, OpMathUnary,
		OpRandom, OpStringLen, OpMotionGetX, OpMotionGetY:
		return CheckedNumber, true
	case OpLiteralString, OpStringJoin, OpStringLetterOf:
		return CheckedString, true
	case OpLiteralBool, OpEquals, OpLess, OpGreater, OpAnd, OpOr, OpNot, OpStringContains:
		return CheckedBool, true
	case OpVarRead:
		return typemap.Lookup(b.Var), true
	case OpArgRead:
		return CheckedUnknown, true
	}
	return CheckedUnknown, false
}

// AffectsVar reports the resulting type of ptr after b executes, if b
// writes ptr, and reports ok=false if b provably never writes ptr (so
// callers can tell "doesn't write" from "writes, but now Unknown").
//
// For sequences it is the last writer. For if/else it is the type
// only if both arms agree; otherwise Unknown. Function calls are
// conservative: the callee may write any variable, so a call always
// reports (Unknown, true) regardless of ptr.
func AffectsVar(b *Block, ptr Ptr, typemap TypeMap) (t VarTypeChecked, ok bool) {
	switch b.Op {
	case OpVarSet:
		if b.Var != ptr {
			return CheckedUnknown, false
		}
		rt, has := ReturnType(b.Inputs[0], typemap)
		if !has {
			rt = CheckedUnknown
		}
		return rt, true
	case OpVarChange:
		if b.Var != ptr {
			return CheckedUnknown, false
		}
		return CheckedNumber, true
	case OpSeq:
		wrote := false
		result := CheckedUnknown
		for _, stmt := range b.Inputs {
			if rt, ok := AffectsVar(stmt, ptr, typemap); ok {
				wrote = true
				result = rt
			}
		}
		return result, wrote
	case OpControlIf:
		// A single-arm if can't be relied on to write ptr on every
		// path, so from the caller's perspective this node never
		// proves a write happened; the then-arm's own effect on the
		// type map is handled by the code generator's block-local
		// join, not by this query.
		return CheckedUnknown, false
	case OpControlIfElse:
		thenT, thenOK := AffectsVar(b.Inputs[1], ptr, typemap)
		elseT, elseOK := AffectsVar(b.Inputs[2], ptr, typemap)
		if !thenOK || !elseOK {
			return CheckedUnknown, false
		}
		if thenT == elseT {
			return thenT, true
		}
		return CheckedUnknown, true
	case OpCallNonPausable, OpCallPausable:
		return CheckedUnknown, true
	}
	return CheckedUnknown, false
}

// CouldRefreshScreen reports whether any pausable construct is
// reachable from b: an explicit yield, a pausable custom call, or any
// repeat body whose members recursively satisfy the predicate.
func CouldRefreshScreen(b *Block) bool {
	if b == nil {
		return false
	}
	switch b.Op {
	case OpScreenRefresh, OpCallPausable:
		return true
	}
	for _, in := range b.Inputs {
		if CouldRefreshScreen(in) {
			return true
		}
	}
	return false
}

// CouldBeNaN reports whether b's value may be NaN: true for divide,
// mod, sqrt, random, variable read, and argument read; false
// otherwise. Used to elide NaN sanitisation on arithmetic inputs
// whose producers cannot produce NaN.
func CouldBeNaN(b *Block) bool {
	switch b.Op {
	case OpDiv, OpMod, OpRandom, OpVarRead, OpArgRead:
		return true
	case OpMathUnary:
		return b.Aux == int(MathSqrt)
	}
	return false
}
