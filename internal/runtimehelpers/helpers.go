// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtimehelpers implements the Go side of every runtime
// helper symbol spec §4.A/§6 lists as callable from compiled code.
// internal/codegen emits CALLs to these functions' linker symbols;
// internal/interp (the reference interpreter used only by tests)
// calls them directly. Both paths exercise the exact same Go code, so
// the "compiler round-trip" property in spec §8 is a property of this
// package, not something the generator has to reprove per opcode.
//
// The functions operate on value.Value directly rather than on raw
// ABI words: internal/codegen is responsible for marshalling a
// Value's four words to and from the stack cache / argument buffer
// before and after each call, exactly as the stack cache's
// store_object / load helpers describe.
package runtimehelpers

import (
	"math"

	"github.com/hatrun/stagejit/internal/value"
)

// ToBool, ToNumber, ToStringValue are thin re-exports of the total
// value-model conversions, named to match the ABI symbol table in
// spec §6 (to_bool, to_number, to_string) for readers cross
// referencing the two.
func ToBool(v value.Value) bool       { return v.ToBool() }
func ToNumber(v value.Value) float64  { return v.ToNumber() }
func ToStringValue(v value.Value) string { return v.ToStringValue() }

// DropObj releases an owned payload. isConstant tells the helper
// whether the caller owns v's storage at all: a literal or borrowed
// value must never be dropped, since doing so would double-free when
// the owning slot is later cleared.
func DropObj(v *value.Value, isConstant bool) {
	if isConstant {
		return
	}
	v.Drop()
}

// OpStrJoin appends b's string rendering onto a's. aIsConst/bIsConst
// tell the helper which operands it may safely drop after the join,
// mirroring the ABI's a_is_const/b_is_const flags (spec §4.A, §6).
func OpStrJoin(a, b value.Value, aIsConst, bIsConst bool) value.Value {
	out := value.StringJoin(a, b)
	if !aIsConst {
		a.Drop()
	}
	if !bIsConst {
		b.Drop()
	}
	return out
}

// OpStrLen mirrors op_str_len.
func OpStrLen(s value.Value, isConstant bool) int {
	n := value.StringLen(s)
	if !isConstant {
		s.Drop()
	}
	return n
}

// OpStrLetterOf mirrors op_str_letter_of: index is 1-based, matching
// the block's surface semantics, and out-of-range returns "" rather
// than panicking, keeping the operation total.
func OpStrLetterOf(index value.Value, s value.Value, isConstant bool) value.Value {
	letter := value.StringLetterOf(index.ToNumber(), s)
	if !isConstant {
		s.Drop()
	}
	return value.String(letter)
}

// OpStrContains mirrors op_str_contains: a case-insensitive substring
// test, matching the source language's "contains" reporter.
func OpStrContains(s, needle value.Value, sIsConst, needleIsConst bool) bool {
	found := value.StringContains(s, needle)
	if !sIsConst {
		s.Drop()
	}
	if !needleIsConst {
		needle.Drop()
	}
	return found
}

// VarRead deep-copies src, the ABI's var_read helper.
func VarRead(src value.Value) value.Value {
	return src.Clone()
}

// Mod implements spec §4.E's floor-mod: a - floor(a/b)*b, with NaN
// for b == 0 matching the language's total-arithmetic invariant.
func Mod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// Random returns a uniform value in [lo, hi]. When both bounds are
// integral, the result is an integer drawn uniformly from the
// inclusive range; otherwise it is a uniform float. next must return
// a value uniform in [0,1) (ABIRandom passes rand.Float64; internal/interp
// passes its Rand field, falling back to rand.Float64 when it is nil).
func Random(lo, hi float64, next func() float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == math.Trunc(lo) && hi == math.Trunc(hi) {
		span := int64(hi) - int64(lo) + 1
		if span <= 0 {
			return lo
		}
		return float64(int64(lo) + int64(next()*float64(span)))
	}
	return lo + next()*(hi-lo)
}

// SanitizeArithInput implements the NaN-sanitisation rule: a NaN
// operand is treated as 0. internal/interp applies it to both operands
// of +, -, *, / and mod, as internal/codegen does for operands that
// could be NaN; / and mod still produce NaN outputs (0/0, x mod 0).
func SanitizeArithInput(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
