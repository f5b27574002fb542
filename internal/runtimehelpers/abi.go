// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimehelpers

import (
	"github.com/hatrun/stagejit/internal/value"
	"github.com/hatrun/stagejit/internal/valueabi"
)

// word is the wire representation internal/valueabi defines, aliased
// here so the ABI*/decodeArgBuffer signatures below read the same way
// they did before the encode/decode logic moved to its own package.
type word = valueabi.Word

func decodeValue(p *[4]word) value.Value { return valueabi.Decode(p) }

func encodeValue(v value.Value, p *[4]word) { valueabi.Encode(v, p) }

// ABIToBool is the stagejit.to_bool CALL target.
func ABIToBool(p *[4]word) int64 {
	if decodeValue(p).ToBool() {
		return 1
	}
	return 0
}

// ABIToNumber is the stagejit.to_number CALL target.
func ABIToNumber(p *[4]word) float64 {
	return decodeValue(p).ToNumber()
}

// ABIDropObj is the stagejit.drop_obj CALL target. The generator only
// ever emits this call for a slot it knows at compile time is owned,
// so unlike DropObj there is no isConstant flag to check here.
func ABIDropObj(p *[4]word) {
	v := decodeValue(p)
	v.Drop()
}

// ABIEquals is the stagejit.op_equals CALL target: numeric operands
// compare as floats, anything else compares by string rendering,
// matching the language's total equality semantics.
func ABIEquals(a, b *[4]word) int64 {
	av, bv := decodeValue(a), decodeValue(b)
	if av.Kind == value.KindNumber && bv.Kind == value.KindNumber {
		if av.Num == bv.Num {
			return 1
		}
		return 0
	}
	if av.ToStringValue() == bv.ToStringValue() {
		return 1
	}
	return 0
}

// ABIStrJoin is the stagejit.op_str_join CALL target; the joined
// result is written into out rather than returned, since a Value
// doesn't fit in the integer/float return registers a plain CALL has
// available.
func ABIStrJoin(a, b, out *[4]word) {
	encodeValue(OpStrJoin(decodeValue(a), decodeValue(b), true, true), out)
}

// ABIStrLen is the stagejit.op_str_len CALL target.
func ABIStrLen(p *[4]word) float64 {
	return float64(OpStrLen(decodeValue(p), true))
}

// ABIStrLetterOf is the stagejit.op_str_letter_of CALL target: index
// and s arrive as full Values (index's number payload is what
// matters) and the single-rune result is written into out.
func ABIStrLetterOf(index, s, out *[4]word) {
	encodeValue(OpStrLetterOf(decodeValue(index), decodeValue(s), true), out)
}

// ABIStrContains is the stagejit.op_str_contains CALL target.
func ABIStrContains(s, needle *[4]word) int64 {
	if OpStrContains(decodeValue(s), decodeValue(needle), true, true) {
		return 1
	}
	return 0
}
