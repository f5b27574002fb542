// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package valueabi defines the four-word wire representation of
// value.Value that crosses the compiled-function ABI (internal/codegen)
// in both directions: internal/runtimehelpers decodes it on the way
// into a runtime helper, and internal/codegen's Bind encodes it on the
// way into a freshly spawned script's argument buffer. Kept separate
// from both so neither has to import the other.
package valueabi

import (
	"math"

	"github.com/hatrun/stagejit/internal/literalpool"
	"github.com/hatrun/stagejit/internal/value"
)

// Word is one of the four machine words internal/stackcache reserves
// per Value: word[0] is the kind discriminant, word[1] the payload —
// a float64 bit pattern, a 0/1 bool, or a literalpool.Intern index.
// word[2] and word[3] are reserved for a future payload wider than
// one word and are untouched by Encode/Decode.
type Word = int64

const (
	KindNumber Word = iota
	KindBool
	KindString
)

// Decode reads the Value p's four words represent.
func Decode(p *[4]Word) value.Value {
	switch p[0] {
	case KindNumber:
		return value.Number(math.Float64frombits(uint64(p[1])))
	case KindBool:
		return value.Bool(p[1] != 0)
	case KindString:
		return value.String(literalpool.At(p[1]))
	}
	return value.Value{}
}

// Encode writes v's wire representation into p.
func Encode(v value.Value, p *[4]Word) {
	switch v.Kind {
	case value.KindNumber:
		p[0] = KindNumber
		p[1] = int64(math.Float64bits(v.Num))
	case value.KindBool:
		p[0] = KindBool
		p[1] = 0
		if v.B {
			p[1] = 1
		}
	default:
		p[0] = KindString
		p[1] = literalpool.Intern(v.Str)
	}
}
