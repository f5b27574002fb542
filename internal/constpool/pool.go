// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package constpool implements the per-function deduplicated constant
// pool described in spec §4.C: one iconst/fconst per unique value per
// basic block. Handles are block-local in the back end, so Clear must
// be called at every basic-block boundary.
package constpool

import "math"

// Handle is an opaque reference to a materialised constant, minted by
// the back end (internal/codegen) the first time a value is requested.
type Handle interface{}

type intKey int64

type stringKey string

// floatKey is ordered and NaN-aware: two NaN float64s compare equal as
// pool keys (they're both "the NaN constant"), unlike Go's built-in
// float64 equality where NaN != NaN.
type floatKey uint64

func keyForFloat(f float64) floatKey {
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return floatKey(math.Float64bits(f))
}

// Pool is a per-function-compilation constant pool.
type Pool struct {
	ints    map[intKey]Handle
	floats  map[floatKey]Handle
	strings map[stringKey]Handle
}

// New returns an empty pool ready for a fresh function compilation.
func New() *Pool {
	return &Pool{
		ints:    make(map[intKey]Handle),
		floats:  make(map[floatKey]Handle),
		strings: make(map[stringKey]Handle),
	}
}

// GetInt returns the existing handle for n, or calls materialise to
// create and cache one.
func (p *Pool) GetInt(n int64, materialise func(int64) Handle) Handle {
	k := intKey(n)
	if h, ok := p.ints[k]; ok {
		return h
	}
	h := materialise(n)
	p.ints[k] = h
	return h
}

// GetFloat returns the existing handle for f, or calls materialise to
// create and cache one. NaN-aware: every NaN shares one handle.
func (p *Pool) GetFloat(f float64, materialise func(float64) Handle) Handle {
	k := keyForFloat(f)
	if h, ok := p.floats[k]; ok {
		return h
	}
	h := materialise(f)
	p.floats[k] = h
	return h
}

// GetString returns the existing handle for s, or calls materialise to
// create and cache one.
func (p *Pool) GetString(s string, materialise func(string) Handle) Handle {
	k := stringKey(s)
	if h, ok := p.strings[k]; ok {
		return h
	}
	h := materialise(s)
	p.strings[k] = h
	return h
}

// Clear drops every cached handle. The back end's handles are
// block-local, so the code generator calls this at every basic-block
// boundary (function entry, loop header/body split, branch targets).
func (p *Pool) Clear() {
	for k := range p.ints {
		delete(p.ints, k)
	}
	for k := range p.floats {
		delete(p.floats, k)
	}
	for k := range p.strings {
		delete(p.strings, k)
	}
}

// Len reports the number of distinct constants currently cached,
// mainly useful for tests asserting dedup actually happened.
func (p *Pool) Len() int {
	return len(p.ints) + len(p.floats) + len(p.strings)
}
