// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package constpool

import (
	"math"
	"testing"
)

func TestGetIntDedups(t *testing.T) {
	p := New()
	calls := 0
	materialise := func(n int64) Handle { calls++; return n }
	p.GetInt(5, materialise)
	p.GetInt(5, materialise)
	p.GetInt(6, materialise)
	if calls != 2 {
		t.Fatalf("materialise called %d times, want 2", calls)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
}

func TestGetFloatNaNAware(t *testing.T) {
	p := New()
	calls := 0
	materialise := func(f float64) Handle { calls++; return calls }
	h1 := p.GetFloat(math.NaN(), materialise)
	h2 := p.GetFloat(math.NaN(), materialise)
	if calls != 1 {
		t.Fatalf("materialise called %d times for NaN, want 1", calls)
	}
	if h1 != h2 {
		t.Fatalf("NaN handles differ: %v vs %v", h1, h2)
	}
}

func TestClearResetsPool(t *testing.T) {
	p := New()
	p.GetInt(1, func(n int64) Handle { return n })
	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", p.Len())
	}
}
