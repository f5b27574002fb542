// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "testing"

func TestToBool(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{String("true"), true},
		{String("false"), false},
		{String("0"), false},
		{String("1"), true},
		{String("0.0"), true},
		{String(""), true},
		{Number(0), false},
		{Number(1), true},
		{Bool(true), true},
		{Bool(false), false},
	}
	for _, tt := range tests {
		if got := tt.v.ToBool(); got != tt.want {
			t.Errorf("ToBool(%+v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
	}{
		{String("0x10"), 16},
		{String("0b10"), 2},
		{String("1e3"), 1000},
		{String("garbage"), 0},
		{Bool(true), 1},
		{Bool(false), 0},
		{Number(42.5), 42.5},
	}
	for _, tt := range tests {
		if got := tt.v.ToNumber(); got != tt.want {
			t.Errorf("ToNumber(%+v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestToStringValue(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(2e22), "2e+22"},
		{Number(2e-22), "2e-22"},
		{Number(6.9), "6.9"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{String("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.ToStringValue(); got != tt.want {
			t.Errorf("ToStringValue(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestCloneDeepCopiesString(t *testing.T) {
	v := String("hello")
	c := v.Clone()
	if c.Str != v.Str {
		t.Fatalf("clone mismatch: %q vs %q", c.Str, v.Str)
	}
	c.Drop()
	if v.Str != "hello" {
		t.Fatalf("dropping clone mutated original: %q", v.Str)
	}
}

func TestStringJoinAndLen(t *testing.T) {
	got := StringJoin(String("hello "), String("world"))
	if got.Str != "hello world" {
		t.Fatalf("StringJoin = %q", got.Str)
	}
	if n := StringLen(String("hello")); n != 5 {
		t.Fatalf("StringLen = %d, want 5", n)
	}
}
