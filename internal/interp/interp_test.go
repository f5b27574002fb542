// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/value"
)

func seq(blocks ...*ir.Block) *ir.Block { return &ir.Block{Op: ir.OpSeq, Inputs: blocks} }

func num(n float64) *ir.Block { return &ir.Block{Op: ir.OpLiteralNumber, Num: n} }

func TestVarSetAndChange(t *testing.T) {
	in := &Interp{Heap: make([]value.Value, 1)}
	body := seq(
		&ir.Block{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{num(10)}},
		&ir.Block{Op: ir.OpVarChange, Var: 0, Inputs: []*ir.Block{num(5)}},
	)
	in.Run(body, nil)
	require.Equal(t, 15.0, in.Heap[0].Num)
}

func TestRepeatUntil(t *testing.T) {
	in := &Interp{Heap: make([]value.Value, 1)}
	cond := &ir.Block{Op: ir.OpGreater, Inputs: []*ir.Block{
		&ir.Block{Op: ir.OpVarRead, Var: 0}, num(9),
	}}
	body := seq(&ir.Block{
		Op:     ir.OpControlRepeatUntil,
		Inputs: []*ir.Block{cond, &ir.Block{Op: ir.OpVarChange, Var: 0, Inputs: []*ir.Block{num(1)}}},
	})
	in.Run(body, nil)
	require.Equal(t, 10.0, in.Heap[0].Num)
}

func TestStopScriptUnwindsNestedIf(t *testing.T) {
	in := &Interp{Heap: make([]value.Value, 1)}
	body := seq(
		&ir.Block{Op: ir.OpControlIf, Inputs: []*ir.Block{
			&ir.Block{Op: ir.OpLiteralBool, Bl: true},
			seq(&ir.Block{Op: ir.OpStopScript}),
		}},
		&ir.Block{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{num(99)}},
	)
	in.Run(body, nil)
	require.Equal(t, value.Value{}, in.Heap[0])
}

func TestModMatchesRuntimeHelperFloorMod(t *testing.T) {
	in := &Interp{Heap: make([]value.Value, 1)}
	in.Run(seq(&ir.Block{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{
		&ir.Block{Op: ir.OpMod, Inputs: []*ir.Block{num(-7), num(3)}},
	}}), nil)
	require.Equal(t, 2.0, in.Heap[0].Num)
}

func TestArgReadFromInvocationArgs(t *testing.T) {
	in := &Interp{Heap: make([]value.Value, 1)}
	body := seq(&ir.Block{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{
		&ir.Block{Op: ir.OpAdd, Inputs: []*ir.Block{
			&ir.Block{Op: ir.OpArgRead, Var: 0},
			&ir.Block{Op: ir.OpArgRead, Var: 0},
		}},
	}})
	in.Run(body, []value.Value{value.Number(21)})
	require.Equal(t, 42.0, in.Heap[0].Num)
}

func TestStringLetterOfAndContains(t *testing.T) {
	in := &Interp{}
	letter := in.eval(&ir.Block{Op: ir.OpStringLetterOf, Inputs: []*ir.Block{
		num(2), &ir.Block{Op: ir.OpLiteralString, Str: "cat"},
	}})
	require.Equal(t, "a", letter.Str)

	contains := in.eval(&ir.Block{Op: ir.OpStringContains, Inputs: []*ir.Block{
		&ir.Block{Op: ir.OpLiteralString, Str: "Scratch"},
		&ir.Block{Op: ir.OpLiteralString, Str: "RAT"},
	}})
	require.True(t, contains.B)
}
