// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hatrun/stagejit/internal/ir"
)

func emptyScript() *ir.Script {
	return &ir.Script{
		Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag},
		Body:    &ir.Block{Op: ir.OpSeq},
	}
}

func TestCompileEmptyScriptProducesMapping(t *testing.T) {
	ctxt := NewContext()
	helpers := NewRuntimeSymbols(ctxt)
	res, err := Compile(emptyScript(), ctxt, helpers)
	require.NoError(t, err)
	require.NotZero(t, res.Code.Entry())
	require.NoError(t, res.Code.Release())
}

func TestCompileListingIncludesEveryLoweredInstruction(t *testing.T) {
	ctxt := NewContext()
	helpers := NewRuntimeSymbols(ctxt)
	body := &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
		{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 42}}},
	}}
	script := &ir.Script{Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag}, Body: body}

	res, listing, err := CompileListing(script, ctxt, helpers)
	require.NoError(t, err)
	require.NotEmpty(t, listing)
	require.NoError(t, res.Code.Release())
}

func TestCompileReportsNumArgs(t *testing.T) {
	ctxt := NewContext()
	helpers := NewRuntimeSymbols(ctxt)
	script := &ir.Script{
		Trigger: ir.Trigger{Kind: ir.TriggerCustomBlock, NumArgs: 2},
		Body:    &ir.Block{Op: ir.OpSeq},
	}
	res, err := Compile(script, ctxt, helpers)
	require.NoError(t, err)
	require.Equal(t, 2, res.NumArgs)
	require.NoError(t, res.Code.Release())
}
