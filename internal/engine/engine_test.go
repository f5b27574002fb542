// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/render"
	// Registers every stagejit.* runtime-helper symbol a compiled
	// script can CALL into; cmd/stagejit imports this in production,
	// so tests exercising a real runtime-helper call must import it
	// too or every such call resolves to an unregistered symbol.
	_ "github.com/hatrun/stagejit/internal/runtimehelpers"
	"github.com/hatrun/stagejit/internal/stackcache"
	"github.com/hatrun/stagejit/internal/value"
	"github.com/hatrun/stagejit/internal/valueabi"
)

func TestBuildAndRunGreenFlagTerminates(t *testing.T) {
	project := &ir.Project{
		Sprites: []*ir.Sprite{{
			Name: "Sprite1",
			Scripts: []*ir.Script{{
				Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag},
				Body: &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
					{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 7}}},
				}},
			}},
		}},
		CustomBlocks: map[ir.CustomBlockID]*ir.CustomBlockDef{},
		NumVars:      1,
	}

	eng, err := Build(project, render.New([]int{0}), zap.NewNop())
	require.NoError(t, err)

	ticks := 0
	eng.RunGreenFlag(func() bool {
		ticks++
		require.Less(t, ticks, 1000, "scheduler never drained")
		return eng.Tick()
	})
}

// readVar decodes the value a compiled script left at ptr in the
// engine's shared variable heap.
func readVar(heap []byte, ptr int) value.Value {
	off := ptr * stackcache.SlotBytes
	var words [4]valueabi.Word
	for w := 0; w < stackcache.WordsPerValue; w++ {
		words[w] = int64(binary.LittleEndian.Uint64(heap[off+w*stackcache.WordSize:]))
	}
	return valueabi.Decode(&words)
}

func runToCompletion(t *testing.T, eng *Engine) {
	t.Helper()
	ticks := 0
	eng.RunGreenFlag(func() bool {
		ticks++
		require.Less(t, ticks, 1000, "scheduler never drained")
		return eng.Tick()
	})
}

// TestRuntimeHelperCallProducesCorrectResult drives VarSet(Mod(-7, 3))
// through the real compiled path (internal/codegen + internal/thread),
// not internal/interp: Mod is one of the runtime helpers every
// compiled script calls back into rather than inlining, so this only
// passes if the call site's argument marshalling and the trampoline
// bridging compiled code's register convention to ABIMod's real Go
// ABI0 entry point both agree on where the two operands land.
func TestRuntimeHelperCallProducesCorrectResult(t *testing.T) {
	project := &ir.Project{
		Sprites: []*ir.Sprite{{
			Name: "Sprite1",
			Scripts: []*ir.Script{{
				Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag},
				Body: &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
					{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{
						{Op: ir.OpMod, Inputs: []*ir.Block{
							{Op: ir.OpLiteralNumber, Num: -7},
							{Op: ir.OpLiteralNumber, Num: 3},
						}},
					}},
				}},
			}},
		}},
		CustomBlocks: map[ir.CustomBlockID]*ir.CustomBlockDef{},
		NumVars:      1,
	}

	eng, err := Build(project, render.New([]int{0}), zap.NewNop())
	require.NoError(t, err)
	runToCompletion(t, eng)

	require.Equal(t, 2.0, readVar(eng.Heap, 0).Num)
}

// TestStringJoinRuntimeHelperLoop runs a 100-iteration counted repeat
// that appends letter 1 of the literal "x" onto a string variable by
// way of op_str_letter_of and op_str_join on every pass, the
// scenario spec §8 names as the string-join correctness check. Both
// helpers take two pointer operands plus an out pointer; a register
// clobber in either the call site or its trampoline reliably corrupts
// the join after the first iteration or crashes outright, so this only
// passes end to end.
func TestStringJoinRuntimeHelperLoop(t *testing.T) {
	body := &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
		{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{{Op: ir.OpLiteralString, Str: ""}}},
		{Op: ir.OpControlRepeat, Inputs: []*ir.Block{
			{Op: ir.OpLiteralNumber, Num: 100},
			&ir.Block{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{
				{Op: ir.OpStringJoin, Inputs: []*ir.Block{
					{Op: ir.OpVarRead, Var: 0},
					{Op: ir.OpStringLetterOf, Inputs: []*ir.Block{
						{Op: ir.OpLiteralNumber, Num: 1},
						{Op: ir.OpLiteralString, Str: "x"},
					}},
				}},
			}},
		}},
	}}

	project := &ir.Project{
		Sprites: []*ir.Sprite{{
			Name:    "Sprite1",
			Scripts: []*ir.Script{{Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag}, Body: body}},
		}},
		CustomBlocks: map[ir.CustomBlockID]*ir.CustomBlockDef{},
		NumVars:      1,
	}

	eng, err := Build(project, render.New([]int{0}), zap.NewNop())
	require.NoError(t, err)
	runToCompletion(t, eng)

	got := readVar(eng.Heap, 0)
	require.Equal(t, value.KindString, got.Kind)
	require.Len(t, got.Str, 100)
	for _, r := range got.Str {
		require.Equal(t, 'x', r)
	}
}

// TestPausableRepeatResumesAcrossYields drives a pausable counted
// repeat (its body contains an explicit ScreenRefresh, so
// CouldRefreshScreen marks the whole script pausable) through
// multiple scheduler ticks. Every tick but the last calls back into
// the compiled entry point with a nonzero resume label; before the
// resume dispatch cascade was implemented, every call — fresh or
// resumed — fell into the same linear path starting at label 0, so
// the loop counter would never advance past its first yield and the
// script would re-run the same iteration forever, eventually tripping
// the tick ceiling below instead of reaching the expected final value.
func TestPausableRepeatResumesAcrossYields(t *testing.T) {
	body := &ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
		{Op: ir.OpVarSet, Var: 0, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 0}}},
		{Op: ir.OpControlRepeat, Inputs: []*ir.Block{
			{Op: ir.OpLiteralNumber, Num: 5},
			&ir.Block{Op: ir.OpSeq, Inputs: []*ir.Block{
				{Op: ir.OpVarChange, Var: 0, Inputs: []*ir.Block{{Op: ir.OpLiteralNumber, Num: 1}}},
				{Op: ir.OpScreenRefresh},
			}},
		}},
	}}

	project := &ir.Project{
		Sprites: []*ir.Sprite{{
			Name:    "Sprite1",
			Scripts: []*ir.Script{{Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag}, Body: body}},
		}},
		CustomBlocks: map[ir.CustomBlockID]*ir.CustomBlockDef{},
		NumVars:      1,
	}

	eng, err := Build(project, render.New([]int{0}), zap.NewNop())
	require.NoError(t, err)

	ticks := 0
	eng.RunGreenFlag(func() bool {
		ticks++
		require.Less(t, ticks, 20, "pausable repeat never drained within a sane tick budget")
		return eng.Tick()
	})
	require.Greater(t, ticks, 1, "a pausable script should need more than one tick")

	require.Equal(t, 5.0, readVar(eng.Heap, 0).Num)
}
