// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the intermediate representation of block
// programs: a recursively defined tagged node plus the pure
// structural queries the code generator (internal/codegen) relies on.
package ir

// Ptr is a non-negative index into the process-wide variable heap.
// Variables are dense: the loader assigns indices in first-appearance
// order.
type Ptr int

// CustomBlockID stably identifies a custom-block definition. Call
// sites reference a custom block by this integer id rather than by
// pointer, so the IR stays an acyclic tree even though the same
// custom block may be called from many scripts.
type CustomBlockID int

// Op tags every Block node.
type Op int

const (
	OpInvalid Op = iota

	// Leaves.
	OpLiteralNumber
	OpLiteralString
	OpLiteralBool
	OpVarRead
	OpArgRead

	// Arithmetic / math.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMathUnary // Inputs[0] is the operand, Aux is the MathFn.
	OpRandom

	// String.
	OpStringJoin
	OpStringLetterOf
	OpStringLen
	OpStringContains

	// Comparison / logical.
	OpEquals
	OpLess
	OpGreater
	OpAnd
	OpOr
	OpNot

	// Motion.
	OpMotionGoTo
	OpMotionSetX
	OpMotionSetY
	OpMotionChangeX
	OpMotionChangeY
	OpMotionGetX
	OpMotionGetY

	// Statements / control flow.
	OpSeq // Inputs are a straight-line sequence of statements; a seq produces no value.
	OpVarSet
	OpVarChange
	OpControlIf
	OpControlIfElse
	OpControlRepeat      // counted repeat; Inputs[0] is the count expression, Inputs[1] is body.
	OpControlRepeatUntil // Inputs[0] is condition, Inputs[1] is body.
	OpScreenRefresh
	OpStopScript
	OpCallNonPausable // Aux is CustomBlockID; Inputs are argument expressions.
	OpCallPausable    // same shape, different ABI at codegen time.
)

// MathFn enumerates the unary math operators folded into OpMathUnary.
type MathFn int

const (
	MathAbs MathFn = iota
	MathSqrt
	MathFloor
	MathCeil
)

// Block is the IR's recursive node. Leaves carry their payload in Num
// / Str / Ptr / Aux; interior nodes carry children in Inputs. Each
// node exclusively owns its children — the tree never shares nodes or
// forms cycles, so walking it needs no visited-set.
type Block struct {
	Op     Op
	Inputs []*Block

	Num float64 // OpLiteralNumber
	Str string  // OpLiteralString, OpCallNonPausable/Pausable comparisons n/a
	Bl  bool    // OpLiteralBool

	Var Ptr // OpVarRead, OpVarSet, OpVarChange, OpArgRead (argument slot)

	Aux int // MathFn for OpMathUnary; CustomBlockID for OpCall*; num-args for OpArgRead's owning script (unused at node level)
}

// Trigger identifies what starts a script.
type Trigger struct {
	Kind TriggerKind

	// CustomBlock fields, valid when Kind == TriggerCustomBlock.
	CustomBlockID CustomBlockID
	NumArgs       int
	IsPausable    bool
}

type TriggerKind int

const (
	TriggerGreenFlag TriggerKind = iota
	TriggerCustomBlock
)

// Script is a body of IR blocks plus the trigger that starts it.
type Script struct {
	Trigger Trigger
	Body    *Block // OpSeq in the common case.
}

// CustomBlockDef records a custom-block definition: its stable id,
// argument count, argument-name to slot map, and pausable flag. The
// loader (internal/loader) populates these, consults IsPausable to pick
// each call site's opcode, and copies NumArgs and IsPausable into the
// definition Script's Trigger.
type CustomBlockDef struct {
	ID         CustomBlockID
	Name       string // display name from the manifest, used by tooling (e.g. disasm) only
	NumArgs    int
	ArgSlots   map[string]int // argument name -> slot in the argument buffer
	IsPausable bool
	Script     *Script
}

// Sprite owns an ordered list of scripts. Project fixes
// the draw order the scheduler uses for tie-breaking.
type Sprite struct {
	Name    string
	Scripts []*Script
}

// Project is the loader's output: ordered sprites (draw order, first
// to last) plus the custom-block table shared across all sprites.
type Project struct {
	Sprites      []*Sprite
	CustomBlocks map[CustomBlockID]*CustomBlockDef
	NumVars      int // size of the variable heap this project requires
}
