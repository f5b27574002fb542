// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimehelpers

// A compiled script reaches every helper below through a bare amd64
// CALL (internal/codegen/amd64.Call) straight to the address
// RegisterHelper recorded for it, with arguments staged in the
// generator's own register convention (REGARG0-3) rather than Go's
// ABIInternal register assignment. Each ABIxxx function below is an
// ordinary Go function and so is only reachable that way through its
// auto-generated ABI0 wrapper, which expects arguments on the stack in
// declaration order, not in REGARG0-3.
//
// The trampolines declared here (implemented in trampolines_amd64.s)
// bridge the two: one per helper, reading the generator's registers
// and writing them into a stack frame shaped for the wrapped
// function's ABI0 entry point, the same way entry_amd64.s bridges the
// opposite direction for callCompiled. register.go binds each compiled
// script symbol to its trampoline instead of the raw ABIxxx function.
//
// Each has a zero-argument, zero-return Go signature: none of them is
// ever invoked through ordinary Go call syntax, only by address, so
// the declared signature only has to agree with its $framesize-0 TEXT
// directive.

func trampolineToBool()

func trampolineToNumber()

func trampolineDropObj()

func trampolineStrJoin()

func trampolineStrLen()

func trampolineStrLetterOf()

func trampolineStrContains()

func trampolineStackPush()

func trampolineStackPop()

func trampolineMod()

func trampolineRandom()

func trampolineEquals()

func trampolineCallNoScreenRefresh()

func trampolineCallScreenRefresh()

func trampolineRenderGoTo()

func trampolineRenderSetX()

func trampolineRenderSetY()

func trampolineRenderChangeX()

func trampolineRenderChangeY()

func trampolineRenderGetX()

func trampolineRenderGetY()
