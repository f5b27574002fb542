// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimehelpers

import "github.com/hatrun/stagejit/internal/codegen"

// init binds every symbol NewRuntimeSymbols interns to the trampoline
// bridging it to the Go function implementing it (trampolines.go), so
// the first compiled script that CALLs, say, stagejit.op_mod lands on
// an ABI0-call-compatible entry point rather than on ABIMod's own
// ABIInternal entry point, which a bare CALL from JIT-compiled code
// cannot satisfy. Registration happens once at process start-up
// regardless of whether any script ever exercises a given helper.
func init() {
	codegen.RegisterHelper("stagejit.to_bool", trampolineToBool)
	codegen.RegisterHelper("stagejit.to_number", trampolineToNumber)
	codegen.RegisterHelper("stagejit.drop_obj", trampolineDropObj)
	codegen.RegisterHelper("stagejit.op_str_join", trampolineStrJoin)
	codegen.RegisterHelper("stagejit.op_str_len", trampolineStrLen)
	codegen.RegisterHelper("stagejit.op_str_letter_of", trampolineStrLetterOf)
	codegen.RegisterHelper("stagejit.op_str_contains", trampolineStrContains)
	codegen.RegisterHelper("stagejit.stack_push", trampolineStackPush)
	codegen.RegisterHelper("stagejit.stack_pop", trampolineStackPop)
	codegen.RegisterHelper("stagejit.op_mod", trampolineMod)
	codegen.RegisterHelper("stagejit.op_random", trampolineRandom)
	codegen.RegisterHelper("stagejit.op_equals", trampolineEquals)

	codegen.RegisterHelper("stagejit.custom_block.call_no_screen_refresh", trampolineCallNoScreenRefresh)
	codegen.RegisterHelper("stagejit.custom_block.call_screen_refresh", trampolineCallScreenRefresh)

	codegen.RegisterHelper("stagejit.render.go_to", trampolineRenderGoTo)
	codegen.RegisterHelper("stagejit.render.set_x", trampolineRenderSetX)
	codegen.RegisterHelper("stagejit.render.set_y", trampolineRenderSetY)
	codegen.RegisterHelper("stagejit.render.change_x", trampolineRenderChangeX)
	codegen.RegisterHelper("stagejit.render.change_y", trampolineRenderChangeY)
	codegen.RegisterHelper("stagejit.render.get_x", trampolineRenderGetX)
	codegen.RegisterHelper("stagejit.render.get_y", trampolineRenderGetY)
}
