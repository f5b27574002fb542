// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"unsafe"

	"github.com/hatrun/stagejit/internal/stackcache"
	"github.com/hatrun/stagejit/internal/thread"
	"github.com/hatrun/stagejit/internal/value"
	"github.com/hatrun/stagejit/internal/valueabi"
)

// Bind adapts r's raw machine-code entry point into the
// thread.CompiledFunc signature the scheduler drives threads through.
// Every call marshals the caller-supplied Values into a fresh
// argument buffer laid out exactly as prologue expects it (four words
// per argument, in declaration order) and hands the loop-state stack
// and variable heap pointers straight through to callCompiled.
func (r *CompileResult) Bind() thread.CompiledFunc {
	entry := r.Code.Entry()
	numArgs := r.NumArgs
	return func(label int64, stack *thread.LoopStateStack, args []value.Value, heap []byte, _ thread.Scheduler, _ thread.Renderer, _ bool) int64 {
		buf := make([]byte, numArgs*stackcache.SlotBytes)
		for i := 0; i < numArgs && i < len(args); i++ {
			cell := (*[stackcache.WordsPerValue]valueabi.Word)(unsafe.Pointer(&buf[i*stackcache.SlotBytes]))
			valueabi.Encode(args[i], cell)
		}
		return callCompiled(entry, label, unsafe.Pointer(stack), bytesPtr(buf), bytesPtr(heap))
	}
}

// bytesPtr returns a pointer to b's first byte, or nil for an empty
// slice — taking &b[0] of a zero-length slice panics.
func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
