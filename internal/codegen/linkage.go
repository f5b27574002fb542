// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"encoding/binary"
	"reflect"
	"sync"
)

var (
	helperMu   sync.RWMutex
	helperAddr = map[string]uintptr{}
)

// RegisterHelper associates a runtime-helper symbol name (as minted
// by NewRuntimeSymbols) with the Go function compiled code should
// land in when it CALLs that symbol. internal/runtimehelpers calls
// this once at start-up for every helper it implements; resolveRelocs consults the registry while assembling
// each compiled script.
func RegisterHelper(name string, fn interface{}) {
	addr := reflect.ValueOf(fn).Pointer()
	helperMu.Lock()
	helperAddr[name] = addr
	helperMu.Unlock()
}

func lookupHelperAddr(name string) (uintptr, bool) {
	helperMu.RLock()
	defer helperMu.RUnlock()
	addr, ok := helperAddr[name]
	return addr, ok
}

// patchCallRel32 overwrites the 32-bit PC-relative displacement a
// CALL instruction's relocation points at so it lands on target. This
// is the one piece of "linking" this JIT does itself, since every
// relocation a compiled script carries targets this process's own
// runtime-helper table rather than another compilation unit.
//
// codeBase is the address the code ultimately executes from (the
// exec.CodeMapping's Entry()), not the address of the temporary
// buffer the bytes may have started in — the displacement is only
// meaningful relative to where the CPU will actually fetch the next
// instruction from.
func patchCallRel32(mem []byte, codeBase uintptr, off int32, target uintptr) {
	dispAddr := codeBase + uintptr(off)
	nextInsn := dispAddr + 4
	disp := int64(target) - int64(nextInsn)
	binary.LittleEndian.PutUint32(mem[off:off+4], uint32(int32(disp)))
}
