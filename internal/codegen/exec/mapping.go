// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec manages the executable memory mappings compiled
// scripts run from. Spec §4.E requires the generator's output land in
// an anonymous mapping that is made executable and non-writable;
// spec §9 requires that mapping be shareable, via reference counting,
// across every Thread clone that reuses the same compiled code.
package exec

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CodeMapping owns one W^X page range holding a compiled script's
// machine code. It is reference counted so a Thread (internal/thread)
// can be cloned for a re-entrant custom-block call without copying
// the underlying code.
type CodeMapping struct {
	mem      []byte
	entry    uintptr
	refcount *int32
}

// New copies code into a fresh anonymous mapping, then switches the
// mapping from RW to RX so the page is never simultaneously writable
// and executable. Use NewWritable instead when the caller still needs
// to patch relocations against the mapping's final address.
func New(code []byte) (*CodeMapping, error) {
	m, err := NewWritable(code)
	if err != nil {
		return nil, err
	}
	if err := m.Finalize(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewWritable copies code into a fresh anonymous RW mapping without
// switching it to executable yet. internal/codegen uses this to learn
// the mapping's final address before patching CALL relocations whose
// PC-relative displacement depends on it, then calls Finalize.
func NewWritable(code []byte) (*CodeMapping, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("exec: empty machine code")
	}
	mem, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("exec: mmap: %w", err)
	}
	copy(mem, code)
	rc := int32(1)
	return &CodeMapping{
		mem:      mem,
		entry:    uintptr(unsafe.Pointer(&mem[0])),
		refcount: &rc,
	}, nil
}

// Finalize switches the mapping from RW to RX so the page is never
// simultaneously writable and executable (spec §4.E).
func (m *CodeMapping) Finalize() error {
	if err := unix.Mprotect(m.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(m.mem)
		return fmt.Errorf("exec: mprotect RX: %w", err)
	}
	return nil
}

// Entry returns the address of the first instruction.
func (m *CodeMapping) Entry() uintptr { return m.entry }

// Bytes exposes the mapping's backing memory for in-place relocation
// patching before Finalize is called. Callers must not retain the
// slice past Finalize.
func (m *CodeMapping) Bytes() []byte { return m.mem }

// Clone returns a new handle to the same underlying pages, bumping
// the refcount. Used when a Thread is cloned for a re-entrant
// invocation of the same compiled script (spec §9: cross-thread code
// sharing).
func (m *CodeMapping) Clone() *CodeMapping {
	atomic.AddInt32(m.refcount, 1)
	return &CodeMapping{mem: m.mem, entry: m.entry, refcount: m.refcount}
}

// Release drops this handle's share of the mapping, unmapping the
// pages once the last clone is released.
func (m *CodeMapping) Release() error {
	if atomic.AddInt32(m.refcount, -1) > 0 {
		return nil
	}
	return unix.Munmap(m.mem)
}
