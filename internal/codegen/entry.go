// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import "unsafe"

// callCompiled is implemented in entry_amd64.s.
//
//go:noescape
func callCompiled(entry uintptr, label int64, loopStack unsafe.Pointer, argsBuf unsafe.Pointer, heap unsafe.Pointer) int64
