// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command stagejit loads a project bundle, JIT-compiles its scripts
// to native code, and runs its green-flag scripts to completion under
// the cooperative scheduler, or disassembles a single script's
// generated instructions without running anything.
package main

import (
	"fmt"
	"os"

	_ "github.com/hatrun/stagejit/internal/runtimehelpers" // registers CALL targets compiled code resolves against
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
