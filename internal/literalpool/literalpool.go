// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package literalpool backs the one piece of static data a compiled
// script needs that golang-asm's back end cannot place for it: string
// literals. A compiled String Value carries an index into this
// process-wide table rather than a pointer to Go-managed string data,
// since the generator (internal/codegen) has no mechanism for baking
// arbitrary read-only data into its Prog stream the way a real linker
// would. internal/runtimehelpers resolves the index back to the
// string whenever compiled code passes a literal to a helper.
package literalpool

import "sync"

var (
	mu      sync.RWMutex
	strings []string
	index   = map[string]int64{}
)

// Intern returns s's stable index, assigning one on first sight.
func Intern(s string) int64 {
	mu.RLock()
	if i, ok := index[s]; ok {
		mu.RUnlock()
		return i
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if i, ok := index[s]; ok {
		return i
	}
	i := int64(len(strings))
	strings = append(strings, s)
	index[s] = i
	return i
}

// At returns the string interned at idx. idx always comes from a
// value this package itself produced via Intern, baked into compiled
// code as an immediate, so an out-of-range idx is a generator bug.
func At(idx int64) string {
	mu.RLock()
	defer mu.RUnlock()
	return strings[idx]
}
