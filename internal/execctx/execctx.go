// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package execctx holds the one piece of state every runtime helper
// needs but no compiled-function register carries directly: which
// scheduler and renderer the currently executing script belongs to.
// Because scheduling is strictly single-threaded and cooperative (spec
// §5 — only one script ever runs at a time, between yields), a single
// package-level slot set by internal/thread immediately before
// invoking compiled code is sufficient; there is never a second
// script executing concurrently that could race it.
//
// Scheduler and Renderer are stored as interface{} rather than typed
// references to internal/thread's Scheduler/Renderer interfaces, so
// this package sits below internal/thread in the dependency graph
// instead of beside it; internal/runtimehelpers, the only reader,
// type-asserts back to the concrete interfaces it needs.
package execctx

type Context struct {
	Scheduler interface{}
	Renderer  interface{}
	SpriteID  int
}

var current *Context

// Set installs ctx as current for the duration of one Tick call.
// internal/thread calls this immediately before invoking compiled
// code and clears it immediately after; it is never held across a
// yield boundary longer than that single call.
func Set(ctx *Context) { current = ctx }

// Current returns the context installed by the innermost Set call, or
// nil outside a Tick.
func Current() *Context { return current }
