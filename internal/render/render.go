// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render implements the one concrete thread.Renderer the
// command-line tools ship with: a headless sprite-position table with
// no graphics output. Spec §1 treats the renderer as an external
// collaborator the runtime merely agrees on a contract with — a real
// graphics backend is explicitly out of scope, so this is a minimal
// stand-in that lets scripts using the motion blocks run and be
// inspected, not a rendering system.
package render

import "sync"

// Sprite holds the per-sprite state the motion blocks mutate.
type Sprite struct {
	X, Y float64
}

// State is a headless implementation of thread.Renderer: a table of
// sprite positions guarded by a mutex. The scheduler only ever calls
// it from its own single tick loop (spec §5), so the lock exists for
// callers outside that loop — a disassembly or inspection tool reading
// positions concurrently with a running scheduler — rather than any
// real contention on the hot path.
type State struct {
	mu      sync.Mutex
	sprites map[int]*Sprite
}

// New returns a State with every sprite id in spriteIDs initialised
// to the origin.
func New(spriteIDs []int) *State {
	s := &State{sprites: make(map[int]*Sprite, len(spriteIDs))}
	for _, id := range spriteIDs {
		s.sprites[id] = &Sprite{}
	}
	return s
}

func (s *State) sprite(id int) *Sprite {
	sp, ok := s.sprites[id]
	if !ok {
		sp = &Sprite{}
		s.sprites[id] = sp
	}
	return sp
}

func (s *State) GoTo(spriteID int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.sprite(spriteID)
	sp.X, sp.Y = x, y
}

func (s *State) SetX(spriteID int, x float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprite(spriteID).X = x
}

func (s *State) SetY(spriteID int, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprite(spriteID).Y = y
}

func (s *State) ChangeX(spriteID int, dx float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprite(spriteID).X += dx
}

func (s *State) ChangeY(spriteID int, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprite(spriteID).Y += dy
}

func (s *State) GetX(spriteID int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sprite(spriteID).X
}

func (s *State) GetY(spriteID int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sprite(spriteID).Y
}

// Snapshot returns a copy of every sprite's current position, sorted
// by no particular order — callers needing draw order should consult
// the project's sprite list instead.
func (s *State) Snapshot() map[int]Sprite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]Sprite, len(s.sprites))
	for id, sp := range s.sprites {
		out[id] = *sp
	}
	return out
}
