// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thread

import (
	"testing"

	"github.com/hatrun/stagejit/internal/value"
)

func TestLoopStateStackPushPop(t *testing.T) {
	var s LoopStateStack
	if !s.Empty() {
		t.Fatal("fresh stack should be empty")
	}
	s.Push(1)
	s.Push(2)
	if s.Empty() {
		t.Fatal("stack with pushes should not be empty")
	}
	if v := s.Pop(); v != 2 {
		t.Fatalf("Pop() = %d, want 2", v)
	}
	if v := s.Pop(); v != 1 {
		t.Fatalf("Pop() = %d, want 1", v)
	}
	if !s.Empty() {
		t.Fatal("stack should be empty after draining")
	}
}

func TestLoopStateStackPopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping empty stack")
		}
	}()
	var s LoopStateStack
	s.Pop()
}

type fakeScheduler struct{}

func (fakeScheduler) InvokeCustomBlock(id int, args []value.Value, isPausable bool) *Thread {
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) GoTo(int, float64, float64) {}
func (fakeRenderer) SetX(int, float64)          {}
func (fakeRenderer) SetY(int, float64)          {}
func (fakeRenderer) ChangeX(int, float64)       {}
func (fakeRenderer) ChangeY(int, float64)       {}
func (fakeRenderer) GetX(int) float64           { return 0 }
func (fakeRenderer) GetY(int) float64           { return 0 }

func TestTickAdvancesAndTerminates(t *testing.T) {
	calls := 0
	fn := func(label int64, stack *LoopStateStack, args []value.Value, heap []byte, sched Scheduler, r Renderer, pausable bool) int64 {
		calls++
		if label == 0 {
			return 1
		}
		return Terminated
	}
	th := New(3, nil, fn, nil)
	th.jumpedPoint = 0

	if done := th.Tick(fakeScheduler{}, fakeRenderer{}); done {
		t.Fatal("thread should not be terminated after first tick")
	}
	if done := th.Tick(fakeScheduler{}, fakeRenderer{}); !done {
		t.Fatal("thread should be terminated after second tick")
	}
	if !th.Terminated() {
		t.Fatal("Terminated() should report true")
	}
	if calls != 2 {
		t.Fatalf("fn called %d times, want 2", calls)
	}
}

func TestSpawnResetsState(t *testing.T) {
	fn := func(label int64, stack *LoopStateStack, args []value.Value, heap []byte, sched Scheduler, r Renderer, pausable bool) int64 {
		return Terminated
	}
	parent := New(1, nil, fn, nil)
	child := parent.Spawn(true, []value.Value{value.Number(1)})
	if child.jumpedPoint != 0 {
		t.Fatalf("Spawn should reset resume label to 0, got %d", child.jumpedPoint)
	}
	if !child.isPausable {
		t.Fatal("Spawn should preserve pausable flag")
	}
}
