// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/thread"
	"github.com/hatrun/stagejit/internal/value"
)

type fakeRenderer struct{}

func (fakeRenderer) GoTo(int, float64, float64) {}
func (fakeRenderer) SetX(int, float64)          {}
func (fakeRenderer) SetY(int, float64)          {}
func (fakeRenderer) ChangeX(int, float64)       {}
func (fakeRenderer) ChangeY(int, float64)       {}
func (fakeRenderer) GetX(int) float64           { return 0 }
func (fakeRenderer) GetY(int) float64           { return 0 }

// oneShotFn terminates on the first tick it sees.
func oneShotFn(label int64, stack *thread.LoopStateStack, args []value.Value, heap []byte, sched thread.Scheduler, r thread.Renderer, pausable bool) int64 {
	return thread.Terminated
}

// twoTickFn terminates on its second tick.
func twoTickFn(label int64, stack *thread.LoopStateStack, args []value.Value, heap []byte, sched thread.Scheduler, r thread.Renderer, pausable bool) int64 {
	if label == 0 {
		return 1
	}
	return thread.Terminated
}

func TestTickDrainsGroupToDone(t *testing.T) {
	s := New([]int{0, 1}, nil, nil, fakeRenderer{}, nil)
	a := thread.New(0, nil, twoTickFn, nil)
	th := a.Spawn(false, nil)
	s.StartGroup([]*thread.Thread{th})

	require.False(t, s.Tick())
	require.True(t, s.Tick())
}

func TestTickOrdersBySpriteDrawOrder(t *testing.T) {
	s := New([]int{5, 2}, nil, nil, fakeRenderer{}, nil)
	first := thread.New(5, nil, twoTickFn, nil)
	second := thread.New(2, nil, twoTickFn, nil)
	th1 := first.Spawn(false, nil)
	th2 := second.Spawn(false, nil)
	// StartGroup is given threads out of draw order (sprite 2 before
	// sprite 5); sortGroup should reorder to match spriteOrder, which
	// places sprite 5 ahead of sprite 2.
	s.StartGroup([]*thread.Thread{th2, th1})
	require.Len(t, s.groups, 1)
	require.Equal(t, 5, s.groups[0].threads[0].SpriteID)
	require.Equal(t, 2, s.groups[0].threads[1].SpriteID)
}

func TestInvokeCustomBlockSpawnsFreshThread(t *testing.T) {
	customBlocks := map[ir.CustomBlockID]*CompiledScript{
		7: {Fn: oneShotFn, NumArgs: 1},
	}
	s := New([]int{0}, customBlocks, make([]byte, 32), fakeRenderer{}, nil)
	child := s.InvokeCustomBlock(7, []value.Value{value.Number(1)}, false)
	require.NotNil(t, child)
	require.False(t, child.Terminated())
}

func TestInvokeCustomBlockUnknownIDPanics(t *testing.T) {
	s := New([]int{0}, map[ir.CustomBlockID]*CompiledScript{}, nil, fakeRenderer{}, nil)
	require.Panics(t, func() {
		s.InvokeCustomBlock(42, nil, false)
	})
}
