// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"io"
	"time"

	"github.com/google/pprof/profile"
)

// Profiler samples the wall-clock duration of every Tick call and
// assembles a pprof profile.Profile from them on demand — a
// programmatic alternative to runtime/pprof's CPU sampling, used when
// the caller wants a profile scoped exactly to scheduler ticks rather
// than the whole process.
type Profiler struct {
	samples []int64 // nanoseconds per tick
}

// Wrap returns a Tick function that records one sample per call
// before delegating to s.Tick.
func (p *Profiler) Wrap(s *Scheduler) func() bool {
	return func() bool {
		start := time.Now()
		done := s.Tick()
		p.samples = append(p.samples, time.Since(start).Nanoseconds())
		return done
	}
}

// WriteTo assembles the recorded samples into a gzip-encoded pprof
// profile and writes it to w, in the same format `go tool pprof`
// reads.
func (p *Profiler) WriteTo(w io.Writer) error {
	valueType := &profile.ValueType{Type: "cpu", Unit: "nanoseconds"}
	fn := &profile.Function{ID: 1, Name: "scheduler.Tick", SystemName: "scheduler.Tick"}
	loc := &profile.Location{ID: 1, Line: []profile.Line{{Function: fn}}}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{valueType},
		Function:   []*profile.Function{fn},
		Location:   []*profile.Location{loc},
		TimeNanos:  time.Now().UnixNano(),
	}
	for _, ns := range p.samples {
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{ns},
		})
	}
	return prof.Write(w)
}
