// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

const calibrationSamples = 10

// Timing is the calibrated measurement of the last successful operation.
// With mode 2, Start, Wait and End are the phases either side of the op-done
// wait (or the quadlet loop of a block) and sum to Total.
type Timing struct {
	Op                      string
	Total, Start, Wait, End time.Duration
}

func us(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }

func (t Timing) String() string {
	return fmt.Sprintf("%s total time = %.3f us", t.Op, us(t.Total))
}

func (b *Bus) TimingMode() uint        { return b.timing }
func (b *Bus) Overhead() time.Duration { return b.overhead }
func (b *Bus) LastTiming() Timing      { return b.last }

// SetTimingMode selects 0 (off), 1 (total) or 2 (total and phases) and
// calibrates the cost of a time stamp.
func (b *Bus) SetTimingMode(mode uint) error {
	if mode > 2 {
		return fmt.Errorf("emio: timing mode %d: %w", mode, ErrUnsupported)
	}
	b.timing = mode
	b.overhead = 0
	if mode == 0 {
		return nil
	}
	samples := make([]float64, calibrationSamples)
	for i := range samples {
		t0 := time.Now()
		t1 := time.Now()
		samples[i] = float64(t1.Sub(t0))
	}
	b.overhead = time.Duration(stat.Mean(samples, nil))
	if b.verbose {
		b.logf("Calibrated timing overhead of %.3f us", us(b.overhead))
	}
	return nil
}

// stopwatch marks start, phase and end of one operation; a nil stopwatch
// (timing off) ignores its marks.
type stopwatch struct {
	b      *Bus
	op     string
	phases string
	t0     time.Time
	t1, t2 time.Time
}

func (b *Bus) stopwatch(op, phases string) *stopwatch {
	if b.timing == 0 {
		return nil
	}
	return &stopwatch{b: b, op: op, phases: phases, t0: time.Now()}
}

func (sw *stopwatch) mark() {
	if sw == nil || sw.b.timing < 2 {
		return
	}
	if sw.t1.IsZero() {
		sw.t1 = time.Now()
	} else {
		sw.t2 = time.Now()
	}
}

func (sw *stopwatch) stop() {
	if sw == nil {
		return
	}
	t3 := time.Now()
	if sw.t1.IsZero() {
		sw.t1 = sw.t0
	}
	if sw.t2.IsZero() {
		sw.t2 = t3
	}
	b := sw.b
	oh := b.overhead
	t := Timing{Op: sw.op}
	if b.timing < 2 {
		t.Total = t3.Sub(sw.t0) - oh
	} else {
		t.Total = t3.Sub(sw.t0) - 3*oh
		t.Start = sw.t1.Sub(sw.t0) - oh
		t.Wait = sw.t2.Sub(sw.t1) - oh
		t.End = t3.Sub(sw.t2) - oh
	}
	b.last = t
	b.logf("%s", t)
	if b.timing > 1 {
		b.logf("%s times = %.3f, %.3f, %.3f us", sw.phases,
			us(t.Start), us(t.Wait), us(t.End))
	}
}
