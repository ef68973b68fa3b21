// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"fmt"
	"io"
	"time"

	"github.com/platinasystems/log"
)

// Bus is a session on one Transport.
type Bus struct {
	t  Transport
	ew EventWaiter

	version  uint32
	isInput  bool
	released bool

	verbose bool
	events  bool
	timeout time.Duration

	timing   uint
	overhead time.Duration
	last     Timing

	w io.Writer
}

// New initializes the transport and returns a session on it. The transport
// is released if its version isn't supported.
func New(t Transport) (*Bus, error) {
	v, err := t.Init()
	if err != nil {
		return nil, fmt.Errorf("emio: init: %w", err)
	}
	if v > MaxVersion {
		err = fmt.Errorf("emio: %w %d", ErrVersion, v)
		if xerr := t.Release(); xerr != nil {
			err = fmt.Errorf("%w (release: %v)", err, xerr)
		}
		return nil, err
	}
	b := &Bus{
		t:       t,
		version: v,
		isInput: true,
		timeout: DefaultTimeout,
	}
	b.ew, _ = t.(EventWaiter)
	return b, nil
}

// Close releases the transport; a session may only be closed once.
func (b *Bus) Close() error {
	if b.released {
		return fmt.Errorf("emio: %w", ErrReleased)
	}
	b.released = true
	return b.t.Release()
}

func (b *Bus) Version() uint32 { return b.version }

// HasBlock reports whether the FPGA implements block framing.
func (b *Bus) HasBlock() bool { return b.version >= 1 }

func (b *Bus) Verbose() bool          { return b.verbose }
func (b *Bus) SetVerbose(on bool)     { b.verbose = on }
func (b *Bus) Timeout() time.Duration { return b.timeout }

func (b *Bus) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	b.timeout = d
}

// SetOutput redirects diagnostics; nil sends them to the system log.
func (b *Bus) SetOutput(w io.Writer) { b.w = w }

func (b *Bus) EventMode() bool { return b.events }

// SetEventMode selects op-done edge events instead of polling. Transports
// without event support stay in polling mode.
func (b *Bus) SetEventMode(on bool) error {
	if b.released {
		return fmt.Errorf("emio: %w", ErrReleased)
	}
	if b.ew == nil {
		if on {
			b.logf("events not implemented (using polling)")
		}
		b.events = false
		return nil
	}
	if err := b.ew.SetEventMode(on); err != nil {
		return fmt.Errorf("emio: event mode %t: %w", on, err)
	}
	b.events = on
	return nil
}

func (b *Bus) logf(format string, args ...interface{}) {
	if b.w != nil {
		fmt.Fprintf(b.w, format+"\n", args...)
		return
	}
	log.Print("info", fmt.Sprintf(format, args...))
}

func (b *Bus) check() error {
	if b.released {
		return ErrReleased
	}
	return nil
}

func (b *Bus) toInput() error {
	if b.isInput {
		return nil
	}
	if err := b.t.SetInput(); err != nil {
		return fmt.Errorf("%w as input: %v", ErrDirection, err)
	}
	b.isInput = true
	return nil
}

// drive puts v on the data group, switching it to output if necessary.
func (b *Bus) drive(v uint32) error {
	if !b.isInput {
		return b.t.WriteData(v)
	}
	if err := b.t.SetOutput(v); err != nil {
		return fmt.Errorf("%w as output: %v", ErrDirection, err)
	}
	b.isInput = false
	return nil
}
