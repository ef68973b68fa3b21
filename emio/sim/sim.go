// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sim is an in-memory FPGA that answers the EMIO handshake.
//
// Like the firmware, it takes a request as a write when the processor drives
// the data group and as a read otherwise. It counts the calls made to it so
// tests can check how a Bus drives the lines.
package sim

import (
	"errors"
	"time"

	"github.com/platinasystems/fpgav3/emio"
)

var ErrInjected = errors.New("injected fault")

// Write records a register write seen by the FPGA.
type Write struct {
	Addr uint16
	Data uint32
}

// FPGA implements emio.Transport and emio.EventWaiter.
type FPGA struct {
	// Regs is the register file; unset registers read as zero.
	Regs map[uint16]uint32
	// Version is returned by Init.
	Version uint32
	// Stall leaves op-done low forever.
	Stall bool
	// Delay is the number of op-done samples that read low after each
	// transfer.
	Delay int
	// FailInit, FailDirection and FailOpDone inject transport errors.
	FailInit, FailDirection, FailOpDone bool

	// Writes is every register write in order.
	Writes []Write
	// Directions counts SetInput and SetOutput calls.
	Directions int
	// Polls counts OpDone calls.
	Polls int
	// Shapes lists each control shape presented.
	Shapes []emio.Ctrl
	// Inits and Releases count lifecycle calls.
	Inits, Releases int

	output   bool
	data     uint32
	in       uint32
	addr     uint16
	lsb      uint
	ctrl     emio.Ctrl
	block    bool
	next     uint16
	done     bool
	pending  int
	events   int
	eventsOn bool
}

// New returns a version 1 FPGA with an empty register file.
func New() *FPGA {
	return &FPGA{
		Regs:    make(map[uint16]uint32),
		Version: 1,
	}
}

// Polled hides the event support of a transport.
func Polled(t emio.Transport) emio.Transport {
	return struct{ emio.Transport }{t}
}

func (f *FPGA) Init() (uint32, error) {
	f.Inits++
	if f.FailInit {
		return 0, ErrInjected
	}
	if f.Regs == nil {
		f.Regs = make(map[uint16]uint32)
	}
	f.output = false
	f.ctrl = emio.CtrlIdle
	f.addr, f.lsb = 0, 0
	return f.Version, nil
}

func (f *FPGA) SetInput() error {
	f.Directions++
	if f.FailDirection {
		return ErrInjected
	}
	f.output = false
	return nil
}

func (f *FPGA) SetOutput(v uint32) error {
	f.Directions++
	if f.FailDirection {
		return ErrInjected
	}
	f.output = true
	f.data = v
	return nil
}

// Output reports whether the data group is driven by the processor.
func (f *FPGA) Output() bool { return f.output }

func (f *FPGA) ReadData() (uint32, error) { return f.in, nil }

func (f *FPGA) WriteData(v uint32) error {
	f.data = v
	return nil
}

func (f *FPGA) WriteAddr(addr uint16) error {
	f.addr = addr
	return nil
}

func (f *FPGA) WriteAddrLSB(bit uint) error {
	bit &= 1
	changed := bit != f.lsb
	f.lsb = bit
	if changed && f.block && f.ctrl&emio.ReqBus != 0 {
		f.next++
		f.transfer(f.next)
	}
	return nil
}

func (f *FPGA) SetCtrl(c emio.Ctrl) error {
	prev := f.ctrl
	f.ctrl = c
	f.Shapes = append(f.Shapes, c)
	switch {
	case c&emio.ReqBus == 0:
		f.block = false
		f.done = false
	case prev&emio.ReqBus == 0:
		f.block = c&emio.BlkStart != 0 ||
			(c&emio.BlkEnd != 0 && c&emio.RegWen == 0)
		f.next = f.addr
		f.transfer(f.addr)
	}
	return nil
}

func (f *FPGA) transfer(addr uint16) {
	f.done = false
	if f.Stall {
		return
	}
	if f.output {
		f.Regs[addr] = f.data
		f.Writes = append(f.Writes, Write{addr, f.data})
	} else {
		f.in = f.Regs[addr]
	}
	f.done = true
	f.pending = f.Delay
	f.events++
}

func (f *FPGA) OpDone() (bool, error) {
	f.Polls++
	if f.FailOpDone {
		return false, ErrInjected
	}
	if f.pending > 0 {
		f.pending--
		return false, nil
	}
	return f.done, nil
}

func (f *FPGA) Release() error {
	f.Releases++
	if f.Releases > 1 {
		return emio.ErrReleased
	}
	return nil
}

func (f *FPGA) SetEventMode(on bool) error {
	f.eventsOn = on
	f.events = 0
	return nil
}

// EventMode reports whether op-done edge events were requested.
func (f *FPGA) EventMode() bool { return f.eventsOn }

func (f *FPGA) WaitEvent(timeout time.Duration) (bool, error) {
	if f.FailOpDone {
		return false, ErrInjected
	}
	if f.events == 0 {
		return false, nil
	}
	f.events--
	return true, nil
}

// Reset clears the recorded writes and counters but keeps the registers.
func (f *FPGA) Reset() {
	f.Writes = nil
	f.Shapes = nil
	f.Directions = 0
	f.Polls = 0
}
