// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package emio provides register access to the FPGA V3 programmable logic
// through the Zynq EMIO bits.
//
// The bus has a 16-bit address group that is always driven by the processor
// and a 32-bit data group that is driven by the processor on writes and by
// the FPGA on reads. A handful of control lines select the operation and a
// single op-done line is raised by the FPGA when a quadlet has been
// transferred.
//
//	bus, err := emio.New(transport)
//	if err != nil {
//		return err
//	}
//	defer bus.Close()
//	status, err := bus.ReadQuadlet(0)
//
// A Bus is not safe for concurrent use.
package emio

import (
	"errors"
	"strings"
	"time"
)

const (
	// MaxVersion is the highest bus interface version supported.
	MaxVersion = 1

	// DefaultTimeout bounds each wait for op-done.
	DefaultTimeout = 250 * time.Microsecond

	// PromBase is the first FPGA PROM register.
	PromBase = 0x2000
)

var (
	ErrVersion     = errors.New("unsupported bus interface version")
	ErrTimeout     = errors.New("timeout")
	ErrUnsupported = errors.New("unsupported")
	ErrHeader      = errors.New("header mismatch")
	ErrReleased    = errors.New("released")
	ErrDirection   = errors.New("can't set data direction")
	ErrLayout      = errors.New("real-time layout too short")
)

// Ctrl is the set of control lines driven with the address group.
type Ctrl uint8

const (
	ReqBus Ctrl = 1 << iota
	RegWen
	BlkStart
	BlkEnd
)

// Control shapes; exactly one is presented to the FPGA at a time.
const (
	CtrlIdle       Ctrl = 0
	CtrlRead            = ReqBus
	CtrlQuadWrite       = ReqBus | RegWen | BlkEnd
	CtrlBlockStart      = ReqBus | BlkStart
	CtrlBlockEnd        = ReqBus | BlkEnd
)

func (c Ctrl) String() string {
	if c == CtrlIdle {
		return "idle"
	}
	var names []string
	for _, x := range []struct {
		bit  Ctrl
		name string
	}{
		{ReqBus, "req_bus"},
		{RegWen, "reg_wen"},
		{BlkStart, "blk_start"},
		{BlkEnd, "blk_end"},
	} {
		if c&x.bit != 0 {
			names = append(names, x.name)
		}
	}
	return strings.Join(names, "|")
}

// Transport is the physical access to the EMIO lines.
type Transport interface {
	// Init acquires the lines, leaves the data group as input with all
	// outputs low, and returns the 4-bit bus interface version.
	Init() (version uint32, err error)
	SetInput() error
	// SetOutput switches the data group to output driving v.
	SetOutput(v uint32) error
	ReadData() (uint32, error)
	WriteData(v uint32) error
	WriteAddr(addr uint16) error
	// WriteAddrLSB drives the duplicate address LSB line; during a block
	// transfer each change starts the next quadlet.
	WriteAddrLSB(bit uint) error
	// SetCtrl presents the control shape. ReqBus is raised after, and
	// lowered before, the other control lines.
	SetCtrl(c Ctrl) error
	OpDone() (bool, error)
	Release() error
}

// EventWaiter is implemented by transports that can block on the rising edge
// of op-done rather than polling it.
type EventWaiter interface {
	SetEventMode(on bool) error
	WaitEvent(timeout time.Duration) (bool, error)
}

// Quads returns the number of quadlets spanned by n bytes.
func Quads(n int) int { return (n + 3) / 4 }
