// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cdev drives the EMIO bits as GPIO character device lines.
package cdev

import (
	"errors"
	"fmt"
	"time"

	"github.com/platinasystems/fpgav3/emio"
	"github.com/warthog618/go-gpiocdev"
)

const (
	DefaultChip = "gpiochip0"
	// DefaultBase is the line offset of EMIO bit 0.
	DefaultBase = 54
	Consumer    = "libfpgav3"
)

// EMIO bit of each signal.
const (
	DataBit     = 0
	AddrBit     = 32
	ReqBusBit   = 48
	OpDoneBit   = 49
	RegWenBit   = 50
	BlkStartBit = 51
	BlkEndBit   = 52
	GrantBit    = 54
	AddrLSBBit  = 55
	VersionBit  = 60
)

var ErrNotInitialized = errors.New("not initialized")

// Transport implements emio.Transport and emio.EventWaiter.
type Transport struct {
	// Chip is the name or path of the GPIO chip.
	Chip string
	// Base is the chip line offset of EMIO bit 0.
	Base int

	chip *gpiocdev.Chip

	data   *gpiocdev.Lines
	addr   *gpiocdev.Lines
	ctrl   *gpiocdev.Lines
	req    *gpiocdev.Line
	lsb    *gpiocdev.Line
	opDone *gpiocdev.Line

	cur    emio.Ctrl
	vals   []int
	events chan struct{}
}

// New returns a transport on the default chip and offset.
func New() *Transport {
	return &Transport{Chip: DefaultChip, Base: DefaultBase}
}

func (t *Transport) offsets(bit, n int) []int {
	offs := make([]int, n)
	for i := range offs {
		offs[i] = t.Base + bit + i
	}
	return offs
}

func (t *Transport) Init() (uint32, error) {
	if t.Chip == "" {
		t.Chip = DefaultChip
	}
	chip, err := gpiocdev.NewChip(t.Chip, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", t.Chip, err)
	}
	t.chip = chip
	t.vals = make([]int, 32)
	version, err := t.init()
	if err != nil {
		t.Release()
		return 0, err
	}
	return version, nil
}

// init requests the version lines first, releasing them once read, then the
// bus lines with the data group as input and every output low.
func (t *Transport) init() (uint32, error) {
	vl, err := t.chip.RequestLines(t.offsets(VersionBit, 4), gpiocdev.AsInput)
	if err != nil {
		return 0, fmt.Errorf("version lines: %w", err)
	}
	vv := make([]int, 4)
	err = vl.Values(vv)
	vl.Close()
	if err != nil {
		return 0, fmt.Errorf("version lines: %w", err)
	}
	version := Pack(vv)

	t.data, err = t.chip.RequestLines(t.offsets(DataBit, 32), gpiocdev.AsInput)
	if err != nil {
		return 0, fmt.Errorf("data lines: %w", err)
	}
	t.addr, err = t.chip.RequestLines(t.offsets(AddrBit, 16),
		gpiocdev.AsOutput(make([]int, 16)...))
	if err != nil {
		return 0, fmt.Errorf("address lines: %w", err)
	}
	t.lsb, err = t.chip.RequestLine(t.Base+AddrLSBBit, gpiocdev.AsOutput(0))
	if err != nil {
		return 0, fmt.Errorf("addr_lsb line: %w", err)
	}
	t.req, err = t.chip.RequestLine(t.Base+ReqBusBit, gpiocdev.AsOutput(0))
	if err != nil {
		return 0, fmt.Errorf("req_bus line: %w", err)
	}
	t.ctrl, err = t.chip.RequestLines(t.offsets(RegWenBit, 3),
		gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		return 0, fmt.Errorf("ctrl lines: %w", err)
	}
	t.cur = emio.CtrlIdle
	if err = t.requestOpDone(false); err != nil {
		return 0, err
	}
	return version, nil
}

func (t *Transport) requestOpDone(events bool) error {
	if t.opDone != nil {
		t.opDone.Close()
		t.opDone = nil
	}
	offset := t.Base + OpDoneBit
	var err error
	if events {
		ch := make(chan struct{}, 16)
		t.opDone, err = t.chip.RequestLine(offset,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				select {
				case ch <- struct{}{}:
				default:
				}
			}))
		if err == nil {
			t.events = ch
		}
	} else {
		t.opDone, err = t.chip.RequestLine(offset, gpiocdev.AsInput)
		t.events = nil
	}
	if err != nil {
		return fmt.Errorf("op_done line: %w", err)
	}
	return nil
}

func (t *Transport) SetInput() error {
	if t.data == nil {
		return ErrNotInitialized
	}
	return t.data.Reconfigure(gpiocdev.AsInput)
}

func (t *Transport) SetOutput(v uint32) error {
	if t.data == nil {
		return ErrNotInitialized
	}
	Unpack(t.vals, v)
	return t.data.Reconfigure(gpiocdev.AsOutput(t.vals...))
}

func (t *Transport) ReadData() (uint32, error) {
	if t.data == nil {
		return 0, ErrNotInitialized
	}
	if err := t.data.Values(t.vals); err != nil {
		return 0, err
	}
	return Pack(t.vals), nil
}

func (t *Transport) WriteData(v uint32) error {
	if t.data == nil {
		return ErrNotInitialized
	}
	Unpack(t.vals, v)
	return t.data.SetValues(t.vals)
}

func (t *Transport) WriteAddr(addr uint16) error {
	if t.addr == nil {
		return ErrNotInitialized
	}
	vals := make([]int, 16)
	Unpack(vals, uint32(addr))
	return t.addr.SetValues(vals)
}

func (t *Transport) WriteAddrLSB(bit uint) error {
	if t.lsb == nil {
		return ErrNotInitialized
	}
	t.drain()
	return t.lsb.SetValue(int(bit & 1))
}

// SetCtrl drives reg_wen, blk_start and blk_end before raising req_bus, and
// lowers req_bus first.
func (t *Transport) SetCtrl(c emio.Ctrl) error {
	if t.ctrl == nil {
		return ErrNotInitialized
	}
	prev := t.cur
	if prev&emio.ReqBus != 0 && c&emio.ReqBus == 0 {
		if err := t.req.SetValue(0); err != nil {
			return err
		}
	}
	if err := t.ctrl.SetValues(CtrlValues(c)); err != nil {
		return err
	}
	if prev&emio.ReqBus == 0 && c&emio.ReqBus != 0 {
		t.drain()
		if err := t.req.SetValue(1); err != nil {
			return err
		}
	}
	t.cur = c
	return nil
}

func (t *Transport) OpDone() (bool, error) {
	if t.opDone == nil {
		return false, ErrNotInitialized
	}
	v, err := t.opDone.Value()
	return v == 1, err
}

func (t *Transport) SetEventMode(on bool) error {
	if t.chip == nil {
		return ErrNotInitialized
	}
	return t.requestOpDone(on)
}

func (t *Transport) WaitEvent(timeout time.Duration) (bool, error) {
	if t.events == nil {
		return false, ErrNotInitialized
	}
	tm := time.NewTimer(timeout)
	defer tm.Stop()
	select {
	case <-t.events:
		return true, nil
	case <-tm.C:
		return false, nil
	}
}

// drain discards op-done edges left from the previous quadlet.
func (t *Transport) drain() {
	for t.events != nil {
		select {
		case <-t.events:
		default:
			return
		}
	}
}

func (t *Transport) Release() error {
	if t.chip == nil {
		return emio.ErrReleased
	}
	for _, l := range []*gpiocdev.Line{t.opDone, t.req, t.lsb} {
		if l != nil {
			l.Close()
		}
	}
	for _, ls := range []*gpiocdev.Lines{t.ctrl, t.addr, t.data} {
		if ls != nil {
			ls.Close()
		}
	}
	t.opDone, t.req, t.lsb = nil, nil, nil
	t.ctrl, t.addr, t.data = nil, nil, nil
	t.events = nil
	err := t.chip.Close()
	t.chip = nil
	return err
}
