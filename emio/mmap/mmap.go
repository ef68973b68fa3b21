// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mmap drives the EMIO bits through the Zynq GPIO controller
// registers mapped from /dev/mem.
//
// EMIO bits 31:0 are the data group in bank 2 and bits 63:32 share bank 3
// with address, control, status and version.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/log"
	"golang.org/x/sys/unix"
)

const (
	DevMem = "/dev/mem"

	SlcrBase    = 0xf8000000
	AperClkCtrl = 0x12c
	GpioClkBit  = 1 << 22

	GpioBase = 0xe000a000
	GpioSize = 0x2e8
)

// GPIO controller register offsets.
const (
	OutputLower = 0x048
	OutputUpper = 0x04c
	InputLower  = 0x068
	InputUpper  = 0x06c
	DirLower    = 0x284
	OutEnLower  = 0x288
	DirUpper    = 0x2c4
	OutEnUpper  = 0x2c8
)

// Upper register bits.
const (
	RegAddr  = 0x0000ffff
	ReqBus   = 0x00010000
	OpDone   = 0x00020000
	RegWen   = 0x00040000
	BlkStart = 0x00080000
	BlkEnd   = 0x00100000
	Write    = 0x00200000
	GrantBus = 0x00400000
	LSB      = 0x00800000
	Version  = 0xf0000000

	VersionShift = 28

	Outputs = RegAddr | ReqBus | RegWen | BlkStart | BlkEnd | LSB
	ctrls   = ReqBus | RegWen | BlkStart | BlkEnd
)

var ErrNotMapped = errors.New("not mapped")

// Regs is a window of 32-bit device registers.
type Regs []uint32

func (r Regs) Get(off uint32) uint32    { return atomic.LoadUint32(&r[off/4]) }
func (r Regs) Set(off uint32, v uint32) { atomic.StoreUint32(&r[off/4], v) }

// Transport implements emio.Transport; it has no op-done events.
type Transport struct {
	// Verbose prints a note when the GPIO clock had to be enabled.
	Verbose bool

	f     *os.File
	mem   []byte
	regs  Regs
	upper uint32
}

func New() *Transport { return &Transport{} }

func (t *Transport) Init() (uint32, error) {
	f, err := os.OpenFile(DevMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return 0, err
	}
	t.f = f
	if err = t.enableClock(); err != nil {
		t.Release()
		return 0, err
	}
	t.mem, err = unix.Mmap(int(f.Fd()), GpioBase, GpioSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		t.Release()
		return 0, fmt.Errorf("mmap %#x: %w", GpioBase, err)
	}
	return t.Attach(words(t.mem)), nil
}

// enableClock sets the APER_CLK_CTRL GPIO clock enable through a mapping
// that is released before the controller is mapped.
func (t *Transport) enableClock() error {
	size := AperClkCtrl + 4
	m, err := unix.Mmap(int(t.f.Fd()), SlcrBase, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap %#x: %w", SlcrBase, err)
	}
	defer unix.Munmap(m)
	setClock(words(m), t.Verbose)
	return nil
}

// setClock reports whether the GPIO clock had to be enabled.
func setClock(slcr Regs, verbose bool) bool {
	v := slcr.Get(AperClkCtrl)
	if v&GpioClkBit != 0 {
		return false
	}
	if verbose {
		log.Print("info", "Setting clock bit")
	}
	slcr.Set(AperClkCtrl, v|GpioClkBit)
	return true
}

func words(b []byte) Regs {
	return Regs(unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4))
}

// Attach configures a mapped controller and returns the bus version: upper
// bank as input to sample the version, data group input, then address and
// control as low outputs.
func (t *Transport) Attach(r Regs) uint32 {
	t.regs = r
	r.Set(DirUpper, 0)
	version := (r.Get(InputUpper) & Version) >> VersionShift
	r.Set(DirLower, 0)
	r.Set(DirUpper, Outputs)
	t.upper = 0
	r.Set(OutputUpper, 0)
	r.Set(OutEnUpper, Outputs)
	return version
}

func (t *Transport) SetInput() error {
	if t.regs == nil {
		return ErrNotMapped
	}
	t.regs.Set(DirLower, 0)
	return nil
}

func (t *Transport) SetOutput(v uint32) error {
	if t.regs == nil {
		return ErrNotMapped
	}
	t.regs.Set(OutputLower, v)
	t.regs.Set(DirLower, 0xffffffff)
	t.regs.Set(OutEnLower, 0xffffffff)
	return nil
}

func (t *Transport) ReadData() (uint32, error) {
	if t.regs == nil {
		return 0, ErrNotMapped
	}
	return t.regs.Get(InputLower), nil
}

func (t *Transport) WriteData(v uint32) error {
	if t.regs == nil {
		return ErrNotMapped
	}
	t.regs.Set(OutputLower, v)
	return nil
}

func (t *Transport) store(upper uint32) error {
	if t.regs == nil {
		return ErrNotMapped
	}
	t.upper = upper
	t.regs.Set(OutputUpper, upper)
	return nil
}

func (t *Transport) WriteAddr(addr uint16) error {
	return t.store(t.upper&^RegAddr | uint32(addr))
}

func (t *Transport) WriteAddrLSB(bit uint) error {
	if bit&1 != 0 {
		return t.store(t.upper | LSB)
	}
	return t.store(t.upper &^ LSB)
}

// UpperCtrl returns the upper register bits of c.
func UpperCtrl(c emio.Ctrl) uint32 {
	var v uint32
	for _, x := range []struct {
		c   emio.Ctrl
		bit uint32
	}{
		{emio.ReqBus, ReqBus},
		{emio.RegWen, RegWen},
		{emio.BlkStart, BlkStart},
		{emio.BlkEnd, BlkEnd},
	} {
		if c&x.c != 0 {
			v |= x.bit
		}
	}
	return v
}

// SetCtrl stores all control bits in one register write; the firmware
// latches req_bus late enough for the others to settle. Going idle also
// clears the address.
func (t *Transport) SetCtrl(c emio.Ctrl) error {
	if c == emio.CtrlIdle {
		return t.store(0)
	}
	return t.store(t.upper&^ctrls | UpperCtrl(c))
}

func (t *Transport) OpDone() (bool, error) {
	if t.regs == nil {
		return false, ErrNotMapped
	}
	return t.regs.Get(InputUpper)&OpDone != 0, nil
}

func (t *Transport) Release() error {
	if t.f == nil && t.regs == nil {
		return emio.ErrReleased
	}
	var err error
	if t.mem != nil {
		err = unix.Munmap(t.mem)
		t.mem = nil
	}
	t.regs = nil
	if t.f != nil {
		if xerr := t.f.Close(); err == nil {
			err = xerr
		}
		t.f = nil
	}
	return err
}
