// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mmap

import (
	"testing"

	"github.com/platinasystems/fpgav3/emio"
)

func attach(t *testing.T, version uint32) (*Transport, Regs) {
	r := make(Regs, GpioSize/4)
	r.Set(InputUpper, version<<VersionShift|GrantBus)
	r.Set(OutputUpper, 0xdead)
	tr := New()
	if v := tr.Attach(r); v != version {
		t.Fatal("wrong: version", v)
	}
	return tr, r
}

func TestAttach(t *testing.T) {
	_, r := attach(t, 1)
	for _, x := range []struct {
		off, want uint32
	}{
		{DirLower, 0},
		{DirUpper, Outputs},
		{OutEnUpper, Outputs},
		{OutputUpper, 0},
	} {
		if got := r.Get(x.off); got != x.want {
			t.Errorf("wrong: %#x: %#x vs. %#x", x.off, got, x.want)
		}
	}
	if Outputs&(OpDone|Write|GrantBus|Version) != 0 {
		t.Error("wrong: inputs in output mask")
	}
	attach(t, 0)
	attach(t, 2)
}

func TestDirection(t *testing.T) {
	tr, r := attach(t, 1)
	if err := tr.SetOutput(0x12345678); err != nil {
		t.Fatal(err)
	}
	if r.Get(DirLower) != 0xffffffff || r.Get(OutEnLower) != 0xffffffff {
		t.Error("wrong: data group not output")
	}
	if r.Get(OutputLower) != 0x12345678 {
		t.Errorf("wrong: %#x", r.Get(OutputLower))
	}
	tr.WriteData(0xcafe)
	if r.Get(OutputLower) != 0xcafe {
		t.Errorf("wrong: %#x", r.Get(OutputLower))
	}
	if err := tr.SetInput(); err != nil {
		t.Fatal(err)
	}
	if r.Get(DirLower) != 0 {
		t.Error("wrong: data group not input")
	}
	r.Set(InputLower, 0xfeedface)
	if v, _ := tr.ReadData(); v != 0xfeedface {
		t.Errorf("wrong: %#x", v)
	}
}

func TestUpper(t *testing.T) {
	tr, r := attach(t, 1)
	tr.WriteAddr(0x1235)
	tr.WriteAddrLSB(1)
	tr.SetCtrl(emio.CtrlBlockStart)
	if got, want := r.Get(OutputUpper), uint32(0x1235|LSB|BlkStart|ReqBus); got != want {
		t.Errorf("wrong: %#x vs. %#x", got, want)
	}
	tr.SetCtrl(emio.CtrlBlockEnd)
	tr.WriteAddrLSB(0)
	if got, want := r.Get(OutputUpper), uint32(0x1235|BlkEnd|ReqBus); got != want {
		t.Errorf("wrong: %#x vs. %#x", got, want)
	}
	tr.SetCtrl(emio.CtrlIdle)
	if got := r.Get(OutputUpper); got != 0 {
		t.Errorf("wrong: %#x", got)
	}
	tr.WriteAddr(0xffff)
	tr.SetCtrl(emio.CtrlQuadWrite)
	if got, want := r.Get(OutputUpper), uint32(0xffff|RegWen|BlkEnd|ReqBus); got != want {
		t.Errorf("wrong: %#x vs. %#x", got, want)
	}
}

func TestOpDone(t *testing.T) {
	tr, r := attach(t, 1)
	if done, _ := tr.OpDone(); done {
		t.Error("wrong: op_done set")
	}
	r.Set(InputUpper, r.Get(InputUpper)|OpDone)
	if done, _ := tr.OpDone(); !done {
		t.Error("wrong: op_done clear")
	}
}

func TestRelease(t *testing.T) {
	tr, _ := attach(t, 1)
	if err := tr.Release(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Release(); err != emio.ErrReleased {
		t.Error("wrong:", err)
	}
	if err := tr.WriteAddr(1); err != ErrNotMapped {
		t.Error("wrong:", err)
	}
}

func TestNoEvents(t *testing.T) {
	var tr emio.Transport = New()
	if _, ok := tr.(emio.EventWaiter); ok {
		t.Error("wrong: mmap transport claims events")
	}
}

func TestSetClock(t *testing.T) {
	slcr := make(Regs, (AperClkCtrl+4)/4)
	slcr.Set(AperClkCtrl, 0x11)
	if !setClock(slcr, true) {
		t.Error("wrong: clock not set")
	}
	if v := slcr.Get(AperClkCtrl); v != 0x11|GpioClkBit {
		t.Errorf("wrong: %#x", v)
	}
	if setClock(slcr, false) {
		t.Error("wrong: clock set twice")
	}
}
