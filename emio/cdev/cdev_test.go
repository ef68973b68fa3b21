// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cdev

import (
	"reflect"
	"testing"

	"github.com/platinasystems/fpgav3/emio"
	"github.com/warthog618/go-gpiosim"
)

func TestPack(t *testing.T) {
	for _, x := range []struct {
		vals []int
		v    uint32
	}{
		{[]int{0, 0, 0, 0}, 0},
		{[]int{1, 0, 0, 0}, 1},
		{[]int{0, 0, 0, 1}, 8},
		{[]int{1, 1, 0, 1}, 0xb},
	} {
		if v := Pack(x.vals); v != x.v {
			t.Errorf("wrong: Pack(%v) = %#x", x.vals, v)
		}
		vals := make([]int, len(x.vals))
		Unpack(vals, x.v)
		if !reflect.DeepEqual(vals, x.vals) {
			t.Errorf("wrong: Unpack(%#x) = %v", x.v, vals)
		}
	}
	vals := make([]int, 32)
	for _, v := range []uint32{0, 0xffffffff, 0xdeadbeef, 0x80000001} {
		Unpack(vals, v)
		if got := Pack(vals); got != v {
			t.Errorf("wrong: %#x vs. %#x", got, v)
		}
	}
}

func TestCtrlValues(t *testing.T) {
	for c, want := range map[emio.Ctrl][]int{
		emio.CtrlIdle:       {0, 0, 0},
		emio.CtrlRead:       {0, 0, 0},
		emio.CtrlQuadWrite:  {1, 0, 1},
		emio.CtrlBlockStart: {0, 1, 0},
		emio.CtrlBlockEnd:   {0, 0, 1},
	} {
		if got := CtrlValues(c); !reflect.DeepEqual(got, want) {
			t.Errorf("wrong: %s: %v", c, got)
		}
	}
}

func simulator(t *testing.T) *gpiosim.Simpleton {
	s, err := gpiosim.NewSimpleton(64)
	if err != nil {
		t.Skip("gpio-sim:", err)
	}
	return s
}

func TestLines(t *testing.T) {
	s := simulator(t)
	defer s.Close()
	if err := s.Pullup(VersionBit); err != nil {
		t.Fatal(err)
	}
	for _, bit := range []int{0, 4, 31} {
		if err := s.Pullup(DataBit + bit); err != nil {
			t.Fatal(err)
		}
	}
	tr := &Transport{Chip: s.ChipName()}
	v, err := tr.Init()
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Release()
	if v != 1 {
		t.Error("wrong: version", v)
	}
	d, err := tr.ReadData()
	if err != nil {
		t.Fatal(err)
	}
	if d != 0x80000011 {
		t.Errorf("wrong: data %#x", d)
	}
	if err = tr.WriteAddr(0x8003); err != nil {
		t.Fatal(err)
	}
	for bit, want := range map[int]int{0: 1, 1: 1, 2: 0, 15: 1} {
		if l, _ := s.Level(AddrBit + bit); l != want {
			t.Errorf("wrong: address bit %d level %d", bit, l)
		}
	}
	if err = tr.SetCtrl(emio.CtrlQuadWrite); err != nil {
		t.Fatal(err)
	}
	for bit, want := range map[int]int{
		ReqBusBit:   1,
		RegWenBit:   1,
		BlkStartBit: 0,
		BlkEndBit:   1,
	} {
		if l, _ := s.Level(bit); l != want {
			t.Errorf("wrong: ctrl bit %d level %d", bit, l)
		}
	}
	if err = tr.SetCtrl(emio.CtrlIdle); err != nil {
		t.Fatal(err)
	}
	if l, _ := s.Level(ReqBusBit); l != 0 {
		t.Error("wrong: req_bus still raised")
	}
	if err = tr.SetOutput(0x5); err != nil {
		t.Fatal(err)
	}
	if l, _ := s.Level(DataBit + 2); l != 1 {
		t.Error("wrong: data bit 2 not driven")
	}
	if err = tr.WriteAddrLSB(1); err != nil {
		t.Fatal(err)
	}
	if l, _ := s.Level(AddrLSBBit); l != 1 {
		t.Error("wrong: addr_lsb not driven")
	}
	if err = s.Pullup(OpDoneBit); err != nil {
		t.Fatal(err)
	}
	if done, err := tr.OpDone(); err != nil || !done {
		t.Error("wrong: op_done", done, err)
	}
}

func TestRelease(t *testing.T) {
	s := simulator(t)
	defer s.Close()
	tr := &Transport{Chip: s.ChipName()}
	if _, err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Release(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Release(); err != emio.ErrReleased {
		t.Error("wrong:", err)
	}
	if _, err := tr.ReadData(); err != ErrNotInitialized {
		t.Error("wrong:", err)
	}
}
