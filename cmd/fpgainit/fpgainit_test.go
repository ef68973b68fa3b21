// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fpgainit

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/platinasystems/fpgav3/board"
	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/device"
	"github.com/platinasystems/fpgav3/emio/sim"
)

type fixture struct {
	dir string
	f   *sim.FPGA
	out bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	dir, err := ioutil.TempDir("", "fpgainit")
	if err != nil {
		t.Fatal(err)
	}
	x := &fixture{dir: dir, f: sim.New()}
	x.f.Regs[board.RegHardware] = 0x42434647
	x.f.Regs[board.RegStatus] = 0x03400000
	ioutil.WriteFile(x.path("mtd4ro"),
		[]byte("FPGA 1234-56\xff\xff\xff\xff\xff\xff\xff\xff"), 0644)
	ioutil.WriteFile(x.path("qspi-boot.bin"), []byte("boot image"), 0644)
	ioutil.WriteFile(x.path("mtd0"), bytes.Repeat([]byte{0xff}, 32), 0644)
	os.Mkdir(x.path("fpga0"), 0755)
	ioutil.WriteFile(x.path("fpga0/flags"), []byte("1"), 0644)
	ioutil.WriteFile(x.path("fpga0/firmware"), nil, 0644)
	ioutil.WriteFile(x.path("FPGA1394V3-QLA.bit.bin"), []byte("qla"), 0644)
	return x
}

func (x *fixture) path(name string) string { return filepath.Join(x.dir, name) }

func (x *fixture) main(args ...string) error {
	c := Command{
		Open: func(cfg device.Config) (*emio.Bus, error) {
			cfg.Transport = x.f
			return device.Open(cfg)
		},
		Stdout: &x.out,
	}
	return c.Main(append([]string{
		"-sn", x.path("mtd4ro"),
		"-boot", x.path("qspi-boot.bin"),
		"-mtd", x.path("mtd0"),
		"-profile", x.path("fpgav3.sh"),
		"-bitstream", x.dir,
		"-firmware", x.path("firmware"),
		"-fpga-mgr", x.path("fpga0"),
	}, args...)...)
}

func TestFpgainit(t *testing.T) {
	x := newFixture(t)
	defer os.RemoveAll(x.dir)
	if err := x.main(); err != nil {
		t.Fatal(err)
	}
	out := x.out.String()
	for _, s := range []string{
		"*** FPGAV3 Initialization ***\n",
		"FPGA S/N: 1234-56\n",
		"Hardware version: BCFG\n",
		"Status reg: 03400000\n",
		"Board type: QLA\n",
		"Board firmware: FPGA1394V3-QLA\n",
		"Real-time block quadlets: 32\n",
		"Board ID: 3\n\n",
		"Loading bitstream FPGA1394V3-QLA.bit.bin to FPGA\n",
		"ProgramFlash:  updated " + x.path("qspi-boot.bin") + " in " +
			x.path("mtd0") + " (1 of 1 sectors)\n",
		"\nEnabling PS Ethernet\n",
		"*** FPGAV3 Initialization Complete ***\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("wrong: missing %q in\n%s", s, out)
		}
	}
	if strings.Contains(out, "V3.0") {
		t.Error("wrong: V3.0 reported")
	}
	b, err := ioutil.ReadFile(x.path("fpgav3.sh"))
	if err != nil {
		t.Fatal(err)
	}
	want := "export FPGAV3_VER=3.1\nexport FPGAV3_SN=1234-56\n" +
		"export FPGAV3_HW=QLA\nexport FPGAV3_ID=3\n"
	if string(b) != want {
		t.Errorf("wrong: %q", b)
	}
	for fn, want := range map[string]string{
		"firmware/FPGA1394V3-QLA.bit.bin": "qla",
		"fpga0/flags":                     "0",
		"fpga0/firmware":                  "FPGA1394V3-QLA.bit.bin",
	} {
		if b, _ := ioutil.ReadFile(x.path(fn)); string(b) != want {
			t.Errorf("wrong: %s: %q", fn, b)
		}
	}
	if v := x.f.Regs[board.RegEthCtrl]; v != board.EthEnable {
		t.Errorf("wrong: %#x", v)
	}
	for q, v := range []uint32{0x46504741, 0x20313233, 0x342d3536, 0xffffffff} {
		if got := x.f.Regs[emio.PromBase+uint16(q)]; got != v {
			t.Errorf("wrong: prom %d: %#x", q, got)
		}
	}

	x.out.Reset()
	if err = x.main(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(x.out.String(), "already present in") {
		t.Error("wrong:", x.out.String())
	}
}

func TestPublish(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	x := newFixture(t)
	defer os.RemoveAll(x.dir)
	if err = x.main("-redis", s.Addr(), "-hash", "board"); err != nil {
		t.Fatal(err)
	}
	if v := s.HGet("board", "FPGAV3_HW"); v != "QLA" {
		t.Errorf("wrong: %q", v)
	}
	if v := s.HGet("board", "FPGAV3_SN"); v != "1234-56" {
		t.Errorf("wrong: %q", v)
	}
}

func TestNotBCFG(t *testing.T) {
	x := newFixture(t)
	defer os.RemoveAll(x.dir)
	x.f.Regs[board.RegHardware] = 0x514c4131
	if err := x.main(); !errors.Is(err, board.ErrNotBCFG) {
		t.Error("wrong:", err)
	}
	if _, err := os.Stat(x.path("fpgav3.sh")); err == nil {
		t.Error("wrong: profile exported")
	}
}

func TestPartialFailure(t *testing.T) {
	x := newFixture(t)
	defer os.RemoveAll(x.dir)
	os.Remove(x.path("qspi-boot.bin"))
	err := x.main()
	if err == nil {
		t.Fatal("wrong: missing boot image accepted")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("wrong:", err)
	}
	if v := x.f.Regs[board.RegEthCtrl]; v != board.EthEnable {
		t.Error("wrong: bring-up stopped early")
	}
}

func TestNoBitstream(t *testing.T) {
	x := newFixture(t)
	defer os.RemoveAll(x.dir)
	os.Remove(x.path("FPGA1394V3-QLA.bit.bin"))
	if err := x.main(); !errors.Is(err, os.ErrNotExist) {
		t.Error("wrong:", err)
	}
	if b, _ := ioutil.ReadFile(x.path("fpga0/firmware")); len(b) > 0 {
		t.Errorf("wrong: %q loaded", b)
	}
	if v := x.f.Regs[board.RegEthCtrl]; v != board.EthEnable {
		t.Error("wrong: bring-up stopped early")
	}

	x = newFixture(t)
	defer os.RemoveAll(x.dir)
	x.f.Regs[board.RegStatus] = 0x03800000
	if err := x.main(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(x.out.String(), "Loading bitstream") {
		t.Error("wrong: bitstream loaded for board type None")
	}
}
