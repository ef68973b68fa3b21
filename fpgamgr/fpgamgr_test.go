// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fpgamgr

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "fpgamgr")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	l := Loader{
		Bitstreams: filepath.Join(dir, "media"),
		Firmware:   filepath.Join(dir, "lib", "firmware"),
		Manager:    filepath.Join(dir, "fpga0"),
	}
	os.Mkdir(l.Bitstreams, 0755)
	os.Mkdir(l.Manager, 0755)
	ioutil.WriteFile(filepath.Join(l.Bitstreams, "FPGA1394V3-QLA.bit.bin"),
		[]byte("bitstream"), 0644)

	if _, err = l.Load("FPGA1394V3-QLA"); !errors.Is(err, os.ErrNotExist) {
		t.Error("wrong: load without manager attributes:", err)
	}
	ioutil.WriteFile(filepath.Join(l.Manager, "flags"), []byte("1"), 0644)
	ioutil.WriteFile(filepath.Join(l.Manager, "firmware"), nil, 0644)

	name, err := l.Load("FPGA1394V3-QLA")
	if err != nil {
		t.Fatal(err)
	}
	if name != "FPGA1394V3-QLA.bit.bin" {
		t.Error("wrong:", name)
	}
	for fn, want := range map[string]string{
		filepath.Join(l.Firmware, name):      "bitstream",
		filepath.Join(l.Manager, "flags"):    "0",
		filepath.Join(l.Manager, "firmware"): name,
	} {
		b, err := ioutil.ReadFile(fn)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != want {
			t.Errorf("wrong: %s: %q", fn, b)
		}
	}
	if _, err = l.Load("FPGA1394V3-DRAC"); !errors.Is(err, os.ErrNotExist) {
		t.Error("wrong: missing bitstream accepted:", err)
	}
}
