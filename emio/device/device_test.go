// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package device

import (
	"errors"
	"io/ioutil"
	"testing"
	"time"

	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/cdev"
	"github.com/platinasystems/fpgav3/emio/mmap"
	"github.com/platinasystems/fpgav3/emio/sim"
)

func TestTransport(t *testing.T) {
	tr, err := Transport("", true)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := tr.(*mmap.Transport); !ok || !m.Verbose {
		t.Errorf("wrong: %T", tr)
	}
	if tr, _ = Transport(Gpiod, false); tr == nil {
		t.Fatal("no gpiod transport")
	}
	if _, ok := tr.(*cdev.Transport); !ok {
		t.Errorf("wrong: %T", tr)
	}
	if _, err = Transport("uart", false); !errors.Is(err, emio.ErrUnsupported) {
		t.Error("wrong:", err)
	}
}

func TestOpen(t *testing.T) {
	f := sim.New()
	bus, err := Open(Config{
		Transport:  f,
		Verbose:    true,
		EventMode:  true,
		TimingMode: 1,
		Timeout:    time.Millisecond,
		Output:     ioutil.Discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()
	if !bus.Verbose() || !bus.EventMode() || bus.TimingMode() != 1 {
		t.Error("wrong: config not applied")
	}
	if bus.Timeout() != time.Millisecond {
		t.Error("wrong: timeout", bus.Timeout())
	}
	if _, err = Open(Config{Transport: sim.New(), TimingMode: 5}); err == nil {
		t.Error("wrong: timing mode 5 accepted")
	}
}

func TestOpenDefaults(t *testing.T) {
	bus, err := Open(Config{Transport: sim.New()})
	if err != nil {
		t.Fatal(err)
	}
	if bus.Timeout() != emio.DefaultTimeout || bus.EventMode() {
		t.Error("wrong: defaults")
	}
}

func TestParse(t *testing.T) {
	cfg, args, err := Parse([]string{"-v", "4", "-g", "-e", "1", "-t=2",
		"-timeout", "1ms", "8"})
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Kind:       Gpiod,
		Verbose:    true,
		EventMode:  true,
		TimingMode: 2,
		Timeout:    time.Millisecond,
	}
	if cfg != want {
		t.Errorf("wrong: %+v", cfg)
	}
	if len(args) != 2 || args[0] != "4" || args[1] != "8" {
		t.Error("wrong:", args)
	}
	cfg, args, err = Parse([]string{"c0"})
	if err != nil || cfg != (Config{}) || len(args) != 1 {
		t.Error("wrong:", cfg, args, err)
	}
	for _, bad := range [][]string{
		{"-e", "2"},
		{"-t", "x"},
		{"-timeout", "soon"},
		{"-timeout", "-1s"},
	} {
		if _, _, err = Parse(bad); err == nil {
			t.Error("wrong: accepted", bad)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	for s, want := range map[string]time.Duration{
		"500":   500 * time.Microsecond,
		"500us": 500 * time.Microsecond,
		"1µs":   time.Microsecond,
		"2ms":   2 * time.Millisecond,
	} {
		if d, err := ParseTimeout(s); err != nil || d != want {
			t.Error("wrong:", s, d, err)
		}
	}
}
