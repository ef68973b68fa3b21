// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package bench

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/device"
	"github.com/platinasystems/fpgav3/lang"
	"github.com/platinasystems/parms"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultReads = 1000

type Command struct {
	// Open is device.Open if nil.
	Open func(device.Config) (*emio.Bus, error)
	// Stdout is os.Stdout if nil.
	Stdout io.Writer
}

// Stats of the read latencies in microseconds.
type Stats struct {
	N                      int
	Mean, StdDev, Min, Max float64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d reads: mean %.3f us, stddev %.3f us, min %.3f us, max %.3f us",
		s.N, s.Mean, s.StdDev, s.Min, s.Max)
}

func (Command) String() string { return "bench" }

func (Command) Usage() string {
	return "bench [-n N] [-q COUNT] [-g] [-e N] ADDR"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "measure EMIO register read latency",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read the register at hexadecimal ADDR N times (default 1000), or a
	block of COUNT quadlets, and print the latency statistics.

OPTIONS
	-n N		number of reads
	-q COUNT	quadlets per read` + device.Options,
	}
}

func (Command) Kind() cmd.Kind { return cmd.Privileged }

func (c Command) Main(args ...string) error {
	cfg, args, err := device.Parse(args)
	if err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	parm, args := parms.New(args, "-n", "-q")
	switch len(args) {
	case 0:
		return fmt.Errorf("ADDR: missing")
	case 1:
	default:
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	u, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 16)
	if err != nil {
		return fmt.Errorf("ADDR %s: %w", args[0], err)
	}
	n, err := count(parm.ByName["-n"], DefaultReads)
	if err != nil {
		return fmt.Errorf("-n: %w", err)
	}
	q, err := count(parm.ByName["-q"], 1)
	if err != nil {
		return fmt.Errorf("-q: %w", err)
	}
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	if cfg.Output == nil {
		cfg.Output = w
	}
	open := c.Open
	if open == nil {
		open = device.Open
	}
	bus, err := open(cfg)
	if err != nil {
		return err
	}
	defer bus.Close()
	s, err := Run(bus, uint16(u), q, n)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s)
	return nil
}

func count(s string, def int) (int, error) {
	if len(s) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil && n < 1 {
		err = fmt.Errorf("%d: not positive", n)
	}
	return n, err
}

// Run times n reads of quads quadlets at addr.
func Run(bus *emio.Bus, addr uint16, quads, n int) (Stats, error) {
	us := make([]float64, n)
	for i := range us {
		t0 := time.Now()
		var err error
		if quads == 1 {
			_, err = bus.ReadQuadlet(addr)
		} else {
			_, err = bus.ReadBlock(addr, 4*quads)
		}
		if err != nil {
			return Stats{}, err
		}
		us[i] = float64(time.Since(t0)) / float64(time.Microsecond)
	}
	s := Stats{N: n}
	s.Mean, s.StdDev = stat.MeanStdDev(us, nil)
	s.Min = floats.Min(us)
	s.Max = floats.Max(us)
	return s, nil
}
