// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package block provides the block and quad register access commands.
package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/device"
	"github.com/platinasystems/fpgav3/internal/buildinfo"
	"github.com/platinasystems/fpgav3/lang"
)

const Quad = "quad"

type Command struct {
	// C is "block" (default) or "quad".
	C string
	// Open is device.Open if nil.
	Open func(device.Config) (*emio.Bus, error)
	// Stdout is os.Stdout if nil.
	Stdout io.Writer
}

func (c Command) String() string {
	if c.C == "" {
		return "block"
	}
	return c.C
}

func (c Command) quad() bool { return c.C == Quad }

func (c Command) Usage() string {
	if c.quad() {
		return "quad [-v] [-g] [-e N] [-t N] ADDR [VALUE]"
	}
	return "block [-v] [-g] [-e N] [-t N] ADDR [COUNT [DATA]...]"
}

func (c Command) Apropos() lang.Alt {
	if c.quad() {
		return lang.Alt{
			lang.EnUS: "read or write an FPGA register",
		}
	}
	return lang.Alt{
		lang.EnUS: "read or write a block of FPGA registers",
	}
}

func (c Command) Man() lang.Alt {
	what := `
DESCRIPTION
	Read COUNT (default 1) quadlets from the register at hexadecimal
	ADDR and print each as 0xXXXXXXXX; or with DATA, write COUNT
	hexadecimal quadlets, zero filled if fewer are given.

	A block at ADDR 0 is the real-time read or write of the board.`
	if c.quad() {
		what = `
DESCRIPTION
	Print the quadlet at hexadecimal ADDR; or write the hexadecimal
	VALUE to it.`
	}
	return lang.Alt{
		lang.EnUS: what + `

OPTIONS` + device.Options,
	}
}

func (Command) Kind() cmd.Kind { return cmd.Privileged }

func (c Command) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func parseHex(s string, bits int) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"),
		16, bits)
}

func (c Command) Main(args ...string) error {
	cfg, args, err := device.Parse(args)
	if err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("ADDR: missing\n%s", strings.TrimSpace(c.Usage()))
	}
	u, err := parseHex(args[0], 16)
	if err != nil {
		return fmt.Errorf("ADDR %s: %w", args[0], err)
	}
	addr := uint16(u)
	w := c.stdout()

	num := 1
	var data []uint32
	var extra []string
	if c.quad() {
		if len(args) > 1 {
			v, err := parseHex(args[1], 32)
			if err != nil {
				return fmt.Errorf("VALUE %s: %w", args[1], err)
			}
			data = []uint32{uint32(v)}
			extra = args[2:]
		}
	} else if len(args) > 1 {
		if num, err = strconv.Atoi(args[1]); err != nil || num < 1 {
			return fmt.Errorf("COUNT %s: invalid", args[1])
		}
		if len(args) > 2 {
			data = make([]uint32, num)
			for i, s := range args[2:] {
				if i >= num {
					extra = args[2+i:]
					break
				}
				v, err := parseHex(s, 32)
				if err != nil {
					return fmt.Errorf("DATA %s: %w", s, err)
				}
				data[i] = uint32(v)
			}
		}
	}
	for _, s := range extra {
		fmt.Fprintln(w, "Warning: extra parameter:", s)
	}

	if cfg.Output == nil {
		cfg.Output = w
	}
	if cfg.Verbose {
		name := device.Mmap
		if cfg.Kind == device.Gpiod {
			name = device.Gpiod
		}
		fmt.Fprintf(w, "Using EMIO %s interface\n", name)
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
	if cfg.Verbose {
		bi := buildinfo.New()
		fmt.Fprintln(w, "Software version", bi.Version())
		if cfg.Kind == device.Gpiod {
			fmt.Fprintln(w, "GPIOD library version",
				bi.Dep(buildinfo.Gpiocdev))
		}
		fmt.Fprintln(w, "EMIO bus interface version", bus.Version())
		if bus.EventMode() {
			fmt.Fprintln(w, "Configured to use events")
		} else {
			fmt.Fprintln(w, "Configured to use polling")
		}
		fmt.Fprintf(w, "EMIO timeout is %d us\n",
			bus.Timeout().Microseconds())
	}

	if data == nil {
		return c.read(w, bus, addr, num)
	}
	return c.write(bus, addr, data)
}

func (c Command) read(w io.Writer, bus *emio.Bus, addr uint16, num int) error {
	if num == 1 {
		v, err := bus.ReadQuadlet(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "0x%08x\n", v)
		return nil
	}
	buf, err := bus.ReadBlock(addr, 4*num)
	if err != nil {
		return err
	}
	for q := 0; q < num; q++ {
		fmt.Fprintf(w, "0x%08x\n", binary.BigEndian.Uint32(buf[4*q:]))
	}
	return nil
}

func (c Command) write(bus *emio.Bus, addr uint16, data []uint32) error {
	if len(data) == 1 {
		return bus.WriteQuadlet(addr, data[0])
	}
	buf := make([]byte, 4*len(data))
	for q, v := range data {
		binary.BigEndian.PutUint32(buf[4*q:], v)
	}
	return bus.WriteBlock(addr, buf)
}
