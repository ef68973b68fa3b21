// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sn

import (
	"fmt"
	"io"
	"os"

	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/lang"
	"github.com/platinasystems/fpgav3/qspi"
	"github.com/platinasystems/parms"
)

type Command struct {
	// Device and ProgramDevice default to the QSPI serial number
	// partition.
	Device, ProgramDevice string
	Stdout                io.Writer
}

func (Command) String() string { return "sn" }
func (Command) Usage() string  { return "sn [-p SN]" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "read or program the FPGA V3 serial number",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print the serial number stored in QSPI flash, if any; or, with -p,
	erase the partition and program SN (at most 8 characters).`,
	}
}

func (Command) Kind() cmd.Kind { return cmd.Privileged }

func (c Command) Main(args ...string) error {
	parm, args := parms.New(args, "-p")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if sn := parm.ByName["-p"]; len(sn) > 0 {
		dev := c.ProgramDevice
		if len(dev) == 0 {
			dev = qspi.SerialDevice
		}
		return qspi.ProgramSerialNumber(dev, sn)
	}
	dev := c.Device
	if len(dev) == 0 {
		dev = qspi.SerialDeviceRO
	}
	sn, err := qspi.ReadSerialNumber(dev)
	if err != nil {
		return err
	}
	if len(sn) > 0 {
		w := c.Stdout
		if w == nil {
			w = os.Stdout
		}
		fmt.Fprintln(w, sn)
	}
	return nil
}
