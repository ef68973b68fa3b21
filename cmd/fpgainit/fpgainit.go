// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fpgainit brings up the FPGA V3 board from the BCFG firmware.
package fpgainit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/platinasystems/fpgav3/board"
	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/device"
	"github.com/platinasystems/fpgav3/fpgamgr"
	"github.com/platinasystems/fpgav3/internal/buildinfo"
	"github.com/platinasystems/fpgav3/lang"
	"github.com/platinasystems/fpgav3/publish"
	"github.com/platinasystems/fpgav3/qspi"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
)

// PromSerialBytes of the serial number partition are mirrored into the
// FPGA PROM registers.
const PromSerialBytes = 16

type Command struct {
	// Open is device.Open if nil.
	Open func(device.Config) (*emio.Bus, error)
	// Stdout is os.Stdout if nil.
	Stdout io.Writer
}

func (Command) String() string { return "fpgainit" }

func (Command) Usage() string {
	return `fpgainit [-v] [-g] [-e N] [-t N] [-redis ADDR] [-hash NAME]
	[-boot FILE] [-mtd DEV] [-sn DEV] [-profile FILE]
	[-bitstream DIR] [-firmware DIR] [-fpga-mgr DIR]`
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "initialize the FPGA V3 board",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Detect the board through the BCFG firmware registers, export its
	identity to the shell profile (and redis, with -redis), load the
	board's converted bitstream (FIRMWARE.bit.bin) through the FPGA
	manager, update the QSPI boot partition from the boot image, enable
	PS Ethernet, and copy the serial number record into the FPGA PROM
	registers.

OPTIONS
	-redis ADDR	publish the board identity to this redis server
	-hash NAME	redis hash (default fpgav3)
	-boot FILE	boot image (default /media/qspi-boot.bin)
	-mtd DEV	boot partition (default /dev/mtd0)
	-sn DEV		serial number partition (default /dev/mtd4ro)
	-profile FILE	shell profile (default /etc/profile.d/fpgav3.sh)
	-bitstream DIR	converted bitstreams (default /media)
	-firmware DIR	firmware directory of the FPGA manager
			(default /lib/firmware)
	-fpga-mgr DIR	FPGA manager (default /sys/class/fpga_manager/fpga0)` +
			device.Options,
	}
}

func (Command) Kind() cmd.Kind { return cmd.Hidden | cmd.Privileged }

func (c Command) Main(args ...string) error {
	cfg, args, err := device.Parse(args)
	if err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	parm, args := parms.New(args, "-redis", "-hash", "-boot", "-mtd",
		"-sn", "-profile", "-bitstream", "-firmware", "-fpga-mgr")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	def := func(name, value string) string {
		if s := parm.ByName[name]; len(s) > 0 {
			return s
		}
		return value
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
	loader := fpgamgr.Loader{
		Bitstreams: parm.ByName["-bitstream"],
		Firmware:   parm.ByName["-firmware"],
		Manager:    parm.ByName["-fpga-mgr"],
	}
	b := &bringup{
		w:       w,
		redis:   parm.ByName["-redis"],
		hash:    def("-hash", publish.DefaultHash),
		boot:    def("-boot", qspi.BootImage),
		mtd:     def("-mtd", qspi.BootDevice),
		sn:      def("-sn", qspi.SerialDeviceRO),
		profile: def("-profile", board.ProfilePath),
		loader:  loader,
	}
	return b.run(cfg, open)
}

type bringup struct {
	w io.Writer

	redis, hash string
	boot, mtd   string
	sn, profile string
	loader      fpgamgr.Loader

	errs []error
}

// fail records a step that doesn't stop the bring-up.
func (b *bringup) fail(err error) {
	fmt.Fprintln(b.w, "fpgainit:", err)
	log.Print("err", "fpgainit: ", err)
	b.errs = append(b.errs, err)
}

func (b *bringup) run(cfg device.Config,
	open func(device.Config) (*emio.Bus, error)) error {
	w := b.w
	fmt.Fprintln(w, "*** FPGAV3 Initialization ***")
	fmt.Fprintln(w, "Software Version", buildinfo.New().Version())

	sn, err := qspi.ReadSerialNumber(b.sn)
	if err != nil {
		b.fail(err)
	} else if len(sn) > 0 {
		fmt.Fprintln(w, "FPGA S/N:", sn)
	}

	bus, err := open(cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	info, err := board.Detect(bus, nil, board.DefaultTries)
	if err != nil {
		if errors.Is(err, board.ErrNotBCFG) {
			return fmt.Errorf("%w, exiting", err)
		}
		return err
	}
	fmt.Fprintln(w, "Hardware version:", board.BCFG)
	fmt.Fprintf(w, "Status reg: %08x\n", info.Status)
	if info.V30 {
		fmt.Fprintln(w, "FPGA V3.0 detected!")
	}
	fmt.Fprintln(w, "Board type:", info.Type)
	if fw := info.Type.Firmware(); len(fw) > 0 {
		fmt.Fprintln(w, "Board firmware:", fw)
	}
	fmt.Fprintln(w, "Real-time block quadlets:", info.Type.RtQuads())
	fmt.Fprintf(w, "Board ID: %d\n\n", info.ID)

	fmt.Fprintln(w, "Exporting FPGAV3 environment variables")
	if err = board.ExportProfile(b.profile, info, sn); err != nil {
		b.fail(err)
	}
	if len(b.redis) > 0 {
		fmt.Fprintln(w, "Publishing FPGAV3 variables to", b.redis)
		err = publish.Publish(b.redis, b.hash, publish.Fields(info, sn))
		if err != nil {
			b.fail(err)
		}
	}

	if fw := info.Type.Firmware(); len(fw) > 0 {
		fmt.Fprintln(w, "Loading bitstream", fpgamgr.BinName(fw), "to FPGA")
		if _, err = b.loader.Load(fw); err != nil {
			b.fail(err)
		}
	}

	res, err := qspi.ProgramFlash(b.boot, b.mtd)
	switch {
	case err != nil:
		b.fail(err)
	case res.Diff == 0:
		fmt.Fprintf(w, "ProgramFlash:  %s already present in %s\n",
			b.boot, b.mtd)
	default:
		fmt.Fprintf(w, "ProgramFlash:  updated %s in %s (%d of %d sectors)\n",
			b.boot, b.mtd, res.Diff, res.Sectors())
	}

	fmt.Fprintln(w, "\nEnabling PS Ethernet")
	if err = bus.WriteQuadlet(board.RegEthCtrl, board.EthEnable); err != nil {
		b.fail(err)
	}

	fmt.Fprint(w, "Writing FPGA S/N to FPGA\n\n")
	if prom, err := qspi.ReadPrefix(b.sn, PromSerialBytes); err != nil {
		b.fail(err)
	} else if err = bus.WritePromData(prom); err != nil {
		b.fail(err)
	}

	fmt.Fprint(w, "*** FPGAV3 Initialization Complete ***\n\n")
	if len(b.errs) > 0 {
		return fmt.Errorf("%d step(s) failed, first: %w", len(b.errs),
			b.errs[0])
	}
	return nil
}
