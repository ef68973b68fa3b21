// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package board identifies the FPGA V3 board from its BCFG registers.
package board

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jpillora/backoff"
)

// BCFG firmware registers.
const (
	RegStatus   = 0
	RegHardware = 4
	RegEthCtrl  = 12

	// EthEnable sets the PS Ethernet enable with its mask bit.
	EthEnable = 0x02010000

	// Hardware register signature of the boot configuration firmware.
	BCFG = "BCFG"
)

const (
	idMask   = 0x0f000000
	idShift  = 24
	typeMask = 0x00f00000
	typShift = 20
	v30      = 0x00080000
)

const ProfilePath = "/etc/profile.d/fpgav3.sh"

var ErrNotBCFG = errors.New("did not detect BCFG firmware")

type Type int

const (
	Unknown Type = iota
	None
	QLA
	DQLA
	DRAC
)

var names = []string{"Unknown", "None", "QLA", "DQLA", "DRAC"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return names[Unknown]
	}
	return names[t]
}

// Firmware is the bitstream name loaded for the board; empty if none.
func (t Type) Firmware() string {
	switch t {
	case QLA, DQLA, DRAC:
		return "FPGA1394V3-" + t.String()
	}
	return ""
}

// RtQuads is the size of the board's real-time read block.
func (t Type) RtQuads() int {
	switch t {
	case QLA:
		return 4 + 7*4
	case DQLA:
		return 4 + 7*8
	case DRAC:
		return 59
	}
	return 4
}

// Info is the board identity decoded from the status register.
type Info struct {
	Status uint32
	ID     uint
	Type   Type
	V30    bool
}

func Decode(status uint32) Info {
	info := Info{
		Status: status,
		ID:     uint(status&idMask) >> idShift,
		V30:    status&v30 != 0,
	}
	switch (status & typeMask) >> typShift {
	case 8:
		info.Type = None
	case 4:
		info.Type = QLA
	case 2:
		info.Type = DQLA
	case 1:
		info.Type = DRAC
	}
	return info
}

func (info Info) Version() string {
	if info.V30 {
		return "3.0"
	}
	return "3.1"
}

// Hardware returns the four characters of the hardware register, most
// significant byte first.
func Hardware(reg uint32) string {
	return string([]byte{
		byte(reg >> 24),
		byte(reg >> 16),
		byte(reg >> 8),
		byte(reg),
	})
}

// WriteProfile writes the shell exports of the board identity; sn may be
// empty.
func WriteProfile(w io.Writer, info Info, sn string) error {
	if _, err := fmt.Fprintf(w, "export FPGAV3_VER=%s\n", info.Version()); err != nil {
		return err
	}
	if len(sn) > 0 {
		if _, err := fmt.Fprintf(w, "export FPGAV3_SN=%s\n", sn); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "export FPGAV3_HW=%s\n", info.Type); err != nil {
		return err
	}
	if info.ID < 16 {
		if _, err := fmt.Fprintf(w, "export FPGAV3_ID=%d\n", info.ID); err != nil {
			return err
		}
	}
	return nil
}

// ExportProfile replaces the profile script at path.
func ExportProfile(path string, info Info, sn string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	err = WriteProfile(f, info, sn)
	if xerr := f.Close(); err == nil {
		err = xerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Reader is satisfied by *emio.Bus.
type Reader interface {
	ReadQuadlet(addr uint16) (uint32, error)
}

// DefaultRetry paces Detect's register reads.
var DefaultRetry = backoff.Backoff{
	Min:    time.Millisecond,
	Max:    50 * time.Millisecond,
	Factor: 2,
}

const DefaultTries = 3

// Detect reads the hardware and status registers, retrying bus errors up to
// tries times with the delays of retry (DefaultRetry if nil).
func Detect(r Reader, retry *backoff.Backoff, tries int) (Info, error) {
	if retry == nil {
		b := DefaultRetry
		retry = &b
	}
	if tries < 1 {
		tries = 1
	}
	retry.Reset()
	read := func(addr uint16) (v uint32, err error) {
		for i := 0; i < tries; i++ {
			if i > 0 {
				time.Sleep(retry.Duration())
			}
			if v, err = r.ReadQuadlet(addr); err == nil {
				return
			}
		}
		return
	}
	hw, err := read(RegHardware)
	if err != nil {
		return Info{}, err
	}
	if s := Hardware(hw); s != BCFG {
		return Info{}, fmt.Errorf("%w (%q)", ErrNotBCFG, s)
	}
	status, err := read(RegStatus)
	if err != nil {
		return Info{}, err
	}
	return Decode(status), nil
}
