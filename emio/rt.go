// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"encoding/binary"
	"fmt"
)

// Real-time block registers (firmware Rev 8).
const (
	RegStatus      = 0
	RegTemperature = 5
	RegDigitalIO   = 10

	ChanADC         = 0
	ChanDAC         = 1
	ChanMotorStatus = 12

	// RtHeaderQuads is the quadlet count field of a real-time write header.
	RtHeaderQuads = 0x000000ff
	// DacValid and AmpEnableMask trigger the DAC write of a channel.
	DacValid      = 1 << 31
	AmpEnableMask = 1 << 29
	// PowerCtrlMask are the power control bits of the last quadlet.
	PowerCtrlMask = 0x000fffff
)

// The encoder channel registers, in real-time block order.
var EncoderRegs = [...]uint16{5, 6, 7, 9, 10}

// RtLayout is the board population implied by a real-time quadlet count.
type RtLayout struct {
	Motors, Encoders int
}

// RtLayoutOf returns the population for n quadlets: 59 is a DRAC with 10
// motors and 7 encoders, otherwise there are (n-4)/7 of each.
//
//	4	no daughter board
//	32	QLA
//	59	DRAC
//	60	DQLA
func RtLayoutOf(n int) (RtLayout, error) {
	if n < 4 {
		return RtLayout{}, fmt.Errorf("%w: %d quadlets", ErrLayout, n)
	}
	if n == 59 {
		return RtLayout{Motors: 10, Encoders: 7}, nil
	}
	m := (n - 4) / 7
	return RtLayout{Motors: m, Encoders: m}, nil
}

// Quads is the number of quadlets filled by the layout.
func (l RtLayout) Quads() int {
	return 4 + 2*l.Motors + len(EncoderRegs)*l.Encoders
}

// Regs lists the register read for each real-time quadlet after the leading
// place holder.
func (l RtLayout) Regs() []uint16 {
	regs := make([]uint16, 0, l.Quads()-1)
	regs = append(regs, RegStatus, RegDigitalIO, RegTemperature)
	for i := 0; i < l.Motors; i++ {
		regs = append(regs, chanReg(i, ChanADC))
	}
	for _, off := range EncoderRegs {
		for i := 0; i < l.Encoders; i++ {
			regs = append(regs, chanReg(i, off))
		}
	}
	for i := 0; i < l.Motors; i++ {
		regs = append(regs, chanReg(i, ChanMotorStatus))
	}
	return regs
}

func chanReg(i int, off uint16) uint16 { return uint16(i+1)<<4 | off }

// readRt fills buf with the real-time block. Quadlet 0 would be the time
// stamp, which isn't available over EMIO.
func (b *Bus) readRt(buf []byte) error {
	l, err := RtLayoutOf(len(buf) / 4)
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}
	for i, reg := range l.Regs() {
		v, err := b.readQuadlet(reg, nil)
		if err != nil {
			return err
		}
		binary.BigEndian.PutUint32(buf[4*(i+1):], v)
	}
	return nil
}

// writeRt sends the real-time block as DAC quadlet writes followed by the
// power control quadlet. The power control is sent when no DAC was written,
// refreshing the watchdog, or when any of its control bits are set.
func (b *Bus) writeRt(buf []byte) error {
	nq := len(buf) / 4
	if nq == 0 {
		return fmt.Errorf("%w: empty real-time block", ErrHeader)
	}
	hdr := binary.BigEndian.Uint32(buf)
	if n := int(hdr & RtHeaderQuads); n != nq {
		return fmt.Errorf("%w: header quadlets %d, expected %d",
			ErrHeader, n, nq)
	}
	noDac := true
	for i := 1; i < nq-1; i++ {
		dac := binary.BigEndian.Uint32(buf[4*i:])
		if dac&(DacValid|AmpEnableMask) == 0 {
			continue
		}
		noDac = false
		if err := b.writeQuadlet(uint16(i)<<4|ChanDAC, dac, nil); err != nil {
			return err
		}
	}
	ctrl := binary.BigEndian.Uint32(buf[4*(nq-1):])
	if noDac || ctrl&PowerCtrlMask != 0 {
		return b.writeQuadlet(RegStatus, ctrl, nil)
	}
	return nil
}
