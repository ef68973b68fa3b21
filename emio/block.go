// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"encoding/binary"
	"fmt"
)

// ReadBlock returns Quads(n) quadlets in big-endian order starting at addr.
// Address 0 is the real-time block; version 0 FPGAs are read one quadlet at a
// time.
func (b *Bus) ReadBlock(addr uint16, n int) ([]byte, error) {
	if n < 0 {
		n = 0
	}
	buf := make([]byte, 4*Quads(n))
	sw := b.stopwatch("ReadBlock", "Start-loop-end")
	var err error
	switch {
	case b.released:
		err = ErrReleased
	case addr == 0:
		err = b.readRt(buf)
	case !b.HasBlock():
		err = b.readQuadlets(addr, buf)
	default:
		err = b.readBlock(addr, buf, sw)
	}
	if err != nil {
		return nil, fmt.Errorf("emio: ReadBlock(%#x, %d): %w", addr, n, err)
	}
	sw.stop()
	return buf, nil
}

// WriteBlock stores data starting at addr, zero padding its last quadlet.
// Address 0 is the real-time block; version 0 FPGAs support no other.
func (b *Bus) WriteBlock(addr uint16, data []byte) error {
	nq := Quads(len(data))
	buf := make([]byte, 4*nq)
	copy(buf, data)
	sw := b.stopwatch("WriteBlock", "Start-loop-end")
	var err error
	switch {
	case b.released:
		err = ErrReleased
	case addr == 0:
		err = b.writeRt(buf)
	case !b.HasBlock():
		err = fmt.Errorf("block write %w by version %d", ErrUnsupported,
			b.version)
	default:
		err = b.writeBlock(addr, buf, sw)
	}
	if err != nil {
		return fmt.Errorf("emio: WriteBlock(%#x, %d): %w", addr, len(data),
			err)
	}
	sw.stop()
	return nil
}

func (b *Bus) readQuadlets(addr uint16, buf []byte) error {
	for q := 0; q < len(buf)/4; q++ {
		v, err := b.readQuadlet(addr+uint16(q), nil)
		if err != nil {
			return err
		}
		binary.BigEndian.PutUint32(buf[4*q:], v)
	}
	return nil
}

// blockCtrl is the shape presented for quadlet q of nq.
func blockCtrl(q, nq int) Ctrl {
	if q == nq-1 {
		return CtrlBlockEnd
	}
	return CtrlBlockStart
}

func (b *Bus) readBlock(addr uint16, buf []byte, sw *stopwatch) error {
	nq := len(buf) / 4
	if nq == 0 {
		return nil
	}
	if err := b.toInput(); err != nil {
		return err
	}
	lsb := uint(addr & 1)
	if err := b.t.WriteAddr(addr); err != nil {
		return err
	}
	if err := b.t.WriteAddrLSB(lsb); err != nil {
		return err
	}
	ctrl := blockCtrl(0, nq)
	if err := b.t.SetCtrl(ctrl); err != nil {
		b.t.SetCtrl(CtrlIdle)
		return err
	}
	sw.mark()
	for q := 0; q < nq; q++ {
		if q > 0 {
			if c := blockCtrl(q, nq); c != ctrl {
				ctrl = c
				if err := b.t.SetCtrl(ctrl); err != nil {
					b.t.SetCtrl(CtrlIdle)
					return fmt.Errorf("blk_end: %w", err)
				}
			}
			lsb ^= 1
			if err := b.t.WriteAddrLSB(lsb); err != nil {
				b.t.SetCtrl(CtrlIdle)
				return fmt.Errorf("address of quadlet %d: %w", q, err)
			}
		}
		if err := b.wait("read", q); err != nil {
			b.t.SetCtrl(CtrlIdle)
			return err
		}
		v, err := b.t.ReadData()
		if err != nil {
			b.t.SetCtrl(CtrlIdle)
			return fmt.Errorf("quadlet %d of %d: %w", q, nq, err)
		}
		binary.BigEndian.PutUint32(buf[4*q:], v)
	}
	sw.mark()
	return b.t.SetCtrl(CtrlIdle)
}

func (b *Bus) writeBlock(addr uint16, buf []byte, sw *stopwatch) error {
	nq := len(buf) / 4
	if nq == 0 {
		return nil
	}
	if err := b.drive(binary.BigEndian.Uint32(buf)); err != nil {
		return err
	}
	lsb := uint(addr & 1)
	if err := b.t.WriteAddr(addr); err != nil {
		return err
	}
	if err := b.t.WriteAddrLSB(lsb); err != nil {
		return err
	}
	ctrl := blockCtrl(0, nq)
	if err := b.t.SetCtrl(ctrl); err != nil {
		b.t.SetCtrl(CtrlIdle)
		return err
	}
	if err := b.wait("write", 0); err != nil {
		b.t.SetCtrl(CtrlIdle)
		return err
	}
	sw.mark()
	for q := 1; q < nq; q++ {
		if err := b.t.WriteData(binary.BigEndian.Uint32(buf[4*q:])); err != nil {
			b.t.SetCtrl(CtrlIdle)
			return fmt.Errorf("quadlet %d of %d: %w", q, nq, err)
		}
		if c := blockCtrl(q, nq); c != ctrl {
			ctrl = c
			if err := b.t.SetCtrl(ctrl); err != nil {
				b.t.SetCtrl(CtrlIdle)
				return fmt.Errorf("blk_end: %w", err)
			}
		}
		lsb ^= 1
		if err := b.t.WriteAddrLSB(lsb); err != nil {
			b.t.SetCtrl(CtrlIdle)
			return fmt.Errorf("address of quadlet %d: %w", q, err)
		}
		if err := b.wait("write", q); err != nil {
			b.t.SetCtrl(CtrlIdle)
			return err
		}
	}
	sw.mark()
	return b.t.SetCtrl(CtrlIdle)
}
