// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import "fmt"

// ReadQuadlet returns the FPGA register at addr.
func (b *Bus) ReadQuadlet(addr uint16) (uint32, error) {
	v, err := b.readQuadlet(addr, b.stopwatch("ReadQuadlet", "Start-wait-end"))
	if err != nil {
		return 0, fmt.Errorf("emio: ReadQuadlet(%#x): %w", addr, err)
	}
	return v, nil
}

func (b *Bus) readQuadlet(addr uint16, sw *stopwatch) (uint32, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	if err := b.toInput(); err != nil {
		return 0, err
	}
	if err := b.t.WriteAddr(addr); err != nil {
		return 0, err
	}
	if err := b.t.SetCtrl(CtrlRead); err != nil {
		b.t.SetCtrl(CtrlIdle)
		return 0, err
	}
	sw.mark()
	if err := b.wait("read", 0); err != nil {
		b.t.SetCtrl(CtrlIdle)
		return 0, err
	}
	sw.mark()
	v, err := b.t.ReadData()
	if xerr := b.t.SetCtrl(CtrlIdle); err == nil {
		err = xerr
	}
	if err != nil {
		return 0, err
	}
	sw.stop()
	return v, nil
}

// WriteQuadlet stores v in the FPGA register at addr.
func (b *Bus) WriteQuadlet(addr uint16, v uint32) error {
	sw := b.stopwatch("WriteQuadlet", "Start-wait-end")
	if err := b.writeQuadlet(addr, v, sw); err != nil {
		return fmt.Errorf("emio: WriteQuadlet(%#x, %#x): %w", addr, v, err)
	}
	return nil
}

func (b *Bus) writeQuadlet(addr uint16, v uint32, sw *stopwatch) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.drive(v); err != nil {
		return err
	}
	if err := b.t.WriteAddr(addr); err != nil {
		return err
	}
	err := b.t.SetCtrl(CtrlQuadWrite)
	if err == nil {
		sw.mark()
		err = b.wait("write", 0)
		sw.mark()
	}
	if xerr := b.t.SetCtrl(CtrlIdle); err == nil {
		err = xerr
	}
	if err != nil {
		return err
	}
	sw.stop()
	return nil
}
