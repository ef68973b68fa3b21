// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fpgamgr loads a converted bitstream through the Linux FPGA
// manager.
package fpgamgr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	BitstreamDir = "/media"
	FirmwareDir  = "/lib/firmware"
	ManagerDir   = "/sys/class/fpga_manager/fpga0"
)

// BinName is the file name of the converted bitstream of firmware fw.
func BinName(fw string) string { return fw + ".bit.bin" }

// Loader copies bitstreams into Firmware, where the manager looks for
// them, and triggers the load. Empty fields use the defaults above.
type Loader struct {
	Bitstreams string
	Firmware   string
	Manager    string
}

func (l Loader) dir(s, def string) string {
	if len(s) > 0 {
		return s
	}
	return def
}

// Load programs the FPGA with the converted bitstream of fw and returns the
// name written to the manager.
func (l Loader) Load(fw string) (string, error) {
	name := BinName(fw)
	src := filepath.Join(l.dir(l.Bitstreams, BitstreamDir), name)
	fwdir := l.dir(l.Firmware, FirmwareDir)
	mgr := l.dir(l.Manager, ManagerDir)
	if err := os.MkdirAll(fwdir, 0755); err != nil {
		return name, err
	}
	if err := copyFile(filepath.Join(fwdir, name), src); err != nil {
		return name, err
	}
	if err := attr(filepath.Join(mgr, "flags"), "0"); err != nil {
		return name, err
	}
	if err := attr(filepath.Join(mgr, "firmware"), name); err != nil {
		return name, err
	}
	return name, nil
}

func copyFile(dst, src string) error {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	if xerr := w.Close(); err == nil {
		err = xerr
	}
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// attr writes a sysfs attribute, which must already exist.
func attr(fn, value string) error {
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(f, value)
	if xerr := f.Close(); err == nil {
		err = xerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	return nil
}
