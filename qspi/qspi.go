// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qspi accesses the QSPI flash partitions through their MTD devices.
//
// A regular file may stand in for a partition; it is erased by filling
// FileEraseSize sectors with 0xff.
package qspi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	MEMGETINFO = 0x80204d01 // from linux: mtd-abi.h
	MEMERASE   = 0x40084d02
	MEMUNLOCK  = 0x40084d06
)

const (
	BootImage  = "/media/qspi-boot.bin"
	BootDevice = "/dev/mtd0"

	// The serial number partition with its read-only alias.
	SerialDevice   = "/dev/mtd4"
	SerialDeviceRO = "/dev/mtd4ro"

	SerialPrefix = "FPGA "
	SerialMax    = 8
)

var FileEraseSize uint32 = 0x10000

var ErrSerialTooLong = fmt.Errorf("serial number longer than %d", SerialMax)

type mtdInfo struct {
	typ       uint8
	flags     uint32
	size      uint32
	erasesize uint32
	writesize uint32
	oobsize   uint32
	unused    uint64
}

type eraseInfo struct {
	start  uint32
	length uint32
}

type Device struct {
	f         *os.File
	name      string
	eraseSize uint32
	regular   bool
}

// Open an MTD device, or a regular file, with the given os.OpenFile flag.
func Open(name string, flag int) (*Device, error) {
	f, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return nil, err
	}
	d := &Device{f: f, name: name}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Mode().IsRegular() {
		d.regular = true
		d.eraseSize = FileEraseSize
		return d, nil
	}
	var mi mtdInfo
	if err = d.ioctl(MEMGETINFO, unsafe.Pointer(&mi)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: MEMGETINFO: %w", name, err)
	}
	d.eraseSize = mi.erasesize
	return d, nil
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, e := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(arg))
	if e != 0 {
		return e
	}
	return nil
}

func (d *Device) Name() string { return d.name }

// EraseSize is the sector size.
func (d *Device) EraseSize() uint32 { return d.eraseSize }

// Erase unlocks and erases the sector at start.
func (d *Device) Erase(start uint32) error {
	if d.regular {
		_, err := d.f.WriteAt(bytes.Repeat([]byte{0xff}, int(d.eraseSize)),
			int64(start))
		return err
	}
	ei := eraseInfo{start: start, length: d.eraseSize}
	// Partitions that were never locked refuse the unlock.
	d.ioctl(MEMUNLOCK, unsafe.Pointer(&ei))
	if err := d.ioctl(MEMERASE, unsafe.Pointer(&ei)); err != nil {
		return fmt.Errorf("%s: erase %#x: %w", d.name, start, err)
	}
	return nil
}

func (d *Device) Read(b []byte) (int, error)               { return d.f.Read(b) }
func (d *Device) ReadAt(b []byte, off int64) (int, error)  { return d.f.ReadAt(b, off) }
func (d *Device) WriteAt(b []byte, off int64) (int, error) { return d.f.WriteAt(b, off) }
func (d *Device) Close() error                             { return d.f.Close() }

// SerialNumber parses a serial number record; erased flash has none and
// returns an empty string.
func SerialNumber(r io.Reader) (string, error) {
	buf := make([]byte, len(SerialPrefix)+SerialMax)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if n < len(SerialPrefix) || string(buf[:len(SerialPrefix)]) != SerialPrefix {
		return "", nil
	}
	sn := buf[len(SerialPrefix):n]
	for i, c := range sn {
		if c == 0xff || c == 0 {
			sn = sn[:i]
			break
		}
	}
	return string(sn), nil
}

func ReadSerialNumber(dev string) (string, error) {
	f, err := os.Open(dev)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return SerialNumber(f)
}

// ProgramSerialNumber erases the first sector of dev and writes the record.
func ProgramSerialNumber(dev, sn string) error {
	if len(sn) > SerialMax {
		return fmt.Errorf("%q: %w", sn, ErrSerialTooLong)
	}
	d, err := Open(dev, os.O_RDWR)
	if err != nil {
		return err
	}
	defer d.Close()
	if err = d.Erase(0); err != nil {
		return err
	}
	if _, err = d.WriteAt([]byte(SerialPrefix+sn), 0); err != nil {
		return fmt.Errorf("%s: write S/N %s: %w", dev, sn, err)
	}
	return nil
}

// Result counts the sectors of an image that were already present or had
// to be rewritten.
type Result struct {
	Same, Diff int
}

func (r Result) Sectors() int { return r.Same + r.Diff }

// ProgramFlash writes the image file to dev, erasing and rewriting only the
// sectors that differ.
func ProgramFlash(file, dev string) (Result, error) {
	var res Result
	img, err := os.ReadFile(file)
	if err != nil {
		return res, err
	}
	d, err := Open(dev, os.O_RDWR)
	if err != nil {
		return res, err
	}
	defer d.Close()
	sector := int(d.EraseSize())
	if sector <= 0 {
		return res, fmt.Errorf("%s: zero erase size", dev)
	}
	cur := make([]byte, sector)
	for off := 0; off < len(img); off += sector {
		want := img[off:]
		if len(want) > sector {
			want = want[:sector]
		}
		n, err := d.ReadAt(cur[:len(want)], int64(off))
		if err != nil && !errors.Is(err, io.EOF) {
			return res, fmt.Errorf("%s: read %#x: %w", dev, off, err)
		}
		if n == len(want) && bytes.Equal(cur[:n], want) {
			res.Same++
			continue
		}
		res.Diff++
		if err = d.Erase(uint32(off)); err != nil {
			return res, err
		}
		if _, err = d.WriteAt(want, int64(off)); err != nil {
			return res, fmt.Errorf("%s: write %#x: %w", dev, off, err)
		}
	}
	return res, nil
}

// ReadPrefix returns the first n bytes of dev rounded up to whole quadlets.
func ReadPrefix(dev string, n int) ([]byte, error) {
	f, err := os.Open(dev)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 4*((n+3)/4))
	if _, err = io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("%s: %w", dev, err)
	}
	return buf, nil
}
