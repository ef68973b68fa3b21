// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cdev

import "github.com/platinasystems/fpgav3/emio"

// Line values are ordered by increasing EMIO bit, so vals[i] is bit i of the
// group; for the version lines, requested from bit 60, that makes vals[3] the
// MSB.

// Pack returns the group value of line values.
func Pack(vals []int) uint32 {
	var v uint32
	for i := len(vals) - 1; i >= 0; i-- {
		v <<= 1
		if vals[i] != 0 {
			v |= 1
		}
	}
	return v
}

// Unpack sets line values from the low len(vals) bits of v.
func Unpack(vals []int, v uint32) {
	for i := range vals {
		vals[i] = int(v>>uint(i)) & 1
	}
}

// CtrlValues returns the reg_wen, blk_start, blk_end line values of c.
func CtrlValues(c emio.Ctrl) []int {
	vals := make([]int, 3)
	for i, bit := range []emio.Ctrl{emio.RegWen, emio.BlkStart, emio.BlkEnd} {
		if c&bit != 0 {
			vals[i] = 1
		}
	}
	return vals
}
