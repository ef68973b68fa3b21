// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"encoding/binary"
	"fmt"
)

// WritePromData copies data, big-endian and zero padded to a quadlet, into
// the FPGA PROM registers.
func (b *Bus) WritePromData(data []byte) error {
	nq := Quads(len(data))
	buf := make([]byte, 4*nq)
	copy(buf, data)
	for q := 0; q < nq; q++ {
		v := binary.BigEndian.Uint32(buf[4*q:])
		if err := b.WriteQuadlet(PromBase+uint16(q), v); err != nil {
			return fmt.Errorf("prom quadlet %d: %w", q, err)
		}
	}
	return nil
}
