// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package emio

import (
	"fmt"
	"time"
)

// wait returns after the FPGA raises op-done for quadlet q of op, or fails
// with ErrTimeout once the session timeout has elapsed.
func (b *Bus) wait(op string, q int) error {
	if b.events && b.ew != nil {
		return b.waitEvent(op, q)
	}
	return b.poll(op, q)
}

func (b *Bus) waitEvent(op string, q int) error {
	ok, err := b.ew.WaitEvent(b.timeout)
	if err != nil {
		if b.verbose {
			b.logf("EMIO event error waiting for %s quadlet %d", op, q)
		}
		return fmt.Errorf("%s quadlet %d: %w", op, q, err)
	}
	if !ok {
		if b.verbose {
			b.logf("EMIO event timeout waiting for %s quadlet %d", op, q)
		}
		return fmt.Errorf("%w waiting for %s quadlet %d", ErrTimeout, op, q)
	}
	return nil
}

func (b *Bus) poll(op string, q int) error {
	done, err := b.t.OpDone()
	if err == nil && done {
		return nil
	}
	start := time.Now()
	var dt time.Duration
	for err == nil && !done && dt < b.timeout {
		done, err = b.t.OpDone()
		dt = time.Since(start)
	}
	switch {
	case err != nil:
		if b.verbose {
			b.logf("EMIO error polling op_done for %s quadlet %d", op, q)
		}
		return fmt.Errorf("%s quadlet %d: %w", op, q, err)
	case !done:
		if b.verbose {
			b.logf("EMIO polling timeout waiting for %s quadlet %d", op, q)
		}
		return fmt.Errorf("%w waiting for %s quadlet %d", ErrTimeout, op, q)
	}
	if b.verbose {
		b.logf("Waited %.3f us for %s quadlet %d", us(dt), op, q)
	}
	return nil
}
