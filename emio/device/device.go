// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package device opens an EMIO bus on the board's transport.
package device

import (
	"fmt"
	"io"
	"time"

	"github.com/platinasystems/fpgav3/emio"
	"github.com/platinasystems/fpgav3/emio/cdev"
	"github.com/platinasystems/fpgav3/emio/mmap"
)

const (
	Mmap  = "mmap"
	Gpiod = "gpiod"
)

// Config selects and tunes the bus session.
type Config struct {
	// Kind is Mmap (default) or Gpiod.
	Kind       string
	Verbose    bool
	EventMode  bool
	TimingMode uint
	// Timeout of each op-done wait, DefaultTimeout if zero.
	Timeout time.Duration
	// Output receives diagnostics, the system log if nil.
	Output io.Writer

	// Transport overrides Kind.
	Transport emio.Transport
}

// Transport returns the transport named by kind.
func Transport(kind string, verbose bool) (emio.Transport, error) {
	switch kind {
	case "", Mmap:
		t := mmap.New()
		t.Verbose = verbose
		return t, nil
	case Gpiod:
		return cdev.New(), nil
	}
	return nil, fmt.Errorf("%s: %w transport", kind, emio.ErrUnsupported)
}

// Open initializes the configured transport and returns a session on it.
func Open(cfg Config) (*emio.Bus, error) {
	t := cfg.Transport
	if t == nil {
		var err error
		if t, err = Transport(cfg.Kind, cfg.Verbose); err != nil {
			return nil, err
		}
	}
	bus, err := emio.New(t)
	if err != nil {
		return nil, err
	}
	bus.SetOutput(cfg.Output)
	bus.SetVerbose(cfg.Verbose)
	bus.SetTimeout(cfg.Timeout)
	if err = bus.SetEventMode(cfg.EventMode); err != nil {
		bus.Close()
		return nil, err
	}
	if err = bus.SetTimingMode(cfg.TimingMode); err != nil {
		bus.Close()
		return nil, err
	}
	return bus, nil
}
