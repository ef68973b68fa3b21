// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
)

// Options is the usage text of the bus options removed by Parse.
const Options = `
	-v	verbose output
	-g	use the gpiod (character device) transport instead of mmap
	-e N	wait for op_done by polling (0) or events (1)
	-t N	timing: 0 (none), 1 (total time only), 2 (all phases)
	-timeout DURATION
		op_done wait limit, e.g. 500us; plain numbers are
		microseconds (default 250us)`

// Parse removes the bus options from args.
func Parse(args []string) (Config, []string, error) {
	var cfg Config
	flag, args := flags.New(args, "-v", "-g")
	parm, args := parms.New(args, "-e", "-t", "-timeout")
	cfg.Verbose = flag.ByName["-v"]
	if flag.ByName["-g"] {
		cfg.Kind = Gpiod
	}
	switch s := parm.ByName["-e"]; s {
	case "", "0":
	case "1":
		cfg.EventMode = true
	default:
		return cfg, args, fmt.Errorf("-e %s: invalid", s)
	}
	if s := parm.ByName["-t"]; len(s) > 0 {
		u, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return cfg, args, fmt.Errorf("-t %s: %w", s, err)
		}
		cfg.TimingMode = uint(u)
	}
	if s := parm.ByName["-timeout"]; len(s) > 0 {
		d, err := ParseTimeout(s)
		if err != nil {
			return cfg, args, fmt.Errorf("-timeout %s: %w", s, err)
		}
		cfg.Timeout = d
	}
	return cfg, args, nil
}

// ParseTimeout accepts a time.Duration or a number of microseconds.
func ParseTimeout(s string) (time.Duration, error) {
	if u, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(u) * time.Microsecond, nil
	}
	d, err := time.ParseDuration(strings.Replace(s, "µs", "us", 1))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("not positive")
	}
	return d, nil
}
