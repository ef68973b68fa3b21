// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the FPGA V3 board utility; link it as block, quad, sn or
// fpgainit to run that command.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/log"
)

func main() {
	if err := Goes().Main(os.Args...); err != nil {
		prog := filepath.Base(os.Args[0])
		if !isatty.IsTerminal(os.Stderr.Fd()) {
			log.Print("err", prog, ": ", err)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", prog, err)
		os.Exit(1)
	}
}
