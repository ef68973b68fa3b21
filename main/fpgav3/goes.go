// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"github.com/platinasystems/fpgav3"
	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/cmd/bench"
	"github.com/platinasystems/fpgav3/cmd/block"
	"github.com/platinasystems/fpgav3/cmd/fpgainit"
	"github.com/platinasystems/fpgav3/cmd/sn"
	"github.com/platinasystems/fpgav3/cmd/version"
	"github.com/platinasystems/fpgav3/lang"
)

// Version of development builds, e.g.
//
//	-ldflags "-X main.Version=$(git describe)"
var Version string

func Goes() *fpgav3.Goes {
	return &fpgav3.Goes{
		NAME: "fpgav3",
		APROPOS: lang.Alt{
			lang.EnUS: "FPGA V3 board utilities",
		},
		ByName: map[string]cmd.Cmd{
			"bench":    bench.Command{},
			"block":    block.Command{},
			"fpgainit": fpgainit.Command{},
			"quad":     block.Command{C: block.Quad},
			"sn":       sn.Command{},
			"version":  &version.Command{V: Version},
		},
	}
}
