// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package version

import (
	"fmt"
	"io"
	"os"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/fpgav3/internal/buildinfo"
	"github.com/platinasystems/fpgav3/lang"
)

type Command struct {
	// V is printed for development builds; e.g. the git describe of
	// the source.
	V      string
	Stdout io.Writer
}

func (Command) String() string { return "version" }
func (Command) Usage() string  { return "version [-deps]" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print the fpgav3 software version",
	}
}

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-deps")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	bi := buildinfo.New()
	if flag.ByName["-deps"] {
		fmt.Fprintln(w, bi)
		return nil
	}
	ver := bi.Version()
	if c.V != "" && (ver == buildinfo.Devel || ver == buildinfo.Unavailable) {
		ver = c.V
	}
	fmt.Fprintln(w, ver)
	return nil
}
