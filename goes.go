// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fpgav3 is a multicall dispatcher of the FPGA V3 board commands.
//
// The command is the base name of the program, if that is a command, or
// else the first argument. Each command also responds to the helper
// flags, e.g. "quad -man".
package fpgav3

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/platinasystems/fpgav3/cmd"
	"github.com/platinasystems/fpgav3/lang"
)

type Goes struct {
	NAME    string
	USAGE   string
	APROPOS lang.Alt
	MAN     lang.Alt
	ByName  map[string]cmd.Cmd

	// Stdout receives helper text; os.Stdout if nil.
	Stdout io.Writer

	cache struct {
		sync.Mutex
		names []string
	}
}

func (g *Goes) String() string {
	if len(g.NAME) == 0 {
		return "fpgav3"
	}
	return g.NAME
}

func (g *Goes) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Names returns the sorted command names.
func (g *Goes) Names() []string {
	g.cache.Lock()
	defer g.cache.Unlock()
	if len(g.cache.names) != len(g.ByName) {
		g.cache.names = g.cache.names[:0]
		for k := range g.ByName {
			g.cache.names = append(g.cache.names, k)
		}
		sort.Strings(g.cache.names)
	}
	return g.cache.names
}

func (g *Goes) builtins() map[string]func(...string) error {
	return map[string]func(...string) error{
		"apropos": g.apropos,
		"help":    g.help,
		"man":     g.man,
		"usage":   g.usage,
	}
}

// shift drops the program name unless it is also a command or helper.
func (g *Goes) shift(args []string) []string {
	if len(args) == 0 {
		return args
	}
	name := filepath.Base(args[0])
	if _, found := g.ByName[name]; found {
		args[0] = name
		return args
	}
	if _, found := cmd.Helpers[name]; found {
		args[0] = name
		return args
	}
	return args[1:]
}

// Main runs the command named by args, os.Args if empty.
func (g *Goes) Main(args ...string) error {
	if len(args) == 0 {
		args = os.Args
	}
	args = g.shift(args)
	if len(args) == 0 {
		return fmt.Errorf("COMMAND: missing\n%s", Usage(g))
	}
	cmd.Swap(args)
	if f, found := g.builtins()[args[0]]; found {
		return f(args[1:]...)
	}
	v, found := g.ByName[args[0]]
	if !found {
		return fmt.Errorf("%s: command not found", args[0])
	}
	return v.Main(args[1:]...)
}
