// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package buildinfo reports the module versions linked into the program,
//
//	bi := buildinfo.New()
//	fmt.Println("Software Version", bi.Version())
//	fmt.Println("GPIOD library version", bi.Dep(buildinfo.Gpiocdev))
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

const (
	Unavailable = "(unavailable)"
	Devel       = "(devel)"

	Gpiocdev = "github.com/warthog618/go-gpiocdev"
)

type BuildInfo struct {
	*debug.BuildInfo
}

func New() BuildInfo {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return BuildInfo{bi}
	}
	return BuildInfo{}
}

// Format prints the main module then each dependency on a tabbed line.
func (bi BuildInfo) Format(f fmt.State, c rune) {
	if bi.BuildInfo == nil {
		io.WriteString(f, Unavailable)
		return
	}
	modinfo(f, &bi.Main)
	for _, dep := range bi.Deps {
		io.WriteString(f, "\n\t")
		modinfo(f, dep)
	}
}

func (bi BuildInfo) Version() string {
	if bi.BuildInfo == nil {
		return Unavailable
	}
	if len(bi.Main.Version) == 0 {
		return Devel
	}
	return bi.Main.Version
}

// Dep returns the version of the named dependency.
func (bi BuildInfo) Dep(path string) string {
	if bi.BuildInfo != nil {
		for _, dep := range bi.Deps {
			if dep.Path == path {
				if dep.Replace != nil {
					return dep.Replace.Version
				}
				return dep.Version
			}
		}
	}
	return Unavailable
}

func modinfo(w io.Writer, m *debug.Module) {
	io.WriteString(w, m.Path)
	if m.Replace != nil {
		io.WriteString(w, "=")
		io.WriteString(w, m.Replace.Path)
		if len(m.Replace.Version) > 0 {
			io.WriteString(w, "@")
			io.WriteString(w, m.Replace.Version)
		}
	} else {
		io.WriteString(w, "@")
		io.WriteString(w, m.Version)
	}
}
