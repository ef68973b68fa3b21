// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package buildinfo

import (
	"fmt"
	"runtime/debug"
	"testing"
)

func TestFormat(t *testing.T) {
	bi := BuildInfo{&debug.BuildInfo{
		Main: debug.Module{Path: "github.com/platinasystems/fpgav3"},
		Deps: []*debug.Module{
			{Path: Gpiocdev, Version: "v0.9.0"},
			{
				Path:    "gonum.org/v1/gonum",
				Replace: &debug.Module{Path: "../gonum", Version: "v0.1.0"},
			},
		},
	}}
	want := "github.com/platinasystems/fpgav3@\n\t" +
		Gpiocdev + "@v0.9.0\n\tgonum.org/v1/gonum=../gonum@v0.1.0"
	if s := fmt.Sprint(bi); s != want {
		t.Errorf("wrong: %q", s)
	}
	if s := bi.Version(); s != Devel {
		t.Error("wrong:", s)
	}
	if s := bi.Dep(Gpiocdev); s != "v0.9.0" {
		t.Error("wrong:", s)
	}
	if s := bi.Dep("gonum.org/v1/gonum"); s != "v0.1.0" {
		t.Error("wrong:", s)
	}
	if s := bi.Dep("none"); s != Unavailable {
		t.Error("wrong:", s)
	}
	if s := fmt.Sprint(BuildInfo{}); s != Unavailable {
		t.Error("wrong:", s)
	}
}
