// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cmd

import (
	"reflect"
	"testing"

	"github.com/platinasystems/fpgav3/lang"
)

func TestSwap(t *testing.T) {
	for _, x := range []struct {
		args, want []string
	}{
		{[]string{"quad", "-man"}, []string{"man", "quad"}},
		{[]string{"quad", "--usage", "4"}, []string{"usage", "quad", "4"}},
		{[]string{"block", "-h"}, []string{"help", "block"}},
		{[]string{"-apropos"}, []string{"apropos"}},
		{[]string{"quad", "-v", "4"}, []string{"quad", "-v", "4"}},
		{[]string{}, []string{}},
	} {
		Swap(x.args)
		if !reflect.DeepEqual(x.args, x.want) {
			t.Error("wrong:", x.args)
		}
	}
}

type hidden struct{}

func (hidden) String() string       { return "hidden" }
func (hidden) Usage() string        { return "hidden" }
func (hidden) Apropos() lang.Alt    { return lang.Alt{lang.EnUS: "hidden"} }
func (hidden) Main(...string) error { return nil }
func (hidden) Kind() Kind           { return Hidden | Privileged }

type plain struct{ hidden }

func (plain) Kind() {}

func TestKind(t *testing.T) {
	k := WhatKind(hidden{})
	if !k.IsHidden() || !k.IsPrivileged() {
		t.Error("wrong:", k)
	}
	if s := k.String(); s != "hidden, privileged" {
		t.Error("wrong:", s)
	}
	if k = WhatKind(plain{}); k != 0 || k.String() != "none" {
		t.Error("wrong:", k)
	}
}
