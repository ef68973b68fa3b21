// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cmd

import "strings"

const (
	// Hidden commands are run by boot scripts and left out of apropos.
	Hidden Kind = 1 << iota
	// Privileged commands need the EMIO bus or flash devices.
	Privileged
)

func WhatKind(v Cmd) Kind {
	if m, found := v.(kinder); found {
		return m.Kind()
	}
	return 0
}

type kinder interface {
	Kind() Kind
}

type Kind uint16

func (k Kind) IsHidden() bool     { return (k & Hidden) == Hidden }
func (k Kind) IsPrivileged() bool { return (k & Privileged) == Privileged }

func (k Kind) String() string {
	var ss []string
	if k.IsHidden() {
		ss = append(ss, "hidden")
	}
	if k.IsPrivileged() {
		ss = append(ss, "privileged")
	}
	if len(ss) == 0 {
		return "none"
	}
	return strings.Join(ss, ", ")
}
