// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmd holds what commands share with the command registry.
package cmd

import "github.com/platinasystems/lre/elib"

// Kind is how the registry runs a command; zero is interactive.
type Kind uint16

const (
	// Run in the registry's process, e.g. help.
	DontFork Kind = 1 << iota
	// Long running; closed on SIGTERM, errors are logged.
	Daemon
	// Left out of help and completion.
	Hidden
)

var kind_names = [...]string{
	0: "don't fork",
	1: "daemon",
	2: "hidden",
}

func (k Kind) String() string {
	if k == 0 {
		return "interactive"
	}
	return elib.FlagStringer(kind_names[:], uint64(k))
}

func (k Kind) IsDontFork() bool    { return k&DontFork != 0 }
func (k Kind) IsDaemon() bool      { return k&Daemon != 0 }
func (k Kind) IsHidden() bool      { return k&Hidden != 0 }
func (k Kind) IsInteractive() bool { return k&(Daemon|Hidden) == 0 }

// WhatKind returns v's Kind, or interactive if it has no Kind method.
func WhatKind(v interface{}) Kind {
	if k, ok := v.(interface{ Kind() Kind }); ok {
		return k.Kind()
	}
	return 0
}
