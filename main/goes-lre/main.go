// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// This is a goes machine that runs a lowRISC ethernet controller w/in
// another distro.
package main

import (
	"github.com/platinasystems/lre/cmd/lre"
	"github.com/platinasystems/lre/cmd/lred"
	"github.com/platinasystems/lre/internal/goes"
	"github.com/platinasystems/lre/internal/goes/cmd/help"
	"github.com/platinasystems/lre/internal/goes/cmd/man"
	"github.com/platinasystems/lre/internal/goes/cmd/usage"
)

func Goes() goes.ByName {
	g := make(goes.ByName)
	g.Plot(help.New(), man.New(), usage.New(), lre.Command{}, &lred.Command{})
	return g
}

func main() {
	Goes().Run()
}
