// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// Package lre sends admin commands to a running lred.
package lre

import (
	"fmt"
	"io"
	"strconv"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/lre/cmd/lred"
	"github.com/platinasystems/lre/internal/goes"
	"github.com/platinasystems/lre/lang"
)

const Name = "lre"

type Command struct{}

func (Command) String() string { return Name }

func (Command) Usage() string {
	return Name + " [-unit N] [COMMAND [ARG]...]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "lowRISC ethernet admin",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Run COMMAND on the lred serving unit N (0); "show" by default.

COMMANDS
	show
	up | down
	promisc on | off
	flag NAME on | off
	loopback on | off
	rxcsum on | off
	address A.B.C.D/N
	mtu N
	media`,
	}
}

func (Command) Main(args ...string) error {
	unit, args, err := parse(args)
	if err != nil {
		return err
	}
	cl, err := atsock.NewRpcClient(lred.Socket(unit))
	if err != nil {
		return err
	}
	defer cl.Close()
	var s string
	if err = cl.Call("Info.Control", args, &s); err == nil {
		show(goes.Stdout, s)
	}
	return err
}

func parse(args []string) (uint, []string, error) {
	parm, args := parms.New(args, "-unit")
	if len(args) == 0 {
		args = []string{"show"}
	}
	if s := parm.ByName["-unit"]; len(s) > 0 {
		u, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return 0, nil, fmt.Errorf("-unit: %v", err)
		}
		return uint(u), args, nil
	}
	return 0, args, nil
}

func show(w io.Writer, s string) {
	if len(s) == 0 {
		return
	}
	io.WriteString(w, s)
	if s[len(s)-1] != '\n' {
		io.WriteString(w, "\n")
	}
}
