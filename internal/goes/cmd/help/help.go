// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// Package help prints the apropos of every command or a command's help.
package help

import (
	"fmt"

	"github.com/platinasystems/lre/cmd"
	"github.com/platinasystems/lre/internal/goes"
	"github.com/platinasystems/lre/lang"
)

const Name = "help"

type Command struct {
	byName goes.ByName
}

func New() *Command { return new(Command) }

func (c *Command) ByName(byName goes.ByName) { c.byName = byName }

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return `
	help [COMMAND [ARGS]...]
	COMMAND -help [ARGS]...`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "print command guidance"}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print the COMMAND's help, if it has any; otherwise, its usage.

	Without COMMAND, print the apropos of each.`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.DontFork }

func (c *Command) Main(args ...string) error {
	if len(args) == 0 {
		for _, k := range c.byName.Complete("") {
			c.byName[k].WriteApropos(goes.Stdout)
		}
		return nil
	}
	gs, err := c.byName.Lookup(args[0])
	if err != nil {
		return err
	}
	if g := gs[0]; g.Help != nil {
		fmt.Fprintln(goes.Stdout, g.Help(args[1:]...))
	} else {
		g.WriteUsage(goes.Stdout)
	}
	return nil
}
