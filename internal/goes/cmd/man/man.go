// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package man

import (
	"fmt"

	"github.com/platinasystems/lre/cmd"
	"github.com/platinasystems/lre/internal/goes"
	"github.com/platinasystems/lre/lang"
)

const Name = "man"

type Command struct {
	byName goes.ByName
}

func New() *Command { return new(Command) }

func (c *Command) ByName(byName goes.ByName) { c.byName = byName }

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return `
	man COMMAND...
	COMMAND -man`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "print command documentation"}
}

func (*Command) Kind() cmd.Kind { return cmd.DontFork }

func (c *Command) Main(args ...string) error {
	gs, err := c.byName.Lookup(args...)
	if err != nil {
		return err
	}
	for i, g := range gs {
		if i > 0 {
			fmt.Fprintln(goes.Stdout)
		}
		g.WriteMan(goes.Stdout)
	}
	return nil
}
