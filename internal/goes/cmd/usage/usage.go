// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package usage

import (
	"github.com/platinasystems/lre/cmd"
	"github.com/platinasystems/lre/internal/goes"
	"github.com/platinasystems/lre/lang"
)

const Name = "usage"

type Command struct {
	byName goes.ByName
}

func New() *Command { return new(Command) }

func (c *Command) ByName(byName goes.ByName) { c.byName = byName }

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return `
	usage COMMAND...
	COMMAND -usage`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "print a command synopsis"}
}

func (*Command) Kind() cmd.Kind { return cmd.DontFork }

func (c *Command) Main(args ...string) error {
	gs, err := c.byName.Lookup(args...)
	if err != nil {
		return err
	}
	for _, g := range gs {
		g.WriteUsage(goes.Stdout)
	}
	return nil
}
