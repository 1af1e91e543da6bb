// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/platinasystems/lre/internal/goes"
)

func TestCommands(t *testing.T) {
	g := Goes()
	for _, name := range []string{"help", "lre", "lred", "man", "usage"} {
		if g[name] == nil {
			t.Error(name, "not plotted")
		}
	}
	if !g["lred"].Kind.IsDaemon() {
		t.Error("lred isn't a daemon")
	}
	var b bytes.Buffer
	goes.Stdout = &b
	if err := g.Main("goes-lre", "lred", "-usage"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(b.String(), "usage:\tlred [-poll]") {
		t.Errorf("wrong usage: %q", b.String())
	}
}
