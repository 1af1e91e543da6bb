// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package lre

import (
	"bytes"
	"net/rpc"
	"strings"
	"testing"

	"github.com/platinasystems/atsock"

	"github.com/platinasystems/lre/cmd/lred"
	"github.com/platinasystems/lre/internal/goes"
)

func TestParse(t *testing.T) {
	for _, x := range []struct {
		args []string
		unit uint
		cmd  string
	}{
		{nil, 0, "show"},
		{[]string{"-unit", "2"}, 2, "show"},
		{[]string{"promisc", "on"}, 0, "promisc on"},
		{[]string{"-unit=1", "mtu", "1400"}, 1, "mtu 1400"},
	} {
		unit, args, err := parse(x.args)
		if err != nil {
			t.Fatal(x.args, err)
		}
		if unit != x.unit || strings.Join(args, " ") != x.cmd {
			t.Error(x.args, "parsed as", unit, args)
		}
	}
	if _, _, err := parse([]string{"-unit", "eth0"}); err == nil {
		t.Error("bad unit accepted")
	}
}

type echo struct{}

func (echo) Control(a []string, s *string) error {
	*s = strings.Join(a, ",")
	return nil
}

func TestCall(t *testing.T) {
	const unit = 97
	srv, err := atsock.NewRpcServer(lred.Socket(unit))
	if err != nil {
		t.Skip(err)
	}
	defer srv.Close()
	if err = rpc.RegisterName("Info", echo{}); err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	goes.Stdout = &b
	if err = (Command{}).Main("-unit", "97", "loopback", "on"); err != nil {
		t.Fatal(err)
	}
	if s := b.String(); s != "loopback,on\n" {
		t.Errorf("wrong output: %q", s)
	}
}
