// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// Package goes maps command names to their implementations and runs them.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/lre/cmd"
	"github.com/platinasystems/lre/lang"
)

const InstallName = "/usr/bin/goes-lre"

var (
	Exit = os.Exit

	// Builtin command output.
	Stdout io.Writer = os.Stdout
)

type ByName map[string]*Goes

// Goes is what the registry knows of a plotted command.
type Goes struct {
	Name    string
	Kind    cmd.Kind
	Usage   string
	Apropos lang.Alt
	Man     lang.Alt

	Main  func(...string) error
	Help  func(...string) string
	Close func() error
}

// Plot commands on map. Each must have String and Main methods; Usage,
// Apropos, Man, Help, Kind, Close and ByName are optional.
func (byName ByName) Plot(cmds ...interface{}) {
	for _, v := range cmds {
		g, err := plot(v)
		if err == nil && byName[g.Name] != nil {
			err = fmt.Errorf("%s: duplicate", g.Name)
		}
		if err != nil {
			panic(err)
		}
		if m, ok := v.(interface{ ByName(ByName) }); ok {
			m.ByName(byName)
		}
		byName[g.Name] = g
	}
}

func plot(v interface{}) (*Goes, error) {
	s, ok := v.(fmt.Stringer)
	if !ok {
		return nil, fmt.Errorf("%T: doesn't have String method", v)
	}
	m, ok := v.(interface{ Main(...string) error })
	if !ok {
		return nil, fmt.Errorf("%s: doesn't have Main method", s)
	}
	g := &Goes{
		Name: s.String(),
		Kind: cmd.WhatKind(v),
		Main: m.Main,
	}
	if m, ok := v.(interface{ Usage() string }); ok {
		g.Usage = m.Usage()
	}
	if m, ok := v.(interface{ Apropos() lang.Alt }); ok {
		g.Apropos = m.Apropos()
	}
	if m, ok := v.(interface{ Man() lang.Alt }); ok {
		g.Man = m.Man()
	}
	if m, ok := v.(interface{ Help(...string) string }); ok {
		g.Help = m.Help
	}
	if m, ok := v.(io.Closer); ok {
		g.Close = m.Close
	}
	return g, nil
}

// Complete returns the sorted names with prefix, less the hidden.
func (byName ByName) Complete(prefix string) (ss []string) {
	for k, g := range byName {
		if strings.HasPrefix(k, prefix) && !g.Kind.IsHidden() {
			ss = append(ss, k)
		}
	}
	sort.Strings(ss)
	return
}

// Lookup the named commands.
func (byName ByName) Lookup(names ...string) ([]*Goes, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("COMMAND: missing")
	}
	gs := make([]*Goes, 0, len(names))
	for _, name := range names {
		g := byName[name]
		if g == nil {
			return nil, fmt.Errorf("%s: not found", name)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

// Main runs a command line, os.Args if none is given. The command is the
// program's base name if that's plotted, e.g. through a link; otherwise,
// it's the first argument. Without one, this runs help.
//
// A command given "-h", "-help" or "--help" is redirected to help; and
// similarly for "-man" and "-usage".
//
// A daemon is closed on SIGTERM and its error is also logged.
func (byName ByName) Main(args ...string) error {
	if len(args) == 0 {
		if args = os.Args; len(args) == 0 {
			return nil
		}
	}
	name, args := byName.command(args)
	g := byName[name]
	if g == nil {
		return fmt.Errorf("%s: command not found", name)
	}
	if g.Kind.IsDaemon() {
		defer g.closeOnTerm()()
	}
	err := g.Main(args...)
	if err == io.EOF {
		err = nil
	}
	if err != nil {
		if g.Kind.IsDaemon() {
			log.Print("daemon", "err", name, ": ", err)
		}
		err = fmt.Errorf("%s: %v", name, err)
	}
	return err
}

func (byName ByName) command(args []string) (string, []string) {
	var name string
	if base := filepath.Base(args[0]); byName[base] != nil {
		name, args = base, args[1:]
	} else if len(args) > 1 {
		name, args = args[1], args[2:]
	} else {
		return "help", nil
	}
	flag, args := flags.New(args,
		[]string{"-h", "-help", "--help"},
		[]string{"-man", "--man"},
		[]string{"-usage", "--usage"})
	switch {
	case flag.ByName["-h"]:
		return "help", append([]string{name}, args...)
	case flag.ByName["-man"]:
		return "man", []string{name}
	case flag.ByName["-usage"]:
		return "usage", []string{name}
	}
	return name, args
}

// closeOnTerm closes g on SIGTERM until the returned func is called.
func (g *Goes) closeOnTerm() func() {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			if g.Close != nil {
				if err := g.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", g.Name, err)
				}
			}
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sig)
		close(done)
	}
}

// Run os.Args and exit non-zero on error.
func (byName ByName) Run() {
	if err := byName.Main(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ProgBase(), err)
		Exit(1)
	}
}
