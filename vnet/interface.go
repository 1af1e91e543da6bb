// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vnet is the upper network layer seen by interface drivers.
package vnet

import (
	"net"
	"sync"

	"github.com/platinasystems/lre/elib"
	"github.com/platinasystems/lre/vnet/ethernet"
)

// Inputer takes ownership of received frames.
type Inputer interface {
	Input(r *Ref)
}

type InputFunc func(r *Ref)

func (f InputFunc) Input(r *Ref) { f(r) }

// Tapper sees frames in both directions; it must not keep the Ref.
type Tapper interface {
	Tap(r *Ref)
}

type Interface struct {
	Counters

	mutex   sync.Mutex
	name    string
	address ethernet.Address
	flags   Flags
	mtu     uint
	addrs   []net.IPNet
	inputer Inputer
	taps    []Tapper
}

func NewInterface(name string, a ethernet.Address, mtu uint, f Flags) *Interface {
	return &Interface{
		name:    name,
		address: a,
		mtu:     mtu,
		flags:   f,
	}
}

func (i *Interface) Name() string   { return i.name }
func (i *Interface) String() string { return i.name }

func (i *Interface) EthernetAddress() ethernet.Address {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.address
}

func (i *Interface) Flags() Flags {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.flags
}

func (i *Interface) SetFlags(f Flags) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.flags = f
}

// Change sets and clears flags returning the new value.
func (i *Interface) Change(set, clear Flags) Flags {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.flags = (i.flags &^ clear) | set
	return i.flags
}

func (i *Interface) Mtu() uint {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.mtu
}

func (i *Interface) SetMtu(mtu uint) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.mtu = mtu
}

func (i *Interface) Addresses() []net.IPNet {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return append([]net.IPNet(nil), i.addrs...)
}

// AddAddress records an address; it returns false if already present.
func (i *Interface) AddAddress(a net.IPNet) bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for _, x := range i.addrs {
		if x.IP.Equal(a.IP) && x.Mask.String() == a.Mask.String() {
			return false
		}
	}
	i.addrs = append(i.addrs, a)
	return true
}

// SetInputer sets where received frames go. Without one they are dropped.
func (i *Interface) SetInputer(in Inputer) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.inputer = in
}

func (i *Interface) AddTap(t Tapper) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.taps = append(i.taps, t)
}

// Tap shows r to every capture tap.
func (i *Interface) Tap(r *Ref) {
	i.mutex.Lock()
	taps := i.taps
	i.mutex.Unlock()
	for _, t := range taps {
		t.Tap(r)
	}
}

// Input is the receive hand off; ownership of r moves to the inputer.
func (i *Interface) Input(r *Ref) {
	r.If = i
	i.Tap(r)
	i.mutex.Lock()
	in := i.inputer
	i.mutex.Unlock()
	if in == nil {
		r.Free()
		return
	}
	in.Input(r)
}

func (i *Interface) Lines() (l elib.Lines) {
	f := i.Flags()
	l.Addf("%s: flags <%s> mtu %d", i.name, f, i.Mtu())
	a := i.EthernetAddress()
	l.Addf("    ether %s", a.String())
	for _, x := range i.Addresses() {
		l.Addf("    inet %s", x.String())
	}
	i.Counters.Foreach(false, func(name string, v uint64) {
		l.Addf("    %-12s %d", name, v)
	})
	return
}

func (i *Interface) Format() string { return i.Lines().Indent(0) }
