// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vnet

import (
	"sync/atomic"
)

type Counter uint64

func (c *Counter) Add(n uint64) { atomic.AddUint64((*uint64)(c), n) }
func (c *Counter) Inc()         { c.Add(1) }
func (c *Counter) Get() uint64  { return atomic.LoadUint64((*uint64)(c)) }
func (c *Counter) Clear()       { atomic.StoreUint64((*uint64)(c), 0) }

type CounterKind uint16

const (
	IPackets CounterKind = iota
	IBytes
	IErrors
	IQDrops
	OPackets
	OBytes
	OErrors
	nCounters
)

var counterNames = [...]string{
	IPackets: "rx packets",
	IBytes:   "rx bytes",
	IErrors:  "rx errors",
	IQDrops:  "rx drops",
	OPackets: "tx packets",
	OBytes:   "tx bytes",
	OErrors:  "tx errors",
}

func (k CounterKind) String() string { return counterNames[k] }

// Interface statistics updated concurrently by the data path.
type Counters [nCounters]Counter

func (c *Counters) Get(k CounterKind) uint64 { return c[k].Get() }
func (c *Counters) Add(k CounterKind, n uint64) {
	c[k].Add(n)
}
func (c *Counters) Inc(k CounterKind) { c[k].Inc() }

func (c *Counters) Clear() {
	for i := range c {
		c[i].Clear()
	}
}

// Foreach calls f with every counter name and value; zero values are
// skipped unless all is set.
func (c *Counters) Foreach(all bool, f func(name string, v uint64)) {
	for i := range c {
		if v := c[i].Get(); v != 0 || all {
			f(counterNames[i], v)
		}
	}
}
