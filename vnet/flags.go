// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vnet

import (
	"github.com/platinasystems/lre/elib"
)

// Interface flags.
type Flags uint32

const (
	up_bit, Up Flags = iota, 1 << iota
	broadcast_bit, Broadcast
	debug_bit, Debug
	loopback_bit, Loopback
	pointopoint_bit, PointToPoint
	running_bit, Running
	noarp_bit, NoArp
	promisc_bit, Promisc
	allmulti_bit, AllMulti
	simplex_bit, Simplex
	multicast_bit, Multicast
)

var flag_names = [...]string{
	up_bit:          "admin-up",
	broadcast_bit:   "broadcast",
	debug_bit:       "debug",
	loopback_bit:    "loopback",
	pointopoint_bit: "point-to-point",
	running_bit:     "running",
	noarp_bit:       "no-arp",
	promisc_bit:     "promiscuous",
	allmulti_bit:    "all-multicast",
	simplex_bit:     "simplex",
	multicast_bit:   "multicast",
}

func (f Flags) String() string { return elib.FlagStringer(flag_names[:], uint64(f)) }

func (f Flags) IsUp() bool      { return f&Up != 0 }
func (f Flags) IsPromisc() bool { return f&Promisc != 0 }

// Flag by name for admin commands.
func FlagByName(s string) (f Flags, ok bool) {
	for i, n := range flag_names {
		if n == s {
			return 1 << uint(i), true
		}
	}
	return
}
