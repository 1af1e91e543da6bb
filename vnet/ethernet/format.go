// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ethernet

import (
	"fmt"
	"net"
)

func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Parse colon, dash or dot separated address.
func (a *Address) Parse(s string) error {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return err
	}
	if len(hw) != AddressBytes {
		return fmt.Errorf("%s: not an ethernet address", s)
	}
	copy(a[:], hw)
	return nil
}

const (
	TYPE_IP4  Type = 0x0800
	TYPE_ARP  Type = 0x0806
	TYPE_VLAN Type = 0x8100
	TYPE_IP6  Type = 0x86dd
)

var typeNames = map[Type]string{
	TYPE_IP4:  "IP4",
	TYPE_ARP:  "ARP",
	TYPE_VLAN: "VLAN",
	TYPE_IP6:  "IP6",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("0x%04x", uint16(t))
}

func (h *Header) String() (s string) {
	return fmt.Sprintf("%s: %s -> %s", h.Type.String(), h.Src.String(), h.Dst.String())
}
