// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ethernet

import (
	"encoding/binary"
	"errors"
)

// Header for ethernet packets as they appear on the network.
type Header struct {
	Dst  Address
	Src  Address
	Type Type
}

// Packet type from ethernet header.
type Type uint16

const (
	AddressBytes = 6
	HeaderBytes  = 14
	CrcBytes     = 4

	// Largest untagged frame handed to hardware, header included.
	MaxPacketBytes = 1536
	DefaultMtu     = 1500
)

type Address [AddressBytes]byte

var BroadcastAddr = Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

var ErrShortHeader = errors.New("ethernet: short header")

// Group bit of the first octet; set for broadcast and multicast.
const group = 1 << 0

func (a *Address) IsBroadcast() bool { return *a == BroadcastAddr }
func (a *Address) IsGroup() bool     { return a[0]&group != 0 }
func (a *Address) IsUnicast() bool   { return !a.IsGroup() }

func (h *Header) IsBroadcast() bool { return h.Dst.IsBroadcast() }

// Decode header from first HeaderBytes of b.
func (h *Header) Decode(b []byte) error {
	if len(b) < HeaderBytes {
		return ErrShortHeader
	}
	copy(h.Dst[:], b[0:6])
	copy(h.Src[:], b[6:12])
	h.Type = Type(binary.BigEndian.Uint16(b[12:14]))
	return nil
}
