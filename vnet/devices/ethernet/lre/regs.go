// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Driver for the lowRISC ethernet controller.
package lre

import (
	"encoding/binary"
	"fmt"

	"github.com/platinasystems/lre/elib/hw"
	"github.com/platinasystems/lre/vnet/ethernet"
)

// Register byte offsets from window base.
const (
	// MAC bytes 2 through 5.
	mac_lo_offset = 0x800
	/* [15:0] MAC bytes 0 and 1
	   [16] cooked
	   [17] loopback
	   [22] receive all packets (promiscuous)
	   [23] receive interrupt enable */
	mac_hi_offset = 0x808
	// Transmit length; write starts transmit.
	tx_length_offset = 0x810
	tx_fcs_offset    = 0x818
	mdio_ctrl_offset = 0x820
	rx_fcs_offset    = 0x828
	/* [3:0] first ready slot
	   [7:4] next slot hardware will fill
	   [11:8] last slot
	   [12] receive done
	   Write first+1 to release first. */
	rx_status_offset = 0x830
	// Bit i or 8+i: slot i frame has an error.
	rx_bad_offset = 0x838
	// [11:0] length of slot i at rx_length_offset + 8*i.
	rx_length_offset = 0x840
	tx_buffer_offset = 0x1000
	rx_buffer_offset = 0x4000

	WindowBytes = 0x8000
)

const (
	mac_hi_address_mask = 0xffff
	mac_hi_cooked       = 1 << 16
	mac_hi_loopback     = 1 << 17
	mac_hi_all_packets  = 1 << 22
	mac_hi_irq_enable   = 1 << 23

	rx_status_first_mask = 0xf
	rx_status_next_mask  = 0xf0
	rx_status_last_mask  = 0xf00
	rx_status_done       = 1 << 12

	rx_length_mask = 0xfff
)

const (
	n_rx_slots            = 8
	slot_bytes            = 2048
	rx_align              = 2
	rx_csum_trailer_bytes = ethernet.CrcBytes

	// Largest receive copied into a frame buffer after alignment.
	max_rx_bytes = slot_bytes - rx_align
	// Largest transmit staged in tx buffer.
	max_tx_bytes = ethernet.MaxPacketBytes
)

// A reg is a 64 bit register at the given window offset.
type reg uint

func (r reg) get(d *Dev) uint64    { return d.win.Get64(uint(r)) }
func (r reg) set(d *Dev, v uint64) { d.win.Set64(uint(r), v) }

var reg_names = map[reg]string{
	mac_lo_offset:    "mac lo",
	mac_hi_offset:    "mac hi",
	tx_length_offset: "tx length",
	tx_fcs_offset:    "tx fcs",
	mdio_ctrl_offset: "mdio ctrl",
	rx_fcs_offset:    "rx fcs",
	rx_status_offset: "rx status",
	rx_bad_offset:    "rx bad",
}

func (r reg) String() string {
	if s, ok := reg_names[r]; ok {
		return s
	}
	o := uint(r)
	switch {
	case o >= rx_length_offset && o < rx_length_offset+8*n_rx_slots:
		return fmt.Sprintf("rx length %d", (o-rx_length_offset)/8)
	case o >= tx_buffer_offset && o < tx_buffer_offset+slot_bytes:
		return fmt.Sprintf("tx buffer +0x%x", o-tx_buffer_offset)
	case o >= rx_buffer_offset && o < rx_buffer_offset+n_rx_slots*slot_bytes:
		return fmt.Sprintf("rx buffer %d +0x%x",
			(o-rx_buffer_offset)/slot_bytes, (o-rx_buffer_offset)%slot_bytes)
	}
	return fmt.Sprintf("0x%x", o)
}

const (
	mac_lo    reg = mac_lo_offset
	mac_hi    reg = mac_hi_offset
	tx_length reg = tx_length_offset
	tx_fcs    reg = tx_fcs_offset
	mdio_ctrl reg = mdio_ctrl_offset
	rx_fcs    reg = rx_fcs_offset
	rx_status reg = rx_status_offset
	rx_bad    reg = rx_bad_offset
	tx_buffer reg = tx_buffer_offset
)

// Hardware address: high register low 16 bits then the low 32 bits, each
// most significant byte first.
func address(hi, lo uint64) (a ethernet.Address) {
	binary.BigEndian.PutUint16(a[0:2], uint16(hi&mac_hi_address_mask))
	binary.BigEndian.PutUint32(a[2:6], uint32(lo))
	return
}

func (d *Dev) get_address() ethernet.Address {
	return address(mac_hi.get(d), mac_lo.get(d))
}

// Read-modify-write of mac hi is shared by interrupt, worker and control
// paths.
func (d *Dev) mac_hi_change(set, clear uint64) (x uint64) {
	d.mac_hi_mutex.Lock()
	defer d.mac_hi_mutex.Unlock()
	x = mac_hi.get(d)
	x = (x &^ clear) | set
	mac_hi.set(d, x)
	return
}

func (d *Dev) check_window(w hw.Window) error {
	if w.Len() < WindowBytes {
		return fmt.Errorf("%s: window 0x%x smaller than 0x%x",
			d.name, w.Len(), WindowBytes)
	}
	return nil
}
