// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"encoding/binary"

	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/pcap"
)

// rx_drain hands every ready slot to the interface in hardware order then
// re-enables the receive interrupt.
func (d *Dev) rx_drain() {
	defer d.rx_done()
	for s := d.get_status(); s.done(); s = d.get_status() {
		i := s.slot()
		n := uint(i.length_reg().get(d) & rx_length_mask)
		if d.capability()&CapRxCsum != 0 {
			if n < rx_csum_trailer_bytes {
				d.rx_discard(s, n)
				continue
			}
			n -= rx_csum_trailer_bytes
		}
		errs := rx_bad.get(d)
		if n > max_rx_bytes || i.is_bad(errs) {
			d.rx_discard(s, n)
			continue
		}

		r := d.pool.Get()
		if r == nil {
			d.vi.Inc(vnet.IQDrops)
			d.log.Print("no memory for receive buffer")
			if !d.ReleaseOnNoBuffer {
				// slot stays ready for next drain
				return
			}
			rx_status.set(d, s.release())
			continue
		}

		r.SetData(rx_align, n)
		d.rx_copy(i, r.Buffer()[rx_align:], n)
		rx_status.set(d, s.release())

		if d.Debug {
			d.log.debugf("rx slot %d: %s", uint(i), pcap.Summary(r.Bytes()))
		}
		d.vi.Inc(vnet.IPackets)
		d.vi.Add(vnet.IBytes, uint64(n))
		d.vi.Input(r)
	}
}

func (d *Dev) rx_discard(s status, n uint) {
	d.log.Print("receive discarded: slot ", uint(s.slot()), " length ", n)
	d.vi.Inc(vnet.IErrors)
	rx_status.set(d, s.release())
}

// rx_copy reads ceil(n/8) words of slot i into b.
func (d *Dev) rx_copy(i slot, b []byte, n uint) {
	var w [8]byte
	o := i.buffer_offset()
	for k := uint(0); k < roundup8(n); k += 8 {
		x := reg(o + k).get(d)
		if k+8 <= uint(len(b)) {
			binary.LittleEndian.PutUint64(b[k:], x)
		} else {
			binary.LittleEndian.PutUint64(w[:], x)
			copy(b[k:], w[:])
		}
	}
}

// rx_done re-enables the receive interrupt unless polled or detached.
func (d *Dev) rx_done() {
	if d.Mode == ModePolled || d.IsDetached() {
		return
	}
	d.mac_hi_change(mac_hi_irq_enable, 0)
	if err := d.irq.Enable(); err != nil {
		d.log.Print("irq enable: ", err)
	}
}
