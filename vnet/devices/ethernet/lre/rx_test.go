// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/devices/ethernet/lre/sim"
)

func TestStatus(t *testing.T) {
	for _, x := range []struct {
		s     status
		done  bool
		slot  slot
		write uint64
	}{
		{0x1000, true, 0, 1},
		{0x1763, true, 3, 4},
		{0x0777, false, 7, 8},
		{0x100f, true, 7, 16},
	} {
		if x.s.done() != x.done || x.s.slot() != x.slot || x.s.release() != x.write {
			t.Errorf("0x%x: done %v slot %d release %d", uint64(x.s),
				x.s.done(), x.s.slot(), x.s.release())
		}
	}
}

func TestSlotOffsets(t *testing.T) {
	if o := slot(3).buffer_offset(); o != 0x5800 {
		t.Errorf("buffer offset 0x%x", o)
	}
	if r := slot(7).length_reg(); r != 0x878 {
		t.Errorf("length reg 0x%x", uint(r))
	}
	if !slot(2).is_bad(1<<2) || !slot(2).is_bad(1<<10) || slot(2).is_bad(1<<3) {
		t.Error("wrong bad bits")
	}
	defer func() {
		if recover() == nil {
			t.Error("slot 8 did not panic")
		}
	}()
	slot(8).buffer_offset()
}

func TestReleaseOrder(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	c.SetHead(6)
	for i := 0; i < 4; i++ {
		c.Receive(frame(60, byte(i)))
	}
	d.rx_drain()
	if got := c.Released(); !equal_uints(got, []uint{6, 7, 0, 1}) {
		t.Error("wrong release order:", got)
	}
	refs := f.get()
	if len(refs) != 4 {
		t.Fatal("wrong frames:", len(refs))
	}
	for i, r := range refs {
		if r.Bytes()[0] != byte(i) {
			t.Error("frame out of order:", i, r.Bytes()[0])
		}
		r.Free()
	}
	if c.Pending() != 0 {
		t.Error("slots left:", c.Pending())
	}
}

func TestOversizeReject(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	slot, _ := c.Receive(frame(60, 0))
	c.SetLength(slot, max_rx_bytes+1)
	n := d.Pool().Len()
	d.rx_drain()
	if len(f.get()) != 0 {
		t.Error("oversize frame delivered")
	}
	if got := c.Released(); !equal_uints(got, []uint{slot}) {
		t.Error("wrong released:", got)
	}
	if counter(d, vnet.IErrors) != 1 || counter(d, vnet.IPackets) != 0 {
		t.Error("wrong counters")
	}
	if d.Pool().Len() != n {
		t.Error("buffer allocated for rejected frame")
	}
}

func TestLargestFrame(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	b := frame(max_rx_bytes, 1)
	c.Receive(b)
	d.rx_drain()
	refs := f.get()
	if len(refs) != 1 {
		t.Fatal("largest frame not delivered")
	}
	if !bytes.Equal(refs[0].Bytes(), b) {
		t.Error("wrong data")
	}
	refs[0].Free()
}

func TestErrorBitReject(t *testing.T) {
	for _, bit := range []uint{0, 8} {
		d, c, f := attach(t, quiet_config())
		c.SetHead(5)
		c.Receive(frame(60, 0))
		c.SetBad(1 << (5 + bit))
		d.rx_drain()
		if len(f.get()) != 0 {
			t.Error("bad frame delivered, bit", 5+bit)
		}
		if counter(d, vnet.IErrors) != 1 {
			t.Error("wrong errors:", counter(d, vnet.IErrors))
		}
		if got := c.Released(); !equal_uints(got, []uint{5}) {
			t.Error("wrong released:", got)
		}
		d.Detach()
	}
}

func TestRxCsum(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	c.Trailer = true
	d.set_capability(CapRxCsum)
	c.Receive(frame(60, 0))
	d.rx_drain()
	refs := f.get()
	if len(refs) != 1 || refs[0].Len() != 60 {
		t.Fatal("wrong frame with checksum trailer")
	}
	refs[0].Free()
	if counter(d, vnet.IBytes) != 60 {
		t.Error("wrong bytes:", counter(d, vnet.IBytes))
	}

	// shorter than trailer
	slot, _ := c.Receive(frame(1, 0))
	c.SetLength(slot, 3)
	d.rx_drain()
	if len(f.get()) != 1 || counter(d, vnet.IErrors) != 1 {
		t.Error("short frame not rejected")
	}
}

func TestIdempotentDrain(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	c.ClearWrites()
	n := d.Pool().Len()
	d.rx_drain()
	d.rx_drain()
	if w := c.Writes(); len(w) != 0 {
		t.Error("empty drain wrote:", w)
	}
	if len(f.get()) != 0 || d.Pool().Len() != n {
		t.Error("empty drain delivered or allocated")
	}
}

func TestEndToEnd(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	c.SetHead(3)
	b := frame(60, 0x10)
	c.Receive(b)
	// bytes 60 through 63 of the slot follow the frame
	var w [8]byte
	copy(w[:4], b[56:60])
	copy(w[4:], []byte{0xee, 0xee, 0xee, 0xee})
	c.Set64(sim.RxBuffer+3*sim.SlotBytes+56, binary.LittleEndian.Uint64(w[:]))

	d.rx_drain()
	refs := f.get()
	if len(refs) != 1 {
		t.Fatal("wrong frames:", len(refs))
	}
	r := refs[0]
	defer r.Free()
	if r.Len() != 60 || r.Offset() != rx_align {
		t.Error("wrong frame:", r)
	}
	if r.If != d.Interface() {
		t.Error("frame not stamped with interface")
	}
	if !bytes.Equal(r.Bytes(), b) {
		t.Error("wrong data")
	}
	if !bytes.Equal(r.Buffer()[rx_align:rx_align+64], c.Peek(sim.RxBuffer+3*sim.SlotBytes, 64)) {
		t.Error("rounded copy not 64 bytes")
	}
	if got := c.Released(); !equal_uints(got, []uint{3}) {
		t.Error("wrong released:", got)
	}
	if counter(d, vnet.IPackets) != 1 {
		t.Error("wrong packets:", counter(d, vnet.IPackets))
	}
}

func TestEndToEndBad(t *testing.T) {
	d, c, f := attach(t, quiet_config())
	defer d.Detach()
	c.SetHead(1)
	c.Receive(frame(60, 0))
	c.ReceiveBad(frame(60, 1))
	d.rx_drain()
	if refs := f.get(); len(refs) != 1 || refs[0].Bytes()[0] != 0 {
		t.Error("wrong frames delivered")
	}
	if got := c.Released(); !equal_uints(got, []uint{1, 2}) {
		t.Error("wrong released:", got)
	}
	if counter(d, vnet.IErrors) != 1 || counter(d, vnet.IPackets) != 1 {
		t.Error("wrong counters")
	}
}

func TestNoBuffer(t *testing.T) {
	cfg := quiet_config()
	cfg.Buffers = 1
	d, c, f := attach(t, cfg)
	defer d.Detach()
	c.Receive(frame(60, 0))
	c.Receive(frame(60, 1))
	d.rx_drain()
	if counter(d, vnet.IQDrops) != 1 {
		t.Error("wrong drops:", counter(d, vnet.IQDrops))
	}
	if c.Pending() != 1 {
		t.Error("slot without buffer released")
	}
	refs := f.get()
	if len(refs) != 1 {
		t.Fatal("wrong frames:", len(refs))
	}
	refs[0].Free()

	// retried next cycle
	d.rx_drain()
	if refs = f.get(); len(refs) != 2 || refs[1].Bytes()[0] != 1 {
		t.Error("slot not retried")
	}
	if c.Pending() != 0 {
		t.Error("slots left:", c.Pending())
	}
}

func TestReleaseOnNoBuffer(t *testing.T) {
	cfg := quiet_config()
	cfg.Buffers = 1
	cfg.ReleaseOnNoBuffer = true
	d, c, f := attach(t, cfg)
	defer d.Detach()
	c.Receive(frame(60, 0))
	c.Receive(frame(60, 1))
	c.Receive(frame(60, 2))
	d.rx_drain()
	if counter(d, vnet.IQDrops) != 2 || c.Pending() != 0 {
		t.Error("wrong drops:", counter(d, vnet.IQDrops), c.Pending())
	}
	if len(f.get()) != 1 {
		t.Error("wrong frames")
	}
}

func TestInterruptTopHalf(t *testing.T) {
	d, c, _ := attach(t, DefaultConfig())
	defer d.Detach()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if c.Get64(sim.MacHi)&sim.MacHiIrqEnable == 0 {
		t.Fatal("init did not enable interrupt")
	}
	_, _, enables := c.Irq().Counts()
	c.ClearWrites()
	d.Interrupt()
	w := c.Writes()
	if len(w) == 0 || w[0].Offset != sim.MacHi || w[0].Value&sim.MacHiIrqEnable != 0 {
		t.Error("top half did not mask interrupt:", w)
	}
	// worker drains then unmasks
	eventually(t, "irq enable", func() bool {
		_, _, n := c.Irq().Counts()
		return n > enables
	})
	if c.Get64(sim.MacHi)&sim.MacHiIrqEnable == 0 {
		t.Error("worker did not re-enable interrupt")
	}
	for _, x := range c.Writes() {
		if x.Offset == sim.RxStatus {
			t.Error("empty ring released slot:", x)
		}
	}
}

func TestInterruptMode(t *testing.T) {
	d, c, f := attach(t, DefaultConfig())
	defer d.Detach()
	f.c = make(chan *vnet.Ref, 8)
	d.Init()
	for i := 0; i < 3; i++ {
		b := frame(100, byte(i))
		c.Receive(b)
		r := f.wait(t)
		if !bytes.Equal(r.Bytes(), b[:96]) {
			t.Error("wrong frame", i)
		}
		r.Free()
	}
	if counter(d, vnet.IPackets) != 3 {
		t.Error("wrong packets:", counter(d, vnet.IPackets))
	}
}

func TestPolledMode(t *testing.T) {
	cfg := quiet_config()
	cfg.PollInterval = time.Millisecond
	d, c, f := attach(t, cfg)
	defer d.Detach()
	f.c = make(chan *vnet.Ref, 8)
	d.Init()
	if c.Get64(sim.MacHi)&sim.MacHiIrqEnable != 0 {
		t.Error("polled init enabled interrupt")
	}
	c.Receive(frame(60, 0))
	f.wait(t).Free()
	if r, _, _ := c.Irq().Counts(); r != 0 {
		t.Error("polled mode raised interrupt")
	}
}
