// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"bytes"
	"testing"

	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/devices/ethernet/lre/sim"
)

type tapFrames [][]byte

func (t *tapFrames) Tap(r *vnet.Ref) {
	*t = append(*t, append([]byte(nil), r.Bytes()...))
}

func TestTransmitWhileDown(t *testing.T) {
	d, c, _ := attach(t, quiet_config())
	defer d.Detach()
	c.ClearWrites()
	r := vnet.NewRef(frame(60, 0))
	if err := d.Transmit(r); err != nil {
		t.Error(err)
	}
	if !r.IsFreed() {
		t.Error("frame not freed")
	}
	if w := c.Writes(); len(w) != 0 {
		t.Error("stopped device wrote:", w)
	}
	if counter(d, vnet.OPackets) != 0 {
		t.Error("counted dropped frame")
	}
}

func TestTransmit(t *testing.T) {
	for _, n := range []int{60, 61, 64, 1514} {
		d, c, _ := attach(t, quiet_config())
		var taps tapFrames
		d.Interface().AddTap(&taps)
		d.Init()
		c.ClearWrites()
		b := frame(n, byte(n))
		r := vnet.NewRef(b)
		if err := d.Transmit(r); err != nil {
			t.Error(err)
		}
		if !r.IsFreed() {
			t.Error("frame not freed")
		}
		w := c.Writes()
		words := (n + 7) / 8
		if len(w) != words+1 {
			t.Fatal(n, "wrong writes:", len(w))
		}
		for i := 0; i < words; i++ {
			if w[i].Offset != sim.TxBuffer+uint(8*i) {
				t.Error("wrong word offset:", w[i])
			}
		}
		if last := w[words]; last.Offset != sim.TxLength || last.Value != uint64(n) {
			t.Error("wrong length write:", last)
		}
		sent := c.Sent()
		if len(sent) != 1 || !bytes.Equal(sent[0], b) {
			t.Error(n, "wrong frame sent")
		}
		// zero padded past frame
		pad := c.Peek(sim.TxBuffer, uint(words*8))[n:]
		if !bytes.Equal(pad, make([]byte, len(pad))) {
			t.Error("padding not zero:", pad)
		}
		if len(taps) != 1 || !bytes.Equal(taps[0], b) {
			t.Error("frame not tapped")
		}
		if counter(d, vnet.OPackets) != 1 || counter(d, vnet.OBytes) != uint64(n) {
			t.Error("wrong counters")
		}
		d.Detach()
	}
}

func TestTransmitTooLong(t *testing.T) {
	d, c, _ := attach(t, quiet_config())
	defer d.Detach()
	d.Init()
	c.ClearWrites()
	r := vnet.NewRef(frame(max_tx_bytes+1, 0))
	if err := d.Transmit(r); err != nil {
		t.Error(err)
	}
	if !r.IsFreed() || len(c.Writes()) != 0 {
		t.Error("long frame written or not freed")
	}
	if counter(d, vnet.OErrors) != 1 {
		t.Error("wrong errors:", counter(d, vnet.OErrors))
	}
}

func TestLoopback(t *testing.T) {
	d, _, f := attach(t, DefaultConfig())
	defer d.Detach()
	f.c = make(chan *vnet.Ref, 1)
	d.SetCapabilities(0)
	d.Init()
	// Init restores configured capabilities
	if c, _ := d.Capabilities(); c != CapRxCsum {
		t.Error("wrong capabilities:", c)
	}
	d.SetCapabilities(0)
	if err := d.Loopback(true); err != nil {
		t.Fatal(err)
	}
	b := frame(98, 3)
	d.Transmit(vnet.NewRef(b))
	r := f.wait(t)
	if !bytes.Equal(r.Bytes(), b) {
		t.Error("wrong loopback frame")
	}
	r.Free()
}
