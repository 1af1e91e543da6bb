// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"encoding/binary"

	"github.com/platinasystems/lre/vnet"
)

// Transmit copies the frame into the tx buffer and starts it. The frame is
// freed on every path; while stopped it is dropped without error.
func (d *Dev) Transmit(r *vnet.Ref) error {
	defer r.Free()
	if !d.enter() {
		return ErrDetached
	}
	defer d.leave()
	if !d.IsRunning() {
		return nil
	}
	b := r.Bytes()
	n := uint(len(b))
	if n > max_tx_bytes {
		d.vi.Inc(vnet.OErrors)
		d.log.Print("transmit ", n, " bytes too long")
		return nil
	}
	d.tx_copy(b)
	tx_length.set(d, uint64(n))

	r.If = d.vi
	d.vi.Tap(r)
	d.vi.Inc(vnet.OPackets)
	d.vi.Add(vnet.OBytes, uint64(n))
	return nil
}

// tx_copy writes b to the tx buffer, 8 bytes at a time, zero padding the
// last word.
func (d *Dev) tx_copy(b []byte) {
	var w [8]byte
	n := roundup8(uint(len(b)))
	for i := uint(0); i < n; i += 8 {
		var x uint64
		if i+8 <= uint(len(b)) {
			x = binary.LittleEndian.Uint64(b[i:])
		} else {
			w = [8]byte{}
			copy(w[:], b[i:])
			x = binary.LittleEndian.Uint64(w[:])
		}
		(tx_buffer + reg(i)).set(d, x)
	}
}
