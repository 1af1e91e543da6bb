// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"fmt"
)

// Receive status word; read fresh on every use.
type status uint64

func (s status) done() bool  { return s&rx_status_done != 0 }
func (s status) first() uint { return uint(s & rx_status_first_mask) }
func (s status) next() uint  { return uint(s&rx_status_next_mask) >> 4 }
func (s status) last() uint  { return uint(s&rx_status_last_mask) >> 8 }

// First ready slot.
func (s status) slot() slot { return slot(s.first() % n_rx_slots) }

// Value written to rx status to release the first ready slot.
func (s status) release() uint64 { return uint64(s.first() + 1) }

func (s status) String() string {
	x := fmt.Sprintf("first %d next %d last %d", s.first(), s.next(), s.last())
	if s.done() {
		x += " done"
	}
	return x
}

func (d *Dev) get_status() status { return status(rx_status.get(d)) }

// One of the hardware receive slots.
type slot uint

func (i slot) check() {
	if i >= n_rx_slots {
		panic(fmt.Errorf("lre: slot %d out of range", uint(i)))
	}
}

func (i slot) length_reg() reg {
	i.check()
	return reg(rx_length_offset + 8*uint(i))
}

func (i slot) buffer_offset() uint {
	i.check()
	return rx_buffer_offset + slot_bytes*uint(i)
}

// Slot i frame error in rx bad register.
func (i slot) is_bad(errs uint64) bool {
	i.check()
	return (0x101<<uint(i))&errs != 0
}

func roundup8(n uint) uint { return (n + 7) &^ 7 }
