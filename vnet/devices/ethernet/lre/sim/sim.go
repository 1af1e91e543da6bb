// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim models the lowRISC ethernet controller registers: an 8 slot
// receive ring, the transmit buffer and the receive interrupt.
package sim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/platinasystems/lre/elib/hw"
	"github.com/platinasystems/lre/vnet/ethernet"
)

// Controller register map.
const (
	MacLo      = 0x800
	MacHi      = 0x808
	TxLength   = 0x810
	TxFcs      = 0x818
	MdioCtrl   = 0x820
	RxFcs      = 0x828
	RxStatus   = 0x830
	RxBad      = 0x838
	RxLength   = 0x840
	TxBuffer   = 0x1000
	RxBuffer   = 0x4000
	SlotBytes  = 2048
	Slots      = 8
	WindowSize = 0x8000

	MacHiLoopback   = 1 << 17
	MacHiAllPackets = 1 << 22
	MacHiIrqEnable  = 1 << 23

	RxStatusDone = 1 << 12
	LengthMask   = 0xfff
	TrailerBytes = 4
)

type Write struct {
	Offset uint
	Value  uint64
}

func (w Write) String() string { return fmt.Sprintf("0x%04x: 0x%x", w.Offset, w.Value) }

type Controller struct {
	mutex sync.Mutex
	mem   [WindowSize / 8]uint64

	// Receive ring: count ready slots starting at head.
	head, count uint

	// Received lengths include checksum trailer.
	Trailer bool

	writes   []Write
	released []uint
	sent     [][]byte
	overruns uint
	closed   bool

	irq *Irq
}

func New(a ethernet.Address) *Controller {
	c := &Controller{irq: NewIrq()}
	c.mem[MacLo/8] = uint64(binary.BigEndian.Uint32(a[2:6]))
	c.mem[MacHi/8] = uint64(binary.BigEndian.Uint16(a[0:2]))
	return c
}

// Irq is the controller interrupt line.
func (c *Controller) Irq() *Irq { return c.irq }

func (c *Controller) Len() uint { return WindowSize }

func (c *Controller) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	return nil
}

func (c *Controller) IsClosed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.closed
}

func (c *Controller) check(offset uint) {
	hw.CheckOffset("sim", offset, WindowSize)
	if c.closed {
		panic(fmt.Errorf("sim: access 0x%x after close", offset))
	}
}

func (c *Controller) status() (s uint64) {
	if c.count == 0 {
		return uint64(c.head) | uint64(c.head)<<4 | uint64(c.head)<<8
	}
	next := (c.head + c.count) % Slots
	last := (c.head + c.count - 1) % Slots
	return uint64(c.head) | uint64(next)<<4 | uint64(last)<<8 | RxStatusDone
}

func (c *Controller) Get64(offset uint) uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.check(offset)
	if offset == RxStatus {
		return c.status()
	}
	return c.mem[offset/8]
}

func (c *Controller) Set64(offset uint, v uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.check(offset)
	c.writes = append(c.writes, Write{offset, v})
	switch offset {
	case RxStatus:
		if c.count > 0 && v == uint64(c.head+1) {
			c.release()
		}
	case TxLength:
		c.mem[offset/8] = v
		c.transmit(uint(v & LengthMask))
	case MacHi:
		was := c.mem[offset/8]
		c.mem[offset/8] = v
		if was&MacHiIrqEnable == 0 && v&MacHiIrqEnable != 0 && c.count > 0 {
			c.irq.raise()
		}
	default:
		c.mem[offset/8] = v
	}
}

func (c *Controller) release() {
	i := c.head
	c.mem[RxBad/8] &^= 0x101 << i
	c.released = append(c.released, i)
	c.head = (c.head + 1) % Slots
	c.count--
}

func (c *Controller) transmit(n uint) {
	b := c.bytes(TxBuffer, n)
	c.sent = append(c.sent, b)
	if c.mem[MacHi/8]&MacHiLoopback != 0 {
		c.receive(b, false)
	}
}

// bytes copies n bytes of window starting at offset.
func (c *Controller) bytes(offset, n uint) []byte {
	b := make([]byte, (n+7)&^7)
	for i := uint(0); i < uint(len(b)); i += 8 {
		binary.LittleEndian.PutUint64(b[i:], c.mem[(offset+i)/8])
	}
	return b[:n]
}

func (c *Controller) load(offset uint, b []byte) {
	var w [8]byte
	for i := uint(0); i < uint(len(b)); i += 8 {
		w = [8]byte{}
		copy(w[:], b[i:])
		c.mem[(offset+i)/8] = binary.LittleEndian.Uint64(w[:])
	}
}

func (c *Controller) receive(b []byte, bad bool) (slot uint, ok bool) {
	if c.count == Slots {
		c.overruns++
		return
	}
	if len(b) > SlotBytes {
		b = b[:SlotBytes]
	}
	slot = (c.head + c.count) % Slots
	c.load(RxBuffer+slot*SlotBytes, b)
	n := uint64(len(b))
	if c.Trailer {
		n += TrailerBytes
	}
	c.mem[(RxLength+8*slot)/8] = n & LengthMask
	if bad {
		c.mem[RxBad/8] |= 1 << slot
	} else {
		c.mem[RxBad/8] &^= 0x101 << slot
	}
	c.count++
	if c.mem[MacHi/8]&MacHiIrqEnable != 0 {
		c.irq.raise()
	}
	return slot, true
}

// Receive a frame into the next free slot; false when the ring is full.
func (c *Controller) Receive(b []byte) (slot uint, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.receive(b, false)
}

// ReceiveBad receives a frame flagged with a hardware error.
func (c *Controller) ReceiveBad(b []byte) (slot uint, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.receive(b, true)
}

// SetLength overrides the raw length register of a slot.
func (c *Controller) SetLength(slot uint, raw uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.mem[(RxLength+8*(slot%Slots))/8] = raw
}

// SetBad sets raw error bits.
func (c *Controller) SetBad(bits uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.mem[RxBad/8] |= bits
}

// SetHead moves an empty ring so the next frame lands in the given slot.
func (c *Controller) SetHead(slot uint) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.count != 0 {
		return fmt.Errorf("sim: set head with %d slots ready", c.count)
	}
	c.head = slot % Slots
	return nil
}

// Pending number of ready slots.
func (c *Controller) Pending() uint {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.count
}

func (c *Controller) Overruns() uint {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.overruns
}

// Released slots in order.
func (c *Controller) Released() []uint {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]uint(nil), c.released...)
}

// Sent frames in order.
func (c *Controller) Sent() [][]byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([][]byte(nil), c.sent...)
}

// Writes in order.
func (c *Controller) Writes() []Write {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]Write(nil), c.writes...)
}

// ClearWrites empties the write log.
func (c *Controller) ClearWrites() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.writes = c.writes[:0]
}

// Peek returns raw register or buffer memory.
func (c *Controller) Peek(offset, n uint) []byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.bytes(offset, n)
}
