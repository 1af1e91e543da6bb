// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Memory mapped register read/write
package hw

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// A Window is a range of device registers addressed by byte offset.
// Accesses are 64 bits wide, ordered and never cached.
type Window interface {
	Get64(offset uint) uint64
	Set64(offset uint, v uint64)
	Len() uint
	Close() error
}

// Mem is a Window on a mapped byte range; either device memory (Map) or
// anonymous memory (NewMem).
type Mem struct {
	name   string
	b      []byte
	unmap  func([]byte) error
	closed uint32
}

// CheckOffset panics unless [offset, offset+8) is an aligned word within a
// window of size n.
func CheckOffset(name string, offset, n uint) {
	if offset&7 != 0 {
		panic(fmt.Errorf("%s: unaligned offset 0x%x", name, offset))
	}
	if offset+8 > n {
		panic(fmt.Errorf("%s: offset 0x%x beyond window size 0x%x",
			name, offset, n))
	}
}

func (m *Mem) String() string { return m.name }
func (m *Mem) Len() uint      { return uint(len(m.b)) }

func (m *Mem) addr(offset uint) *uint64 {
	CheckOffset(m.name, offset, m.Len())
	return (*uint64)(unsafe.Pointer(&m.b[offset]))
}

func (m *Mem) Get64(offset uint) uint64    { return atomic.LoadUint64(m.addr(offset)) }
func (m *Mem) Set64(offset uint, v uint64) { atomic.StoreUint64(m.addr(offset), v) }

// Bytes returns the mapped range; it is only valid until Close.
func (m *Mem) Bytes() []byte { return m.b }

func (m *Mem) Close() error {
	if !atomic.CompareAndSwapUint32(&m.closed, 0, 1) {
		return nil
	}
	b := m.b
	m.b = nil
	if m.unmap == nil {
		return nil
	}
	if err := m.unmap(b); err != nil {
		return fmt.Errorf("%s: unmap: %v", m.name, err)
	}
	return nil
}

// Trace wraps a window so that every access is logged.
func Trace(w Window, logf func(format string, args ...interface{})) Window {
	return &trace{w, logf}
}

type trace struct {
	Window
	logf func(format string, args ...interface{})
}

func (t *trace) Get64(offset uint) (v uint64) {
	v = t.Window.Get64(offset)
	t.logf("get 0x%04x: 0x%x", offset, v)
	return
}

func (t *trace) Set64(offset uint, v uint64) {
	t.logf("set 0x%04x: 0x%x", offset, v)
	t.Window.Set64(offset, v)
}
