// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vnet

import (
	"fmt"
	"sync/atomic"
)

// Size of each frame buffer.
const BufferBytes = 2048

// A Ref is a frame buffer; payload is buffer[offset:offset+length].
// Whoever holds a Ref frees it exactly once.
type Ref struct {
	buffer []byte
	offset uint
	length uint

	// Receiving or transmitting interface.
	If *Interface

	pool  *BufferPool
	freed uint32
}

// NewRef wraps data as a frame; Free recycles nothing.
func NewRef(data []byte) *Ref {
	return &Ref{buffer: data, length: uint(len(data))}
}

func (r *Ref) Buffer() []byte { return r.buffer }
func (r *Ref) Offset() uint   { return r.offset }
func (r *Ref) Len() uint      { return r.length }

// Bytes returns the payload.
func (r *Ref) Bytes() []byte { return r.buffer[r.offset : r.offset+r.length] }

// SetData sets payload start and length within the buffer.
func (r *Ref) SetData(offset, length uint) {
	if offset+length > uint(len(r.buffer)) {
		panic(fmt.Errorf("vnet: data 0x%x+%d beyond buffer %d",
			offset, length, len(r.buffer)))
	}
	r.offset, r.length = offset, length
}

func (r *Ref) IsFreed() bool { return atomic.LoadUint32(&r.freed) != 0 }

// Free returns the buffer to its pool. A second Free panics.
func (r *Ref) Free() {
	if !atomic.CompareAndSwapUint32(&r.freed, 0, 1) {
		panic(fmt.Errorf("vnet: ref %p freed twice", r))
	}
	if p := r.pool; p != nil {
		p.put(r.buffer)
	}
}

func (r *Ref) String() string {
	s := fmt.Sprintf("%d bytes at 0x%x", r.length, r.offset)
	if r.If != nil {
		s += " " + r.If.Name()
	}
	return s
}

// BufferPool is a fixed set of BufferBytes buffers. Get never blocks.
type BufferPool struct {
	free chan []byte
	n    uint
	gets uint64
	miss uint64
}

func NewBufferPool(n uint) *BufferPool {
	p := &BufferPool{n: n, free: make(chan []byte, n)}
	for i := uint(0); i < n; i++ {
		p.free <- make([]byte, BufferBytes)
	}
	return p
}

// Get returns a buffer with an empty payload, or nil when all are in use.
func (p *BufferPool) Get() *Ref {
	select {
	case b := <-p.free:
		atomic.AddUint64(&p.gets, 1)
		return &Ref{buffer: b, pool: p}
	default:
		atomic.AddUint64(&p.miss, 1)
		return nil
	}
}

func (p *BufferPool) put(b []byte) {
	select {
	case p.free <- b:
	default:
		panic(fmt.Errorf("vnet: buffer pool overflow"))
	}
}

// Available buffers.
func (p *BufferPool) Len() uint { return uint(len(p.free)) }
func (p *BufferPool) Cap() uint { return p.n }

func (p *BufferPool) String() string {
	return fmt.Sprintf("%d/%d free, %d gets, %d misses", p.Len(), p.n,
		atomic.LoadUint64(&p.gets), atomic.LoadUint64(&p.miss))
}
