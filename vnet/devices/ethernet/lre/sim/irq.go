// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("sim: irq closed")

// Irq behaves like a Linux UIO line: once delivered it stays masked until
// Enable; an interrupt raised while masked is delivered on Enable.
type Irq struct {
	mutex   sync.Mutex
	c       chan struct{}
	done    chan struct{}
	once    sync.Once
	masked  bool
	pending bool

	raised, delivered, enables uint
}

func NewIrq() *Irq {
	return &Irq{
		c:    make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (i *Irq) raise() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.raised++
	if i.masked {
		i.pending = true
		return
	}
	i.deliver()
}

func (i *Irq) deliver() {
	i.masked = true
	select {
	case i.c <- struct{}{}:
		i.delivered++
	default:
	}
}

func (i *Irq) Wait() error {
	select {
	case <-i.c:
		return nil
	case <-i.done:
		return ErrClosed
	}
}

func (i *Irq) Enable() error {
	if i.IsClosed() {
		return ErrClosed
	}
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.enables++
	i.masked = false
	if i.pending {
		i.pending = false
		i.deliver()
	}
	return nil
}

func (i *Irq) Close() error {
	i.once.Do(func() { close(i.done) })
	return nil
}

func (i *Irq) IsClosed() bool {
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}

// Counts returns interrupts raised, delivered and enables.
func (i *Irq) Counts() (raised, delivered, enables uint) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.raised, i.delivered, i.enables
}
