// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// Package uio provides device interrupts through Linux userspace I/O event
// files (/dev/uioN).
package uio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const SysClass = "/sys/class/uio"

var ErrClosed = errors.New("uio: closed")

type Irq struct {
	name  string
	rw    io.ReadWriteCloser
	count uint32
	waits uint64
	done  chan struct{}
	once  sync.Once
}

// Open the event file; it is non-blocking so Close interrupts Wait.
func Open(fn string) (*Irq, error) {
	fd, err := unix.Open(fn, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}
	return New(fn, os.NewFile(uintptr(fd), fn)), nil
}

func New(name string, rw io.ReadWriteCloser) *Irq {
	return &Irq{
		name: name,
		rw:   rw,
		done: make(chan struct{}),
	}
}

func (i *Irq) String() string { return i.name }

func (i *Irq) closed() bool {
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}

// Wait blocks for the next interrupt.
func (i *Irq) Wait() error {
	var b [4]byte
	if _, err := io.ReadFull(i.rw, b[:]); err != nil {
		if i.closed() {
			return ErrClosed
		}
		return fmt.Errorf("%s: read: %v", i.name, err)
	}
	atomic.StoreUint32(&i.count, binary.NativeEndian.Uint32(b[:]))
	atomic.AddUint64(&i.waits, 1)
	return nil
}

// Enable unmasks the interrupt line.
func (i *Irq) Enable() error {
	if i.closed() {
		return ErrClosed
	}
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], 1)
	if _, err := i.rw.Write(b[:]); err != nil {
		return fmt.Errorf("%s: write: %v", i.name, err)
	}
	return nil
}

func (i *Irq) Close() (err error) {
	i.once.Do(func() {
		close(i.done)
		err = i.rw.Close()
	})
	return
}

// Count is the kernel's total interrupt count as of the last Wait.
func (i *Irq) Count() uint32 { return atomic.LoadUint32(&i.count) }

// Waits is the number of interrupts seen.
func (i *Irq) Waits() uint64 { return atomic.LoadUint64(&i.waits) }

// Find the event file whose first memory map starts at base.
func Find(sysclass string, base uint64) (string, error) {
	if len(sysclass) == 0 {
		sysclass = SysClass
	}
	dirs, err := filepath.Glob(filepath.Join(sysclass, "uio*"))
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		b, err := ioutil.ReadFile(filepath.Join(dir, "maps", "map0", "addr"))
		if err != nil {
			continue
		}
		addr, err := strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
		if err != nil || addr != base {
			continue
		}
		return filepath.Join("/dev", filepath.Base(dir)), nil
	}
	return "", fmt.Errorf("uio: no device at 0x%x", base)
}
