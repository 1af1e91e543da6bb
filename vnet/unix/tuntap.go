// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

// Package unix bridges a driver interface to the Linux network stack
// through a tap device.
package unix

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/ethernet"
)

const DevNetTun = "/dev/net/tun"

// Transmitter sends host frames out the driver.
type Transmitter interface {
	Transmit(r *vnet.Ref) error
}

type Interface struct {
	name string
	rw   io.ReadWriteCloser

	// Frames to Linux.
	tx_packets, tx_errors uint64
	// Frames from Linux.
	rx_packets, rx_errors uint64

	once sync.Once
	done chan struct{}
}

// Open creates or attaches to the named tap interface without packet info
// headers.
func Open(name string) (*Interface, error) {
	fd, err := unix.Open(DevNetTun, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", DevNetTun, err)
	}
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	ifr.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI)
	if err = unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tuntap ioctl TUNSETIFF %s: %v", name, err)
	}
	// non-blocking so Close interrupts a pending Read
	if err = unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return New(ifr.Name(), os.NewFile(uintptr(fd), DevNetTun)), nil
}

// New bridges an already open frame stream.
func New(name string, rw io.ReadWriteCloser) *Interface {
	return &Interface{
		name: name,
		rw:   rw,
		done: make(chan struct{}),
	}
}

func (i *Interface) Name() string   { return i.name }
func (i *Interface) String() string { return i.name }

// Input writes a received frame to Linux and frees it.
func (i *Interface) Input(r *vnet.Ref) {
	defer r.Free()
	if _, err := i.rw.Write(r.Bytes()); err != nil {
		atomic.AddUint64(&i.tx_errors, 1)
		return
	}
	atomic.AddUint64(&i.tx_packets, 1)
}

// Run transmits frames from Linux until the stream closes. Runts are
// counted as errors.
func (i *Interface) Run(tx Transmitter) error {
	for {
		b := make([]byte, vnet.BufferBytes)
		n, err := i.rw.Read(b)
		if err != nil {
			select {
			case <-i.done:
				return nil
			default:
			}
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%s: read: %v", i.name, err)
		}
		var h ethernet.Header
		if h.Decode(b[:n]) != nil {
			atomic.AddUint64(&i.rx_errors, 1)
			continue
		}
		if err = tx.Transmit(vnet.NewRef(b[:n])); err != nil {
			atomic.AddUint64(&i.rx_errors, 1)
			continue
		}
		atomic.AddUint64(&i.rx_packets, 1)
	}
}

func (i *Interface) Close() (err error) {
	i.once.Do(func() {
		close(i.done)
		err = i.rw.Close()
	})
	return
}

func (i *Interface) Stats() string {
	return fmt.Sprintf("%s: to linux %d packets %d errors, from linux %d packets %d errors",
		i.name,
		atomic.LoadUint64(&i.tx_packets), atomic.LoadUint64(&i.tx_errors),
		atomic.LoadUint64(&i.rx_packets), atomic.LoadUint64(&i.rx_errors))
}
