// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hw

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map a size byte register window of the named device file (e.g.
// /dev/mem, /dev/uio0) starting at offset.
func Map(fn string, offset int64, size uint) (*Mem, error) {
	f, err := os.OpenFile(fn, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := unix.Mmap(int(f.Fd()), offset, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%s: mmap 0x%x@0x%x: %v", fn, size, offset, err)
	}
	return &Mem{
		name:  fmt.Sprintf("%s@0x%x", fn, offset),
		b:     b,
		unmap: unix.Munmap,
	}, nil
}

// NewMem returns a page aligned anonymous window of the given size.
func NewMem(name string, size uint) (*Mem, error) {
	b, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%s: mmap anon 0x%x: %v", name, size, err)
	}
	return &Mem{name: name, b: b, unmap: unix.Munmap}, nil
}
