// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcap writes frames seen by an interface tap to a pcap file for
// import into wireshark.
package pcap

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/platinasystems/lre/vnet"
)

const SnapLen = 65536

type Tap struct {
	mutex   sync.Mutex
	w       *pcapgo.Writer
	c       io.Closer
	n       uint64
	lastErr error

	// Now may be replaced for reproducible timestamps.
	Now func() time.Time
}

// New writes a pcap file header to w and returns the tap.
func New(w io.Writer) (*Tap, error) {
	pw := pcapgo.NewWriter(w)
	// new file, must do this.
	if err := pw.WriteFileHeader(SnapLen, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	t := &Tap{w: pw, Now: time.Now}
	if c, ok := w.(io.Closer); ok {
		t.c = c
	}
	return t, nil
}

// Create truncates or creates the named pcap file.
func Create(fn string) (*Tap, error) {
	f, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	t, err := New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %v", fn, err)
	}
	return t, nil
}

func (t *Tap) Tap(r *vnet.Ref) {
	b := r.Bytes()
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.w == nil {
		return
	}
	err := t.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     t.Now(),
		CaptureLength: len(b),
		Length:        len(b),
	}, b)
	if err != nil {
		t.lastErr = err
		return
	}
	t.n++
}

// Packets written so far.
func (t *Tap) Packets() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.n
}

// Err returns the last write error.
func (t *Tap) Err() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.lastErr
}

func (t *Tap) Close() (err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.w = nil
	if t.c != nil {
		err = t.c.Close()
		t.c = nil
	}
	return
}

// Summary decodes b as an ethernet frame and returns a one line
// description of its layers.
func Summary(b []byte) string {
	p := gopacket.NewPacket(b, layers.LayerTypeEthernet, gopacket.NoCopy)
	s := ""
	for _, l := range p.Layers() {
		if len(s) > 0 {
			s += " "
		}
		s += l.LayerType().String()
	}
	if e := p.ErrorLayer(); e != nil {
		s += " (" + e.Error().Error() + ")"
	}
	if eth, ok := p.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		s = fmt.Sprintf("%s -> %s %s", eth.SrcMAC, eth.DstMAC, s)
	}
	return s
}
