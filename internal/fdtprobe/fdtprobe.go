// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtprobe finds lowRISC ethernet controllers in a flattened device
// tree.
package fdtprobe

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/platinasystems/fdt"
)

const (
	File       = "/sys/firmware/fdt"
	Compatible = "lowrisc-eth"
	magic      = 0xd00dfeed
)

type Device struct {
	// Node name, e.g. "eth@30000000".
	Name string
	// Register window.
	Base, Size uint64
	// First interrupt specifier, if any.
	Irq    uint32
	HasIrq bool
}

func (d Device) String() string {
	s := fmt.Sprintf("%s: reg 0x%x+0x%x", d.Name, d.Base, d.Size)
	if d.HasIrq {
		s += fmt.Sprintf(" irq %d", d.Irq)
	}
	return s
}

type probe struct {
	t      *fdt.Tree
	parent map[*fdt.Node]*fdt.Node
}

// Load parses the blob in file fn; File if empty.
func Load(fn string) ([]Device, error) {
	if len(fn) == 0 {
		fn = File
	}
	b, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse returns the compatible devices of blob b sorted by name.
func Parse(b []byte) (devs []Device, err error) {
	if len(b) < 40 || binary.BigEndian.Uint32(b) != magic {
		return nil, fmt.Errorf("fdt: bad magic")
	}
	p := &probe{
		t:      &fdt.Tree{Debug: false, IsLittleEndian: false},
		parent: make(map[*fdt.Node]*fdt.Node),
	}
	defer func() {
		if r := recover(); r != nil {
			devs, err = nil, fmt.Errorf("fdt: %v", r)
		}
	}()
	if err = p.t.Parse(b); err != nil {
		return
	}
	if p.t.RootNode == nil {
		return nil, fmt.Errorf("fdt: no root node")
	}
	p.link(p.t.RootNode)
	var perr error
	p.t.EachProperty("compatible", Compatible,
		func(n *fdt.Node, name, value string) {
			if !p.compatible(n) {
				return
			}
			d, err := p.device(n)
			if err != nil {
				if perr == nil {
					perr = err
				}
				return
			}
			devs = append(devs, d)
		})
	if perr != nil {
		return nil, perr
	}
	sort.Slice(devs, func(i, j int) bool { return devs[i].Name < devs[j].Name })
	return
}

func (p *probe) link(n *fdt.Node) {
	for _, c := range n.Children {
		p.parent[c] = n
		p.link(c)
	}
}

// EachProperty matches substrings; want an exact entry.
func (p *probe) compatible(n *fdt.Node) bool {
	for _, s := range p.t.PropStringSlice(n.Properties["compatible"]) {
		if s == Compatible {
			return true
		}
	}
	return false
}

// cells of the bus n sits on, 2 address and 1 size cell if unset.
func (p *probe) cells(n *fdt.Node) (address, size int) {
	address, size = 2, 1
	bus := p.parent[n]
	if bus == nil {
		return
	}
	if b, ok := bus.Properties["#address-cells"]; ok && len(b) == 4 {
		address = int(p.t.PropUint32(b))
	}
	if b, ok := bus.Properties["#size-cells"]; ok && len(b) == 4 {
		size = int(p.t.PropUint32(b))
	}
	return
}

func join(cells []uint32) (v uint64) {
	for _, c := range cells {
		v = v<<32 | uint64(c)
	}
	return
}

func (p *probe) device(n *fdt.Node) (d Device, err error) {
	d.Name = n.Name
	ac, sc := p.cells(n)
	reg := p.t.PropUint32Slice(n.Properties["reg"])
	if ac < 1 || ac > 2 || sc > 2 || len(reg) < ac+sc {
		err = fmt.Errorf("%s: bad reg %v", n.Name, reg)
		return
	}
	d.Base = join(reg[:ac])
	d.Size = join(reg[ac : ac+sc])
	if irqs := p.t.PropUint32Slice(n.Properties["interrupts"]); len(irqs) > 0 {
		d.Irq, d.HasIrq = irqs[0], true
	}
	return
}
