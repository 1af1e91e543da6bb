// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fdtprobe

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// blob builds a big endian version 17 device tree.
type blob struct {
	st, strs bytes.Buffer
	off      map[string]int
}

func (b *blob) cell(v uint32) { binary.Write(&b.st, binary.BigEndian, v) }

func (b *blob) pad() {
	for b.st.Len()%4 != 0 {
		b.st.WriteByte(0)
	}
}

func (b *blob) begin(name string) {
	b.cell(1)
	b.st.WriteString(name)
	b.st.WriteByte(0)
	b.pad()
}

func (b *blob) end() { b.cell(2) }

func (b *blob) prop(name string, v []byte) {
	if b.off == nil {
		b.off = make(map[string]int)
	}
	o, ok := b.off[name]
	if !ok {
		o = b.strs.Len()
		b.off[name] = o
		b.strs.WriteString(name)
		b.strs.WriteByte(0)
	}
	b.cell(3)
	b.cell(uint32(len(v)))
	b.cell(uint32(o))
	b.st.Write(v)
	b.pad()
}

func (b *blob) cells(name string, v ...uint32) {
	var x bytes.Buffer
	for _, c := range v {
		binary.Write(&x, binary.BigEndian, c)
	}
	b.prop(name, x.Bytes())
}

func (b *blob) bytes() []byte {
	b.cell(9)
	const header = 40
	h := []uint32{
		magic,
		uint32(header + b.st.Len() + b.strs.Len()),
		header,
		uint32(header + b.st.Len()),
		0,
		17, 16, 0,
		uint32(b.strs.Len()),
		uint32(b.st.Len()),
	}
	var x bytes.Buffer
	binary.Write(&x, binary.BigEndian, h)
	x.Write(b.st.Bytes())
	x.Write(b.strs.Bytes())
	return x.Bytes()
}

func tree() []byte {
	b := &blob{}
	b.begin("")
	b.cells("#address-cells", 2)
	b.cells("#size-cells", 2)
	b.begin("soc")
	b.cells("#address-cells", 1)
	b.cells("#size-cells", 1)
	b.begin("eth@41000000")
	b.prop("compatible", []byte("lowrisc-eth\x00"))
	b.cells("reg", 0x41000000, 0x8000)
	b.end()
	b.begin("uart@42000000")
	b.prop("compatible", []byte("lowrisc-eth-uart\x00"))
	b.cells("reg", 0x42000000, 0x1000)
	b.end()
	b.end()
	b.begin("eth@30000000")
	b.prop("compatible", []byte("vendor,x\x00lowrisc-eth\x00"))
	b.cells("reg", 0, 0x30000000, 0, 0x8000)
	b.cells("interrupts", 3)
	b.end()
	b.end()
	return b.bytes()
}

func TestParse(t *testing.T) {
	devs, err := Parse(tree())
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 2 {
		t.Fatal("wrong devices:", devs)
	}
	if d := devs[0]; d.Name != "eth@30000000" || d.Base != 0x30000000 ||
		d.Size != 0x8000 || !d.HasIrq || d.Irq != 3 {
		t.Error("wrong device:", d)
	}
	if d := devs[1]; d.Name != "eth@41000000" || d.Base != 0x41000000 ||
		d.Size != 0x8000 || d.HasIrq {
		t.Error("wrong device:", d)
	}
	if s := devs[0].String(); s != "eth@30000000: reg 0x30000000+0x8000 irq 3" {
		t.Error("wrong string:", s)
	}
}

func TestBadReg(t *testing.T) {
	b := &blob{}
	b.begin("")
	b.begin("eth")
	b.prop("compatible", []byte("lowrisc-eth\x00"))
	b.cells("reg", 0x30000000)
	b.end()
	b.end()
	if _, err := Parse(b.bytes()); err == nil {
		t.Error("short reg accepted")
	}
}

func TestBadMagic(t *testing.T) {
	if _, err := Parse(make([]byte, 64)); err == nil {
		t.Error("zero blob accepted")
	}
	b := tree()
	if _, err := Parse(b[:48]); err == nil {
		t.Error("truncated blob accepted")
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "fdtprobe")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "fdt")
	if err = ioutil.WriteFile(fn, tree(), 0644); err != nil {
		t.Fatal(err)
	}
	devs, err := Load(fn)
	if err != nil || len(devs) != 2 {
		t.Error("load:", devs, err)
	}
	if _, err = Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file loaded")
	}
}
