// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"github.com/platinasystems/lre/elib"
)

type MediaStatus uint8

const (
	media_valid_bit, MediaValid MediaStatus = iota, 1 << iota
	media_active_bit, MediaActive
)

var media_status_names = [...]string{
	media_valid_bit:  "valid",
	media_active_bit: "active",
}

func (s MediaStatus) String() string {
	return elib.FlagStringer(media_status_names[:], uint64(s))
}

type Media struct {
	Status MediaStatus
	Type   string
	Speed  string
	Duplex string
}

// No PHY is interrogated; link is always 100Mb full duplex.
var fixed_media = Media{
	Status: MediaValid | MediaActive,
	Type:   "ethernet",
	Speed:  "100baseTX",
	Duplex: "full-duplex",
}

func (m Media) String() string {
	return m.Type + " " + m.Speed + " <" + m.Duplex + "> status: " + m.Status.String()
}

func (d *Dev) Media() (m Media, err error) {
	err = d.control(func() error {
		m = fixed_media
		return nil
	})
	return
}

func (d *Dev) SetMedia(string) error {
	return d.control(func() error { return ErrNotSupported })
}

func (d *Dev) Status() (s string, err error) {
	err = d.control(func() error {
		s = "lre status"
		return nil
	})
	return
}

// Show formats interface, pool and register state.
func (d *Dev) Show() (s string, err error) {
	err = d.control(func() error {
		l := d.vi.Lines()
		l.Addf("    mode %s capabilities %s", d.Mode, d.capability())
		l.Addf("    buffers %s", d.pool)
		st := d.get_status()
		l.Addf("    %s: 0x%x %s", rx_status, uint64(st), st)
		for _, r := range []reg{mac_hi, rx_bad, tx_length, tx_fcs, rx_fcs, mdio_ctrl} {
			l.Addf("    %s: 0x%x", r, r.get(d))
		}
		x := mac_hi.get(d)
		if x&mac_hi_cooked != 0 {
			l.Add("    cooked")
		}
		if x&mac_hi_loopback != 0 {
			l.Add("    loopback")
		}
		s = l.Indent(0)
		return nil
	})
	return
}
