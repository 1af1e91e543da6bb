// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"fmt"
	"net"
	"strconv"

	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/ethernet"
)

// control runs f with the device admitted and control serialized.
func (d *Dev) control(f func() error) error {
	if !d.enter() {
		return ErrDetached
	}
	defer d.leave()
	d.ctl_mutex.Lock()
	defer d.ctl_mutex.Unlock()
	return f()
}

// SetAddress records an address. An IPv4 address also brings the
// interface up, starting the device unless already running.
func (d *Dev) SetAddress(a net.IPNet) error {
	return d.control(func() error {
		if a.IP == nil {
			return fmt.Errorf("%s: missing address", d.name)
		}
		d.vi.AddAddress(a)
		if a.IP.To4() == nil {
			return nil
		}
		d.vi.Change(vnet.Up, 0)
		d.flags |= vnet.Up
		if !d.IsRunning() {
			d.init()
		}
		return nil
	})
}

// SetFlags applies admin flags: up starts the device, down stops it and
// promiscuous is reflected to hardware. Running is ignored.
func (d *Dev) SetFlags(f vnet.Flags) error {
	return d.control(func() error {
		f &^= vnet.Running
		if f == d.flags {
			return nil
		}
		r := d.vi.Flags() & vnet.Running
		d.vi.SetFlags(f | r)
		if f.IsUp() {
			d.init()
		} else {
			d.set_running(false)
		}
		d.flags = f
		if f.IsPromisc() {
			d.mac_hi_change(mac_hi_all_packets, 0)
		} else {
			d.mac_hi_change(0, mac_hi_all_packets)
		}
		return nil
	})
}

// Flags returns interface flags with promiscuous read back from hardware.
func (d *Dev) Flags() (f vnet.Flags, err error) {
	err = d.control(func() error {
		if mac_hi.get(d)&mac_hi_all_packets != 0 {
			d.flags |= vnet.Promisc
		} else {
			d.flags &^= vnet.Promisc
		}
		r := d.vi.Flags() & vnet.Running
		d.vi.SetFlags(d.flags | r)
		f = d.flags | r
		return nil
	})
	return
}

func (d *Dev) Capabilities() (c Capability, err error) {
	err = d.control(func() error {
		c = d.capability()
		return nil
	})
	return
}

func (d *Dev) SetCapabilities(c Capability) error {
	return d.control(func() error {
		if c&^CapRxCsum != 0 {
			return ErrNotSupported
		}
		d.set_capability(c)
		return nil
	})
}

// SetMtu validates mtu against the largest hardware frame and records it.
// Hardware is unchanged.
func (d *Dev) SetMtu(mtu uint) error {
	return d.control(func() error {
		if mtu > max_tx_bytes-ethernet.HeaderBytes {
			return ErrNotSupported
		}
		d.vi.SetMtu(mtu)
		return nil
	})
}

// Loopback transmit to receive inside the controller.
func (d *Dev) Loopback(on bool) error {
	return d.control(func() error {
		if on {
			d.mac_hi_change(mac_hi_loopback, 0)
		} else {
			d.mac_hi_change(0, mac_hi_loopback)
		}
		return nil
	})
}

func parse_on_off(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("expected on or off")
	}
	switch args[0] {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%s: expected on or off", args[0])
}

// Control runs an admin command by name, returning its output.
func (d *Dev) Control(cmd string, args ...string) (s string, err error) {
	switch cmd {
	case "up", "down":
		var f vnet.Flags
		if f, err = d.Flags(); err != nil {
			return
		}
		if cmd == "up" {
			f |= vnet.Up
		} else {
			f &^= vnet.Up
		}
		err = d.SetFlags(f)
	case "promisc":
		var on bool
		var f vnet.Flags
		if on, err = parse_on_off(args); err != nil {
			return
		}
		if f, err = d.Flags(); err != nil {
			return
		}
		if on {
			f |= vnet.Promisc
		} else {
			f &^= vnet.Promisc
		}
		err = d.SetFlags(f)
	case "flag":
		if len(args) != 2 {
			return "", fmt.Errorf("flag: expected NAME on|off")
		}
		flag, found := vnet.FlagByName(args[0])
		if !found {
			return "", fmt.Errorf("%s: unknown flag", args[0])
		}
		var on bool
		var f vnet.Flags
		if on, err = parse_on_off(args[1:]); err != nil {
			return
		}
		if f, err = d.Flags(); err != nil {
			return
		}
		if on {
			f |= flag
		} else {
			f &^= flag
		}
		err = d.SetFlags(f)
	case "loopback":
		var on bool
		if on, err = parse_on_off(args); err != nil {
			return
		}
		err = d.Loopback(on)
	case "rxcsum":
		var on bool
		if on, err = parse_on_off(args); err != nil {
			return
		}
		c := Capability(0)
		if on {
			c = CapRxCsum
		}
		err = d.SetCapabilities(c)
	case "mtu":
		var mtu uint64
		if len(args) != 1 {
			return "", fmt.Errorf("mtu: expected N")
		}
		if mtu, err = strconv.ParseUint(args[0], 0, 0); err != nil {
			return
		}
		err = d.SetMtu(uint(mtu))
	case "address":
		if len(args) != 1 {
			return "", fmt.Errorf("address: expected ADDR/LEN")
		}
		ip, ipnet, perr := net.ParseCIDR(args[0])
		if perr != nil {
			return "", perr
		}
		err = d.SetAddress(net.IPNet{IP: ip, Mask: ipnet.Mask})
	case "media":
		if len(args) > 0 {
			err = d.SetMedia(args[0])
			return
		}
		var m Media
		if m, err = d.Media(); err == nil {
			s = m.String()
		}
	case "status":
		s, err = d.Status()
	case "show":
		s, err = d.Show()
	default:
		err = ErrNotSupported
	}
	return
}
