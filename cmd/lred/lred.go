// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// Package lred runs a lowRISC ethernet controller from user space.
package lred

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"

	"github.com/platinasystems/lre/cmd"
	"github.com/platinasystems/lre/elib/hw"
	"github.com/platinasystems/lre/internal/fdtprobe"
	"github.com/platinasystems/lre/internal/uio"
	"github.com/platinasystems/lre/lang"
	"github.com/platinasystems/lre/vnet/devices/ethernet/lre"
	"github.com/platinasystems/lre/vnet/devices/ethernet/lre/sim"
	"github.com/platinasystems/lre/vnet/ethernet"
	"github.com/platinasystems/lre/vnet/pcap"
	tuntap "github.com/platinasystems/lre/vnet/unix"
)

const (
	Name = "lred"

	DefaultPublish = 5 * time.Second
	// Attempts to find the interrupt device while its driver loads.
	retries = 8
)

type Command struct {
	Info
	stop chan struct{}
	once sync.Once
}

// Info is the RPC receiver for Control and the redis hset of settable
// fields.
type Info struct {
	mutex sync.Mutex
	dev   *lre.Dev
	sim   *sim.Controller
	tap   *tuntap.Interface
	cap   *pcap.Tap
	pub   printer
	rpc   *atsock.RpcServer
	last  map[string]string
}

type printer interface {
	Print(a ...interface{}) (int, error)
}

type options struct {
	cfg                      lre.Config
	sim, loopback            bool
	dtb, mem, uio, tap, pcap string
	publish                  time.Duration
}

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return Name + ` [-poll] [-sim] [-loopback] [-debug] [-release]
	[-dtb FILE] [-mem FILE] [-uio FILE] [-unit N] [-buffers N]
	[-interval DURATION] [-publish DURATION] [-tap NAME] [-pcap FILE]`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "lowRISC ethernet daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Attach, start and serve a lowRISC ethernet controller.

	The register window and interrupt are the Linux UIO device whose
	memory map matches the "lowrisc-eth" device tree node of unit N.

	-poll		poll the receive ring every -interval (1ms)
	-sim		run a simulated controller
	-loopback	loop transmit to receive inside the controller
	-debug		trace register access
	-release	release a receive slot when out of buffers
	-dtb FILE	device tree blob (/sys/firmware/fdt)
	-mem FILE	register window file (the UIO device)
	-uio FILE	interrupt event file (found by device tree base)
	-tap NAME	bridge frames with a Linux tap interface
	-pcap FILE	write transmit and receive frames to a capture file
	-publish D	redis counter publish period (5s)

	Control and state are served on the @lred abstract socket and the
	redis hash fields of the interface, e.g. lre0.promisc.`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func parse(a []string) (*options, error) {
	flag, a := flags.New(a, "-poll", "-sim", "-loopback", "-debug",
		"-release")
	parm, a := parms.New(a, "-dtb", "-mem", "-uio", "-unit", "-buffers",
		"-interval", "-publish", "-tap", "-pcap")
	if len(a) > 0 {
		return nil, fmt.Errorf("%v: unexpected", a)
	}
	o := &options{
		cfg:      lre.DefaultConfig(),
		sim:      flag.ByName["-sim"],
		loopback: flag.ByName["-loopback"],
		dtb:      parm.ByName["-dtb"],
		mem:      parm.ByName["-mem"],
		uio:      parm.ByName["-uio"],
		tap:      parm.ByName["-tap"],
		pcap:     parm.ByName["-pcap"],
		publish:  DefaultPublish,
	}
	if flag.ByName["-poll"] {
		o.cfg.Mode = lre.ModePolled
	}
	o.cfg.Debug = flag.ByName["-debug"]
	o.cfg.ReleaseOnNoBuffer = flag.ByName["-release"]
	for _, x := range []struct {
		name string
		p    *uint
	}{
		{"-unit", &o.cfg.Unit},
		{"-buffers", &o.cfg.Buffers},
	} {
		if s := parm.ByName[x.name]; len(s) > 0 {
			v, err := strconv.ParseUint(s, 0, 0)
			if err != nil {
				return nil, fmt.Errorf("%s: %v", x.name, err)
			}
			*x.p = uint(v)
		}
	}
	for _, x := range []struct {
		name string
		p    *time.Duration
	}{
		{"-interval", &o.cfg.PollInterval},
		{"-publish", &o.publish},
	} {
		if s := parm.ByName[x.name]; len(s) > 0 {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %v", x.name, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("%s: %s: not positive", x.name, s)
			}
			*x.p = d
		}
	}
	return o, nil
}

// Socket the unit's control is served on.
func Socket(unit uint) string {
	if unit == 0 {
		return Name
	}
	return fmt.Sprint(Name, unit)
}

// Address of a simulated unit.
func SimAddress(unit uint) ethernet.Address {
	return ethernet.Address{0x00, 0x0a, 0x35, 0x00, 0x00, byte(unit)}
}

func (c *Command) stopped() chan struct{} {
	c.once.Do(func() { c.stop = make(chan struct{}) })
	return c.stop
}

// retry f with backoff until it succeeds, the daemon stops or attempts
// are exhausted.
func (c *Command) retry(what string, f func() error) (err error) {
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: false,
	}
	for i := 0; i < retries; i++ {
		if err = f(); err == nil {
			return
		}
		d := b.Duration()
		log.Print("daemon", "warn", what, ": ", err, ", retry in ", d)
		select {
		case <-c.stopped():
			return fmt.Errorf("%s: stopped", what)
		case <-time.After(d):
		}
	}
	return
}

func (c *Command) resources(o *options) (res lre.Resources, s *sim.Controller, err error) {
	if o.sim {
		s = sim.New(SimAddress(o.cfg.Unit))
		res = lre.Resources{Window: s, Irq: s.Irq()}
		return
	}
	fn := o.uio
	if len(fn) == 0 {
		var devs []fdtprobe.Device
		if devs, err = fdtprobe.Load(o.dtb); err != nil {
			return
		}
		if o.cfg.Unit >= uint(len(devs)) {
			err = fmt.Errorf("unit %d: no %s device", o.cfg.Unit,
				fdtprobe.Compatible)
			return
		}
		dev := devs[o.cfg.Unit]
		if dev.Size < lre.WindowBytes {
			err = fmt.Errorf("%s: window too small", dev)
			return
		}
		err = c.retry("uio", func() (err error) {
			fn, err = uio.Find("", dev.Base)
			return
		})
		if err != nil {
			return
		}
	}
	var irq *uio.Irq
	err = c.retry(fn, func() (err error) {
		irq, err = uio.Open(fn)
		return
	})
	if err != nil {
		return
	}
	mem := o.mem
	if len(mem) == 0 {
		mem = fn
	}
	win, err := hw.Map(mem, 0, lre.WindowBytes)
	if err != nil {
		irq.Close()
		return
	}
	res = lre.Resources{Window: win, Irq: irq}
	return
}

func (c *Command) Main(a ...string) error {
	o, err := parse(a)
	if err != nil {
		return err
	}
	stop := c.stopped()
	res, s, err := c.resources(o)
	if err != nil {
		return err
	}
	d, err := lre.Attach(o.cfg, res)
	if err != nil {
		return err
	}
	c.Info.attach(d, s)
	defer c.Info.detach()

	if err = c.Info.bridge(o); err != nil {
		return err
	}
	if err = d.Init(); err != nil {
		return err
	}
	log.Print("daemon", "info", d.Name(), ": ", d.Address(), " ",
		o.cfg.Mode, " mode")

	if err = c.Info.serve(Socket(o.cfg.Unit)); err != nil {
		return err
	}

	t := time.NewTicker(o.publish)
	defer t.Stop()
	c.Info.publish()
	for {
		select {
		case <-stop:
			return nil
		case <-t.C:
			c.Info.publish()
		}
	}
}

func (c *Command) Close() error {
	stop := c.stopped()
	select {
	case <-stop:
	default:
		close(stop)
	}
	return nil
}

func (i *Info) attach(d *lre.Dev, s *sim.Controller) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.dev, i.sim = d, s
	i.last = make(map[string]string)
}

// bridge connects the tap interface and capture file and sets loopback.
func (i *Info) bridge(o *options) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	d := i.dev
	if len(o.pcap) > 0 {
		p, err := pcap.Create(o.pcap)
		if err != nil {
			return err
		}
		i.cap = p
		d.Interface().AddTap(p)
	}
	if len(o.tap) > 0 {
		t, err := tuntap.Open(o.tap)
		if err != nil {
			return err
		}
		i.tap = t
		d.Interface().SetInputer(t)
		go func() {
			if err := t.Run(d); err != nil {
				log.Print("daemon", "err", err)
			}
		}()
	}
	if o.loopback {
		return d.Loopback(true)
	}
	return nil
}

// serve control over the named socket and publish state to redis when
// it's available.
func (i *Info) serve(socket string) (err error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.rpc, err = atsock.NewRpcServer(socket); err != nil {
		return
	}
	if err = register(i); err != nil {
		return
	}
	if err = redis.IsReady(); err != nil {
		log.Print("daemon", "warn", "redis: ", err)
		return nil
	}
	pub, err := publisher.New()
	if err != nil {
		return
	}
	i.pub = pub
	return redis.Assign(redis.DefaultHash+":"+i.dev.Name()+".", socket,
		"Info")
}

func (i *Info) detach() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.tap != nil {
		i.tap.Close()
		log.Print("daemon", "info", i.tap.Stats())
		i.tap = nil
	}
	if i.dev != nil {
		if err := i.dev.Detach(); err != nil {
			log.Print("daemon", "err", err)
		}
	}
	if i.cap != nil {
		if err := i.cap.Close(); err != nil {
			log.Print("daemon", "err", err)
		}
		i.cap = nil
	}
	unregister(i)
	if i.rpc != nil {
		i.rpc.Close()
		i.rpc = nil
	}
	if p, ok := i.pub.(*publisher.Publisher); ok {
		p.Close()
	}
	i.pub = nil
}

func (i *Info) device() (*lre.Dev, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.dev == nil {
		return nil, fmt.Errorf("%s: no device", Name)
	}
	return i.dev, nil
}

// Control runs an admin command, e.g. {"promisc", "on"}.
func (i *Info) Control(a []string, s *string) error {
	if len(a) == 0 {
		a = []string{"show"}
	}
	d, err := i.device()
	if err != nil {
		return err
	}
	*s, err = d.Control(a[0], a[1:]...)
	return err
}

// Fields set by redis hset IF.FIELD VALUE.
var settable = map[string]string{
	"state":    "",
	"promisc":  "promisc",
	"loopback": "loopback",
	"rxcsum":   "rxcsum",
	"mtu":      "mtu",
	"address":  "address",
	"media":    "media",
}

func (i *Info) Hset(a args.Hset, r *reply.Hset) error {
	d, err := i.device()
	if err != nil {
		return err
	}
	field := strings.TrimPrefix(a.Field, d.Name()+".")
	c, found := settable[field]
	if !found {
		return fmt.Errorf("cannot hset: %s", a.Field)
	}
	v := string(a.Value)
	var ca []string
	if field == "state" {
		if v != "up" && v != "down" {
			return fmt.Errorf("%s: %s: expected up or down", a.Field, v)
		}
		ca = []string{v}
	} else {
		ca = []string{c, v}
	}
	if _, err = d.Control(ca[0], ca[1:]...); err != nil {
		return err
	}
	*r = 1
	i.publish()
	return nil
}

// publish fields that changed since last published.
func (i *Info) publish() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.dev == nil || i.pub == nil {
		return
	}
	d := i.dev
	vi := d.Interface()
	set := func(k, v string) {
		k = vi.Name() + "." + k
		if i.last[k] != v {
			i.pub.Print(k, ": ", v)
			i.last[k] = v
		}
	}
	vi.Counters.Foreach(true, func(name string, v uint64) {
		set(strings.Replace(name, " ", "_", -1), strconv.FormatUint(v, 10))
	})
	if f, err := d.Flags(); err == nil {
		state := "down"
		if f.IsUp() {
			state = "up"
		}
		set("state", state)
		set("flags", f.String())
	}
	if c, err := d.Capabilities(); err == nil {
		set("rxcsum", strconv.FormatBool(c&lre.CapRxCsum != 0))
	}
	set("address", d.Address().String())
	set("mtu", strconv.FormatUint(uint64(vi.Mtu()), 10))
	if m, err := d.Media(); err == nil {
		set("media", m.String())
	}
	if i.tap != nil {
		set("tap", i.tap.Stats())
	}
	if i.cap != nil {
		set("pcap.packets", strconv.FormatUint(i.cap.Packets(), 10))
	}
	if i.sim != nil {
		set("sim.overruns", strconv.FormatUint(uint64(i.sim.Overruns()), 10))
	}
}
