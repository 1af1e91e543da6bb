// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinasystems/lre/elib"
	"github.com/platinasystems/lre/elib/hw"
	"github.com/platinasystems/lre/vnet"
	"github.com/platinasystems/lre/vnet/ethernet"
)

var (
	ErrNotSupported = errors.New("lre: operation not supported")
	ErrDetached     = errors.New("lre: device detached")
	ErrNoWindow     = errors.New("lre: unable to allocate memory")
	ErrNoInterrupt  = errors.New("lre: unable to allocate interrupt")
)

type Mode int

const (
	ModeInterrupt Mode = iota
	ModePolled
)

var mode_names = [...]string{
	ModeInterrupt: "interrupt",
	ModePolled:    "polled",
}

func (m Mode) String() string {
	return elib.StringerWithFormat(mode_names[:], int(m), "mode %d")
}

// Device capabilities.
type Capability uint32

const (
	// Receive lengths include a 4 byte checksum trailer.
	CapRxCsum Capability = 1 << iota
)

var capability_names = [...]string{
	0: "rxcsum",
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	return elib.FlagStringer(capability_names[:], uint64(c))
}

type Config struct {
	Unit uint
	Mode Mode
	// Poll period in polled mode.
	PollInterval time.Duration
	// Receive frame buffers.
	Buffers uint
	// Set by Init.
	Capabilities Capability
	// Release a slot when no frame buffer is available instead of
	// leaving it for the next drain.
	ReleaseOnNoBuffer bool
	// Trace register access.
	Debug bool
}

const (
	DefaultPollInterval = time.Millisecond
	DefaultBuffers      = 64
)

func DefaultConfig() Config {
	return Config{
		Mode:         ModeInterrupt,
		PollInterval: DefaultPollInterval,
		Buffers:      DefaultBuffers,
		Capabilities: CapRxCsum,
	}
}

// Irq is the device interrupt line.
type Irq interface {
	// Wait blocks until the device interrupts or the line is closed.
	Wait() error
	// Enable re-arms the line after an interrupt has been serviced.
	Enable() error
	Close() error
}

// Resources held exclusively by the device once attached.
type Resources struct {
	Window hw.Window
	Irq    Irq
}

func (res Resources) release() {
	if res.Irq != nil {
		res.Irq.Close()
	}
	if res.Window != nil {
		res.Window.Close()
	}
}

type Dev struct {
	Config

	name string
	win  hw.Window
	irq  Irq
	vi   *vnet.Interface
	pool *vnet.BufferPool

	// Serializes control operations.
	ctl_mutex sync.Mutex
	// Serializes mac hi read-modify-write.
	mac_hi_mutex sync.Mutex

	// Operations hold read lock; Detach takes write lock to mark
	// detached.
	life     sync.RWMutex
	detached bool

	running      uint32
	capabilities uint32
	// Flags last applied to hardware.
	flags vnet.Flags

	rx_signal chan struct{}
	stop      chan struct{}
	worker_wg sync.WaitGroup
	irq_wg    sync.WaitGroup

	poll_stop chan struct{}
	poll_wg   sync.WaitGroup

	detach_once sync.Once

	log *limited
}

// Attach takes exclusive use of the resources and readies the device.
// The device stays stopped until Init.
func Attach(cfg Config, res Resources) (d *Dev, err error) {
	d = &Dev{Config: cfg}
	d.name = fmt.Sprintf("lre%d", cfg.Unit)
	if d.PollInterval <= 0 {
		d.PollInterval = DefaultPollInterval
	}
	if d.Buffers == 0 {
		d.Buffers = DefaultBuffers
	}

	defer func() {
		if err != nil {
			res.release()
			d = nil
		}
	}()
	switch {
	case res.Window == nil:
		err = ErrNoWindow
	case res.Irq == nil:
		err = ErrNoInterrupt
	default:
		err = d.check_window(res.Window)
	}
	if err != nil {
		return
	}
	d.log = new_limited(d.name, 10, time.Second)
	d.win = res.Window
	if d.Debug {
		d.win = hw.Trace(d.win, d.log.debugf)
	}
	d.irq = res.Irq

	a := d.get_address()

	// discard frames left by boot loader
	for s := d.get_status(); s.done(); s = d.get_status() {
		rx_status.set(d, s.release())
	}

	d.vi = vnet.NewInterface(d.name, a, ethernet.DefaultMtu,
		vnet.Broadcast|vnet.Simplex|vnet.Multicast|vnet.AllMulti)
	d.flags = d.vi.Flags()
	d.pool = vnet.NewBufferPool(d.Buffers)

	d.rx_signal = make(chan struct{}, 1)
	d.stop = make(chan struct{})
	d.worker_wg.Add(1)
	go d.worker()
	if d.Mode == ModeInterrupt {
		d.irq_wg.Add(1)
		go d.irq_reader()
	}
	return d, nil
}

func (d *Dev) Name() string               { return d.name }
func (d *Dev) String() string             { return d.name }
func (d *Dev) Interface() *vnet.Interface { return d.vi }
func (d *Dev) Address() ethernet.Address  { return d.vi.EthernetAddress() }
func (d *Dev) Pool() *vnet.BufferPool     { return d.pool }

func (d *Dev) IsRunning() bool { return atomic.LoadUint32(&d.running) != 0 }
func (d *Dev) set_running(v bool) {
	x := uint32(0)
	if v {
		x = 1
	}
	atomic.StoreUint32(&d.running, x)
	if v {
		d.vi.Change(vnet.Running, 0)
	} else {
		d.vi.Change(0, vnet.Running)
	}
}

func (d *Dev) capability() Capability {
	return Capability(atomic.LoadUint32(&d.capabilities))
}
func (d *Dev) set_capability(c Capability) {
	atomic.StoreUint32(&d.capabilities, uint32(c))
}

// enter admits an operation unless detached; pair with leave.
func (d *Dev) enter() bool {
	d.life.RLock()
	if d.detached {
		d.life.RUnlock()
		return false
	}
	return true
}

func (d *Dev) leave() { d.life.RUnlock() }

// Init starts the device: running, capabilities reset, receive interrupt
// enabled or the poller started.
func (d *Dev) Init() error {
	if !d.enter() {
		return ErrDetached
	}
	defer d.leave()
	d.ctl_mutex.Lock()
	defer d.ctl_mutex.Unlock()
	d.init()
	return nil
}

func (d *Dev) init() {
	d.set_running(true)
	d.set_capability(d.Config.Capabilities)
	if d.Mode == ModePolled {
		d.start_poller()
	} else {
		d.mac_hi_change(mac_hi_irq_enable, 0)
	}
	d.log.Print("init ", d.Mode, " ", d.capability())
}

// Detach stops the device and releases its resources. Interrupt is released
// before the register window. Further operations report ErrDetached.
func (d *Dev) Detach() (err error) {
	d.detach_once.Do(func() {
		d.life.Lock()
		d.detached = true
		d.life.Unlock()

		d.stop_poller()
		d.mac_hi_change(0, mac_hi_irq_enable)
		if e := d.irq.Close(); e != nil {
			err = fmt.Errorf("%s: irq close: %v", d.name, e)
		}
		d.irq_wg.Wait()
		close(d.stop)
		d.worker_wg.Wait()
		// a drain racing detach may have re-enabled it
		d.mac_hi_change(0, mac_hi_irq_enable)
		d.set_running(false)
		if e := d.win.Close(); e != nil && err == nil {
			err = fmt.Errorf("%s: window close: %v", d.name, e)
		}
		d.log.Close()
	})
	return
}

func (d *Dev) Shutdown() error { return d.Detach() }

func (d *Dev) IsDetached() bool {
	d.life.RLock()
	defer d.life.RUnlock()
	return d.detached
}
