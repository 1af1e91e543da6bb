// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"time"
)

// Interrupt is the receive top half: mask the receive interrupt and wake
// the worker. It neither allocates nor copies.
func (d *Dev) Interrupt() {
	if !d.enter() {
		return
	}
	defer d.leave()
	s := d.get_status()
	if d.Debug {
		d.log.debugf("interrupt %s", s)
	}
	if d.Mode != ModePolled {
		d.mac_hi_change(0, mac_hi_irq_enable)
	}
	d.signal()
}

// Non-blocking; a pending signal covers any number of interrupts.
func (d *Dev) signal() {
	select {
	case d.rx_signal <- struct{}{}:
	default:
	}
}

// Receive bottom half.
func (d *Dev) worker() {
	defer d.worker_wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case <-d.rx_signal:
			d.rx_drain()
		}
	}
}

// irq_reader runs the top half for each interrupt until the line closes.
func (d *Dev) irq_reader() {
	defer d.irq_wg.Done()
	for {
		if err := d.irq.Wait(); err != nil {
			if !d.IsDetached() {
				d.log.Print("irq wait: ", err)
			}
			return
		}
		d.Interrupt()
	}
}

func (d *Dev) start_poller() {
	if d.poll_stop != nil {
		return
	}
	d.poll_stop = make(chan struct{})
	d.poll_wg.Add(1)
	go d.poll(d.poll_stop, d.PollInterval)
}

func (d *Dev) stop_poller() {
	d.ctl_mutex.Lock()
	defer d.ctl_mutex.Unlock()
	if d.poll_stop != nil {
		close(d.poll_stop)
		d.poll_wg.Wait()
		d.poll_stop = nil
	}
}

// poll wakes the worker every period while running.
func (d *Dev) poll(stop <-chan struct{}, period time.Duration) {
	defer d.poll_wg.Done()
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if d.IsRunning() {
				d.signal()
			}
		}
	}
}
