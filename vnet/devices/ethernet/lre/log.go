// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lre

import (
	"fmt"
	"sync"
	"time"

	"github.com/platinasystems/log"
)

// limited logs at most max lines per period.
type limited struct {
	mutex  sync.Mutex
	prefix string
	n, max uint32
	// Lines dropped since last reset.
	dropped uint32
	stop    chan struct{}
	once    sync.Once
	print   func(args ...interface{})
}

var print_log = log.Print

func new_limited(prefix string, max uint32, period time.Duration) *limited {
	l := &limited{
		prefix: prefix,
		max:    max,
		stop:   make(chan struct{}),
		print:  print_log,
	}
	go func(stop <-chan struct{}) {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.reset()
			case <-stop:
				return
			}
		}
	}(l.stop)
	return l
}

func (l *limited) reset() {
	l.mutex.Lock()
	dropped := l.dropped
	l.n, l.dropped = 0, 0
	l.mutex.Unlock()
	if dropped > 0 {
		l.print("daemon", "warn", l.prefix, ": ", dropped, " messages dropped")
	}
}

func (l *limited) ok() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.n < l.max {
		l.n++
		return true
	}
	l.dropped++
	return false
}

// Print a data path warning.
func (l *limited) Print(args ...interface{}) {
	if l.ok() {
		a := append([]interface{}{"daemon", "warn", l.prefix, ": "}, args...)
		l.print(a...)
	}
}

// debugf traces register access; it is not limited.
func (l *limited) debugf(format string, args ...interface{}) {
	l.print("daemon", "debug", l.prefix, ": ", fmt.Sprintf(format, args...))
}

func (l *limited) Close() {
	l.once.Do(func() { close(l.stop) })
}
