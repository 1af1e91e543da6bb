// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package lred

import (
	"fmt"
	"net/rpc"
	"sync"

	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
)

// service is "Info" on the default rpc server. It's registered once per
// process and dispatches to the Info currently serving.
type service struct{}

var served struct {
	sync.Mutex
	once sync.Once
	err  error
	info *Info
}

func register(i *Info) error {
	served.once.Do(func() {
		served.err = rpc.RegisterName("Info", service{})
	})
	if served.err != nil {
		return served.err
	}
	served.Lock()
	served.info = i
	served.Unlock()
	return nil
}

func unregister(i *Info) {
	served.Lock()
	defer served.Unlock()
	if served.info == i {
		served.info = nil
	}
}

func serving() (*Info, error) {
	served.Lock()
	defer served.Unlock()
	if served.info == nil {
		return nil, fmt.Errorf("%s: not serving", Name)
	}
	return served.info, nil
}

func (service) Control(a []string, s *string) error {
	i, err := serving()
	if err != nil {
		return err
	}
	return i.Control(a, s)
}

func (service) Hset(a args.Hset, r *reply.Hset) error {
	i, err := serving()
	if err != nil {
		return err
	}
	return i.Hset(a, r)
}
