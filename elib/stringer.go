// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elib has small helpers shared by the hardware and vnet packages.
package elib

import (
	"fmt"
	"math/bits"
)

func StringerWithFormat(n []string, i int, unknownFormat string) string {
	if i >= 0 && i < len(n) && len(n[i]) > 0 {
		return n[i]
	} else {
		return fmt.Sprintf(unknownFormat, i)
	}
}

// FlagStringerWithFormat names each set bit of x, lowest first.
func FlagStringerWithFormat(n []string, x uint64, unknownFormat string) (s string) {
	for x != 0 {
		i := bits.TrailingZeros64(x)
		if len(s) > 0 {
			s += ", "
		}
		if i < len(n) && len(n[i]) > 0 {
			s += n[i]
		} else {
			s += fmt.Sprintf(unknownFormat, i)
		}
		x &^= 1 << uint(i)
	}
	return
}

func FlagStringer(n []string, x uint64) string { return FlagStringerWithFormat(n, x, "%d") }

type Lines []string

func (l *Lines) Add(s string) { *l = append(*l, s) }
func (l *Lines) Addf(format string, args ...interface{}) {
	l.Add(fmt.Sprintf(format, args...))
}
func (l Lines) Indent(indent uint) (s string) {
	for li := range l {
		for i := uint(0); i < indent; i++ {
			s += " "
		}
		s += l[li] + "\n"
	}
	return
}
