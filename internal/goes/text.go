// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package goes

import (
	"fmt"
	"io"
	"strings"
)

// WriteUsage writes "usage:" then the tab indented synopsis.
func (g *Goes) WriteUsage(w io.Writer) {
	sep := "\t"
	if strings.HasPrefix(g.Usage, "\t") || strings.HasPrefix(g.Usage, "\n") {
		sep = ""
	}
	fmt.Fprint(w, "usage:", sep, g.Usage)
	if !strings.HasSuffix(g.Usage, "\n") {
		fmt.Fprintln(w)
	}
}

// WriteMan writes the NAME and SYNOPSIS sections followed by the
// command's own page, if any.
func (g *Goes) WriteMan(w io.Writer) {
	fmt.Fprint(w, "NAME\n\t", g.Name, " - ", g.Apropos, "\n\n",
		"SYNOPSIS\n\t", strings.TrimLeft(g.Usage, "\n\t"), "\n")
	man := g.Man.String()
	if len(man) == 0 {
		return
	}
	if !strings.HasPrefix(man, "\n") {
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, man)
	if !strings.HasSuffix(man, "\n") {
		fmt.Fprintln(w)
	}
}

// WriteApropos writes a "NAME  APROPOS" line if there's an apropos.
func (g *Goes) WriteApropos(w io.Writer) {
	apropos := g.Apropos.String()
	if len(apropos) == 0 {
		return
	}
	if len(g.Name) < 16 {
		fmt.Fprintf(w, "%-15s %s\n", g.Name, apropos)
	} else {
		fmt.Fprintf(w, "%s\n\t\t%s\n", g.Name, apropos)
	}
}
