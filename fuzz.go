// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pack

import "os"

// Fuzz is the legacy go-fuzz entry point (built with go-fuzz-build): it
// feeds data straight at the outermost Pack parser, the widest attack
// surface in the module, and returns 1 only when a Pack decoded cleanly
// enough to be worth prioritising in the corpus.
func Fuzz(data []byte) int {
	tmp, err := os.CreateTemp("", "fuzz-pack-*")
	if err != nil {
		return 0
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0
	}
	tmp.Close()

	p, err := openOne(tmp.Name())
	if err != nil {
		return 0
	}
	defer p.Close()

	for _, path := range p.Files() {
		e := p.Get(path)
		if e == nil {
			continue
		}
		if _, err := e.GetData(); err != nil {
			return 0
		}
	}
	return 1
}
