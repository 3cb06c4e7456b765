// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

var (
	plainMode bool
	modeMu    sync.RWMutex
)

// Plain reports whether styled output is disabled
func Plain() bool {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return plainMode
}

// SetPlain toggles plain output mode
func SetPlain(v bool) {
	modeMu.Lock()
	defer modeMu.Unlock()
	plainMode = v
}

// InitMode selects the output mode from the environment. GRAFT_PLAIN forces
// plain output, and plain output is also used when stdout is not a terminal
// so piped output stays parseable.
func InitMode() {
	if os.Getenv("GRAFT_PLAIN") != "" {
		SetPlain(true)
		return
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		SetPlain(true)
		return
	}
	SetPlain(false)
}
