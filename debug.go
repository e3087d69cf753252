// gf2-morse
// Copyright (c) 2025 The gf2-morse Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gf2-morse.
//
// gf2-morse is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gf2-morse is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gf2-morse; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package gf2

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bloguetronica/gf2-morse/internal/syncutil"
)

// Console debug output is off unless GF2_DEBUG or DEBUG is set, or a
// caller turns it on with SetDebugEnabled.
var debugEnabled = os.Getenv("GF2_DEBUG") != "" || os.Getenv("DEBUG") != ""

var (
	debugOutput io.Writer = os.Stderr
	// debugMu guards the console and session log writers
	debugMu syncutil.Mutex
)

// Debugf logs a formatted message. It always goes to the session log, if
// one is open, and to the console only while debugging is enabled.
func Debugf(format string, args ...any) {
	emitDebug(fmt.Sprintf(format, args...))
}

// Debugln logs its operands formatted like fmt.Sprint.
func Debugln(args ...any) {
	emitDebug(fmt.Sprint(args...))
}

func emitDebug(message string) {
	debugMu.Lock()
	defer debugMu.Unlock()

	if sessionLogWriter != nil {
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", time.Now().Format("15:04:05.000"), message)
	}
	if debugEnabled {
		_, _ = fmt.Fprintf(debugOutput, "DEBUG: %s\n", message)
	}
}

// SetDebugEnabled turns console debug output on or off
func SetDebugEnabled(enabled bool) {
	debugMu.Lock()
	debugEnabled = enabled
	debugMu.Unlock()
}
