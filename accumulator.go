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
	"errors"

	"github.com/bloguetronica/gf2-morse/internal/syncutil"
)

// ErrorEntry is one recorded failure.
type ErrorEntry struct {
	Err error
	Op  string
}

// Errors accumulates failures across a run so they can be reported once it
// ends. Operations keep going after a failure; the caller decides when to
// stop by looking at Count.
//
// The zero value is ready to use.
type Errors struct {
	entries []ErrorEntry
	mu      syncutil.Mutex
}

// NewErrors creates an empty accumulator
func NewErrors() *Errors {
	return &Errors{}
}

// Record appends a failure. A nil error is ignored.
func (e *Errors) Record(op string, err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.entries = append(e.entries, ErrorEntry{Op: op, Err: err})
	e.mu.Unlock()
}

// Count returns the number of recorded failures
func (e *Errors) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Entries returns the recorded failures in order
func (e *Errors) Entries() []ErrorEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := make([]ErrorEntry, len(e.entries))
	copy(entries, e.entries)
	return entries
}

// Messages returns one "op: error" line per recorded failure
func (e *Errors) Messages() []string {
	entries := e.Entries()
	msgs := make([]string, 0, len(entries))
	for _, entry := range entries {
		msgs = append(msgs, entry.Op+": "+entry.Err.Error())
	}
	return msgs
}

// Err joins every recorded failure, or returns nil if there are none
func (e *Errors) Err() error {
	entries := e.Entries()
	if len(entries) == 0 {
		return nil
	}
	errs := make([]error, len(entries))
	for i, entry := range entries {
		errs[i] = entry.Err
	}
	return errors.Join(errs...)
}

// Disconnected returns true if any recorded failure shows the device is gone
func (e *Errors) Disconnected() bool {
	for _, entry := range e.Entries() {
		if IsDisconnected(entry.Err) {
			return true
		}
	}
	return false
}

// Reset discards every recorded failure
func (e *Errors) Reset() {
	e.mu.Lock()
	e.entries = nil
	e.mu.Unlock()
}
