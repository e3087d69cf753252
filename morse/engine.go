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

package morse

import (
	"fmt"
	"io"
	"time"
)

// Unit is the base timing interval. A dot holds the key down for one unit.
const Unit = 50 * time.Millisecond

// Gap lengths in units
const (
	intraCharGap = 1 // after every symbol
	interCharGap = 2 // after the last symbol of a character
	wordGap      = 4 // replaces the inter-character gap at a word break
)

// Keyer is the on/off output being keyed.
type Keyer interface {
	// Key turns the output on while down is true
	Key(down bool) error
}

// Option configures an Engine
type Option func(*Engine)

// WithEcho writes every signaled character, and one space per word break,
// to w as it is keyed.
func WithEcho(w io.Writer) Option {
	return func(e *Engine) {
		e.echo = w
	}
}

// WithUnit overrides the base timing interval
func WithUnit(unit time.Duration) Option {
	return func(e *Engine) {
		if unit > 0 {
			e.unit = unit
		}
	}
}

// WithSleep replaces time.Sleep, mainly so tests can run on a fake clock
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// Engine keys messages through a Keyer. It is strictly sequential and
// blocks for the whole duration of a message.
type Engine struct {
	keyer Keyer
	echo  io.Writer
	sleep func(time.Duration)
	unit  time.Duration
}

// NewEngine creates an engine keying k
func NewEngine(k Keyer, opts ...Option) *Engine {
	e := &Engine{
		keyer: k,
		echo:  io.Discard,
		sleep: time.Sleep,
		unit:  Unit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Signal keys message. Letters are case-folded, runs of whitespace become a
// single word gap, whitespace before the first character is dropped and
// characters without a code are skipped entirely.
//
// Signal stops at the first keying failure and returns it. Whatever was
// keyed before the failure has already gone out.
func (e *Engine) Signal(message string) error {
	pending := 0 // gap units owed before the next character
	afterSpace := true
	for _, r := range message {
		if isWordBreak(r) {
			if afterSpace {
				continue
			}
			afterSpace = true
			e.write(" ")
			pending = wordGap
			continue
		}

		code, ok := Lookup(r)
		if !ok {
			continue
		}
		afterSpace = false
		e.hold(pending)
		pending = 0

		e.write(string(Fold(r)))
		if err := e.signalCode(code); err != nil {
			return fmt.Errorf("signaling %q: %w", r, err)
		}
		pending = interCharGap
	}
	e.hold(pending)
	return nil
}

// signalCode keys every symbol of code, each followed by the intra-character gap
func (e *Engine) signalCode(code Code) error {
	for _, s := range code.Symbols() {
		if err := e.keyer.Key(true); err != nil {
			return err
		}
		e.hold(s.Units())
		if err := e.keyer.Key(false); err != nil {
			return err
		}
		e.hold(intraCharGap)
	}
	return nil
}

func (e *Engine) hold(units int) {
	if units > 0 {
		e.sleep(time.Duration(units) * e.unit)
	}
}

func (e *Engine) write(s string) {
	_, _ = io.WriteString(e.echo, s)
}
