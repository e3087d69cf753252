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

package testing

import (
	"time"

	"github.com/bloguetronica/gf2-morse/internal/syncutil"
)

// FakeClock is a virtual clock that only advances when Sleep is called, so
// timing-heavy code runs instantly and deterministically in tests.
type FakeClock struct {
	sleeps []time.Duration
	now    time.Duration
	mu     syncutil.Mutex
}

// NewFakeClock creates a clock at time zero
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// Sleep advances the clock by d
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
}

// Now returns the time elapsed since the clock was created
func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleeps returns every requested sleep in order
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}
