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
	"errors"
	"strings"
	"testing"
	"time"

	testutil "github.com/bloguetronica/gf2-morse/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type keyEvent struct {
	at   time.Duration
	down bool
}

// recordingKeyer stamps every key change with the fake clock
type recordingKeyer struct {
	clock  *testutil.FakeClock
	events []keyEvent
}

func (k *recordingKeyer) Key(down bool) error {
	k.events = append(k.events, keyEvent{at: k.clock.Now(), down: down})
	return nil
}

// pulse is one key-down period followed by the silence after it, in units
type pulse struct {
	on  int
	off int
}

// pulses converts the recorded key changes into pulses. The silence after
// the last pulse runs until end.
func (k *recordingKeyer) pulses(t *testing.T, end time.Duration) []pulse {
	t.Helper()
	require.Zero(t, len(k.events)%2, "every key down needs a key up")
	var out []pulse
	for i := 0; i < len(k.events); i += 2 {
		down, up := k.events[i], k.events[i+1]
		require.True(t, down.down)
		require.False(t, up.down)
		next := end
		if i+2 < len(k.events) {
			next = k.events[i+2].at
		}
		out = append(out, pulse{on: int((up.at - down.at) / Unit), off: int((next - up.at) / Unit)})
	}
	return out
}

func signal(t *testing.T, message string) ([]pulse, string, time.Duration) {
	t.Helper()
	clock := testutil.NewFakeClock()
	keyer := &recordingKeyer{clock: clock}
	var echo strings.Builder

	err := NewEngine(keyer, WithEcho(&echo), WithSleep(clock.Sleep)).Signal(message)
	require.NoError(t, err)
	return keyer.pulses(t, clock.Now()), echo.String(), clock.Now()
}

func TestEngine_SOS(t *testing.T) {
	t.Parallel()
	pulses, echo, total := signal(t, "SOS")

	assert.Equal(t, []pulse{
		{1, 1}, {1, 1}, {1, 3},
		{3, 1}, {3, 1}, {3, 3},
		{1, 1}, {1, 1}, {1, 3},
	}, pulses)
	assert.Equal(t, "SOS", echo)
	assert.Equal(t, 30*Unit, total)
}

func TestEngine_EveryCharacter(t *testing.T) {
	t.Parallel()
	for _, r := range Characters() {
		code, _ := Lookup(r)
		pulses, echo, _ := signal(t, string(r))

		require.Len(t, pulses, len(code), "%q", r)
		for i, s := range code.Symbols() {
			assert.Equal(t, s.Units(), pulses[i].on, "%q symbol %d", r, i)
			if i < len(code)-1 {
				assert.Equal(t, intraCharGap, pulses[i].off, "%q symbol %d", r, i)
			}
		}
		assert.Equal(t, intraCharGap+interCharGap, pulses[len(pulses)-1].off, "%q trailing gap", r)
		assert.Equal(t, string(r), echo)
	}
}

func TestEngine_Gaps(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		message string
		echo    string
		offs    []int
	}{
		{name: "adjacent characters", message: "EE", echo: "EE", offs: []int{3, 3}},
		{name: "word gap supersedes character gap", message: "E E", echo: "E E", offs: []int{5, 3}},
		{name: "whitespace run collapses", message: "E \t\r\n  E", echo: "E E", offs: []int{5, 3}},
		{name: "leading whitespace is dropped", message: "\n  E", echo: "E", offs: []int{3}},
		{name: "trailing whitespace keeps one word gap", message: "E  ", echo: "E ", offs: []int{5}},
		{name: "unmapped rune is transparent", message: "E\x01E", echo: "EE", offs: []int{3, 3}},
		{name: "unmapped rune between spaces", message: "E \x01 E", echo: "E E", offs: []int{5, 3}},
		{name: "unmapped rune before leading space", message: "#  E", echo: "E", offs: []int{3}},
		{name: "lower case folds", message: "e e", echo: "E E", offs: []int{5, 3}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pulses, echo, _ := signal(t, tt.message)

			offs := make([]int, len(pulses))
			for i, p := range pulses {
				offs[i] = p.off
			}
			assert.Equal(t, tt.offs, offs)
			assert.Equal(t, tt.echo, echo)
		})
	}
}

func TestEngine_NothingToSignal(t *testing.T) {
	t.Parallel()
	for _, message := range []string{"", "   ", "\x01\x02", "#%"} {
		pulses, echo, total := signal(t, message)
		assert.Empty(t, pulses, "%q", message)
		assert.Empty(t, echo, "%q", message)
		assert.Zero(t, total, "%q", message)
	}
}

func TestEngine_WithUnit(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	keyer := &recordingKeyer{clock: clock}

	err := NewEngine(keyer, WithUnit(10*time.Millisecond), WithSleep(clock.Sleep)).Signal("T")
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond}, clock.Sleeps())
}

type mockKeyer struct {
	mock.Mock
}

func (m *mockKeyer) Key(down bool) error {
	args := m.Called(down)
	return args.Error(0)
}

func TestEngine_StopsOnFailure(t *testing.T) {
	t.Parallel()
	errStall := errors.New("stall")

	t.Run("key down fails on the second pulse", func(t *testing.T) {
		t.Parallel()
		keyer := &mockKeyer{}
		keyer.On("Key", true).Return(nil).Once()
		keyer.On("Key", false).Return(nil).Once()
		keyer.On("Key", true).Return(errStall).Once()
		clock := testutil.NewFakeClock()
		var echo strings.Builder

		err := NewEngine(keyer, WithEcho(&echo), WithSleep(clock.Sleep)).Signal("SOS")

		require.ErrorIs(t, err, errStall)
		assert.Contains(t, err.Error(), `signaling 'S'`)
		keyer.AssertExpectations(t)
		keyer.AssertNumberOfCalls(t, "Key", 3)
		assert.Equal(t, "S", echo.String())
		assert.Equal(t, 2*Unit, clock.Now(), "no wait after the failure")
	})

	t.Run("key up fails in the second character", func(t *testing.T) {
		t.Parallel()
		keyer := &mockKeyer{}
		for i := 0; i < 3; i++ {
			keyer.On("Key", true).Return(nil).Once()
			keyer.On("Key", false).Return(nil).Once()
		}
		keyer.On("Key", true).Return(nil).Once()
		keyer.On("Key", false).Return(errStall).Once()
		clock := testutil.NewFakeClock()

		err := NewEngine(keyer, WithSleep(clock.Sleep)).Signal("SOS")

		require.ErrorIs(t, err, errStall)
		assert.Contains(t, err.Error(), `signaling 'O'`)
		keyer.AssertNumberOfCalls(t, "Key", 8)
	})
}
