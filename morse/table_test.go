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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want Code
		r    rune
		ok   bool
	}{
		{name: "upper", r: 'A', want: ".-", ok: true},
		{name: "lower folds", r: 'a', want: ".-", ok: true},
		{name: "digit", r: '0', want: "-----", ok: true},
		{name: "dollar", r: '$', want: "...-..-", ok: true},
		{name: "apostrophe", r: '\'', want: ".----.", ok: true},
		{name: "underscore", r: '_', want: "..--.-", ok: true},
		{name: "hash unmapped", r: '#', ok: false},
		{name: "control unmapped", r: 0x07, ok: false},
		{name: "space has no code", r: ' ', ok: false},
		{name: "non-ASCII unmapped", r: 'é', ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Lookup(tt.r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCharacters(t *testing.T) {
	t.Parallel()
	chars := Characters()
	assert.Len(t, chars, 26+10+18)

	for _, r := range chars {
		code, ok := Lookup(r)
		require.True(t, ok, "%q", r)
		assert.NotEmpty(t, code)
		for _, s := range code.Symbols() {
			assert.Contains(t, []Symbol{Dot, Dash}, s, "%q has an invalid symbol", r)
		}
		assert.Equal(t, r, Fold(r), "table keys are already folded")
	}
}

func TestFold(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 'Q', Fold('q'))
	assert.Equal(t, 'Q', Fold('Q'))
	assert.Equal(t, '7', Fold('7'))
	assert.Equal(t, 'ß', Fold('ß'))
}

func TestSymbol_Units(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, Dot.Units())
	assert.Equal(t, 3, Dash.Units())
}

func TestIsWordBreak(t *testing.T) {
	t.Parallel()
	for _, r := range " \t\r\n" {
		assert.True(t, isWordBreak(r), "%q", r)
	}
	for _, r := range "A.\x00\v" {
		assert.False(t, isWordBreak(r), "%q", r)
	}
}
