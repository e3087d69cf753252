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

// Package morse keys text as International Morse code through any on/off
// output.
package morse

import "unicode"

// Symbol is one element of a character code.
type Symbol byte

// Code symbols
const (
	Dot  Symbol = '.'
	Dash Symbol = '-'
)

// Units returns how long the symbol holds the key down
func (s Symbol) Units() int {
	if s == Dash {
		return 3
	}
	return 1
}

// Code is the dot/dash sequence of a character, such as ".-" for A.
type Code string

// Symbols returns the code as a slice of symbols
func (c Code) Symbols() []Symbol {
	return []Symbol(c)
}

// codes is never modified after initialization. Both the echo and the
// keying paths read it through Lookup.
var codes = map[rune]Code{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'!':  "-.-.--",
	'"':  ".-..-.",
	'$':  "...-..-",
	'&':  ".-...",
	'\'': ".----.",
	'(':  "-.--.",
	')':  "-.--.-",
	'+':  ".-.-.",
	',':  "--..--",
	'-':  "-....-",
	'.':  ".-.-.-",
	'/':  "-..-.",
	':':  "---...",
	';':  "-.-.-.",
	'=':  "-...-",
	'?':  "..--..",
	'@':  ".--.-.",
	'_':  "..--.-",
}

// Fold maps a rune to the form used as a table key
func Fold(r rune) rune {
	if r > unicode.MaxASCII {
		return r
	}
	return unicode.ToUpper(r)
}

// Lookup returns the code of r, folding letter case first
func Lookup(r rune) (Code, bool) {
	c, ok := codes[Fold(r)]
	return c, ok
}

// Characters returns every character in the table, in no particular order
func Characters() []rune {
	chars := make([]rune, 0, len(codes))
	for r := range codes {
		chars = append(chars, r)
	}
	return chars
}

// isWordBreak reports whether r separates words
func isWordBreak(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
