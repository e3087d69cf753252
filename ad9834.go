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
	"math"

	"periph.io/x/conn/v3/physic"
)

// FreqRegister selects one of the two AD9834 frequency registers.
type FreqRegister uint8

// PhaseRegister selects one of the two AD9834 phase registers.
type PhaseRegister uint8

// AD9834 registers
const (
	FREQ0 FreqRegister = iota
	FREQ1
)

const (
	PHASE0 PhaseRegister = iota
	PHASE1
)

// Register address bits, placed in the top bits of each 16-bit word
const (
	tagFreq0  = 0x40
	tagFreq1  = 0x80
	tagPhase0 = 0xC0
	tagPhase1 = 0xE0
)

// Field widths
const (
	freqMask      = 0x0FFFFFFF // 28 bits
	freqWordMask  = 0x3FFF     // 14 bits per word
	phaseMask     = 0x0FFF     // 12 bits
	amplitudeMask = 0x03FF     // 10 bits
)

// Control words. B28 = 1 so a frequency write takes both 14-bit halves
// back to back, PIN/SW = 1 so the register select pins are used.
var (
	controlSine     = []byte{0x22, 0x00}
	controlTriangle = []byte{0x22, 0x02}
)

func (r FreqRegister) tag() byte {
	if r == FREQ1 {
		return tagFreq1
	}
	return tagFreq0
}

// String returns the register name
func (r FreqRegister) String() string {
	if r == FREQ1 {
		return "FREQ1"
	}
	return "FREQ0"
}

func (r PhaseRegister) tag() byte {
	if r == PHASE1 {
		return tagPhase1
	}
	return tagPhase0
}

// String returns the register name
func (r PhaseRegister) String() string {
	if r == PHASE1 {
		return "PHASE1"
	}
	return "PHASE0"
}

// EncodeFrequency splits a 28-bit frequency word into two tagged 14-bit
// words, least significant word first. Bits above 28 are dropped.
func EncodeFrequency(value uint32, reg FreqRegister) []byte {
	value &= freqMask
	lsw := value & freqWordMask
	msw := (value >> 14) & freqWordMask
	tag := reg.tag()
	return []byte{
		tag | byte(lsw>>8), byte(lsw),
		tag | byte(msw>>8), byte(msw),
	}
}

// EncodePhase builds the tagged phase word. Bits above 12 are dropped.
func EncodePhase(value uint16, reg PhaseRegister) []byte {
	value &= phaseMask
	return []byte{reg.tag() | byte(value>>8), byte(value)}
}

// EncodeAmplitude builds the AD5310 input word for a 10-bit value. The
// power-down bits in the high nibble are always zero.
func EncodeAmplitude(value uint16) []byte {
	value &= amplitudeMask
	return []byte{0x0F & byte(value>>6), byte(value << 2)}
}

// SetFrequency writes a frequency register of the AD9834. Channel 0 must
// be selected.
func (d *Device) SetFrequency(value uint32, reg FreqRegister) error {
	return d.bulkOut("SetFrequency "+reg.String(), WriteCommand(EncodeFrequency(value, reg)))
}

// SetPhase writes a phase register of the AD9834. Channel 0 must be
// selected.
func (d *Device) SetPhase(value uint16, reg PhaseRegister) error {
	return d.bulkOut("SetPhase "+reg.String(), WriteCommand(EncodePhase(value, reg)))
}

// SetAmplitude writes the AD5310 DAC that scales the output. Channel 1
// must be selected.
func (d *Device) SetAmplitude(value uint16) error {
	return d.bulkOut("SetAmplitude", WriteCommand(EncodeAmplitude(value)))
}

// SetSineWave selects a sinusoidal output
func (d *Device) SetSineWave() error {
	return d.bulkOut("SetSineWave", WriteCommand(controlSine))
}

// SetTriangleWave selects a triangular output
func (d *Device) SetTriangleWave() error {
	return d.bulkOut("SetTriangleWave", WriteCommand(controlTriangle))
}

// Setup writes the initial AD9834 control word
func (d *Device) Setup() error {
	return d.bulkOut("Setup", WriteCommand(controlSine))
}

// ClearRegisters zeroes FREQ0, FREQ1, PHASE0 and PHASE1 in one transfer
func (d *Device) ClearRegisters() error {
	payload := make([]byte, 0, 12)
	payload = append(payload, EncodeFrequency(0, FREQ0)...)
	payload = append(payload, EncodeFrequency(0, FREQ1)...)
	payload = append(payload, EncodePhase(0, PHASE0)...)
	payload = append(payload, EncodePhase(0, PHASE1)...)
	return d.bulkOut("ClearRegisters", WriteCommand(payload))
}

// FrequencyWord returns the 28-bit tuning word producing out from a
// master clock of mclk. The result saturates at the largest word.
func FrequencyWord(out, mclk physic.Frequency) uint32 {
	if mclk <= 0 || out <= 0 {
		return 0
	}
	word := math.Round(float64(out) / float64(mclk) * (1 << 28))
	if word >= freqMask {
		return freqMask
	}
	return uint32(word)
}

// PhaseWord returns the 12-bit phase word for an offset in degrees
func PhaseWord(degrees float64) uint16 {
	turns := math.Mod(degrees/360, 1)
	if turns < 0 {
		turns++
	}
	return uint16(math.Round(turns*4096)) & phaseMask
}
