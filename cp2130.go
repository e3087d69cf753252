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
	"encoding/binary"

	"periph.io/x/conn/v3/spi"
)

// ConfigureSPIMode sets the clock polarity and phase of an SPI channel.
// Only the CPOL and CPHA bits of mode are used; the channel always runs
// push-pull at 12 MHz.
func (d *Device) ConfigureSPIMode(channel uint8, mode spi.Mode) error {
	return d.controlOut("ConfigureSPIMode", reqSetSPIWord, 0x0000, EncodeSPIMode(channel, mode))
}

// EncodeSPIMode builds the SPI word payload for a channel
func EncodeSPIMode(channel uint8, mode spi.Mode) []byte {
	var word byte = spiWordFixed
	if mode&spi.Mode1 != 0 { // CPHA
		word |= 0x20
	}
	if mode&spi.Mode2 != 0 { // CPOL
		word |= 0x10
	}
	return []byte{channel, word}
}

// SelectCS enables the chip select of channel and disables all the others
func (d *Device) SelectCS(channel uint8) error {
	return d.controlOut("SelectCS", reqSetGPIOChipSel, 0x0000, []byte{channel, csExclusive})
}

// DisableCS disables the chip select of channel, leaving the others alone
func (d *Device) DisableCS(channel uint8) error {
	return d.controlOut("DisableCS", reqSetGPIOChipSel, 0x0000, []byte{channel, csDisable})
}

// DisableSPIDelays zeroes the inter-byte, post-assert and pre-deassert
// delays of channel and clears its CS toggle flag.
func (d *Device) DisableSPIDelays(channel uint8) error {
	buf := make([]byte, spiDelayPayloadSize)
	buf[0] = channel
	return d.controlOut("DisableSPIDelays", reqSetSPIDelay, 0x0000, buf)
}

// LockOTP locks the one-time programmable ROM of the bridge. This cannot
// be undone.
func (d *Device) LockOTP() error {
	return d.controlOut("LockOTP", reqSetLockByte, lockByteWriteValue, make([]byte, lockBytesSize))
}

// IsOTPLocked returns true if both lock bytes read back as zero
func (d *Device) IsOTPLocked() (bool, error) {
	buf := make([]byte, lockBytesSize)
	if err := d.controlIn("IsOTPLocked", reqGetLockByte, buf); err != nil {
		return false, err
	}
	return buf[0] == 0x00 && buf[1] == 0x00, nil
}

// Reset resets the bridge, which resets the whole board along with every
// setting made before.
func (d *Device) Reset() error {
	return d.controlOut("Reset", reqReset, 0x0000, nil)
}

// WriteSPI sends payload on the currently selected SPI channel
func (d *Device) WriteSPI(payload []byte) error {
	return d.bulkOut("WriteSPI", WriteCommand(payload))
}

// WriteCommand wraps payload in the CP2130 bulk write command header:
// two reserved bytes, the write opcode, a reserved byte and the payload
// length as a little-endian uint32.
func WriteCommand(payload []byte) []byte {
	buf := make([]byte, writeCommandHdrSize+len(payload))
	buf[2] = writeCommandOpcode
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload))) //nolint:gosec // payloads are a few bytes
	copy(buf[writeCommandHdrSize:], payload)
	return buf
}
