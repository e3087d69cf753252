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

// USB identifiers of the CP2130 on the GF2 board
const (
	VendorID  = 0x10C4
	ProductID = 0x8BF1
)

// bmRequestType values for vendor requests to the device
const (
	requestTypeOut = 0x40
	requestTypeIn  = 0xC0
)

// CP2130 vendor request codes
const (
	reqReset            = 0x10
	reqGetGPIOValues    = 0x20
	reqSetGPIOValues    = 0x21
	reqSetGPIOChipSel   = 0x25
	reqSetSPIWord       = 0x31
	reqSetSPIDelay      = 0x33
	reqGetLockByte      = 0x6E
	reqSetLockByte      = 0x6F
	lockByteWriteValue  = 0xA5F1
	endpointBulkOut     = 0x01
	writeCommandOpcode  = 0x01
	writeCommandHdrSize = 8
)

// Chip select control flags for reqSetGPIOChipSel
const (
	csDisable   = 0x00
	csExclusive = 0x02 // Enables this channel and disables all others
)

// spiWordFixed is OR'd into the SPI control word: push-pull CS, 12 MHz clock
const spiWordFixed = 0x08

// Sizes of the fixed control payloads
const (
	spiDelayPayloadSize = 8
	gpioStatusSize      = 2
	gpioWriteSize       = 4
	lockBytesSize       = 2
)
