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

	"periph.io/x/conn/v3/gpio"
)

// Pin identifies one of the CP2130 GPIO pins wired on the GF2 board.
type Pin uint8

// GPIO pins used by the GF2
const (
	GPIO2 Pin = 2 // AD9834 RESET
	GPIO3 Pin = 3 // AD9834 SLEEP (internal DAC enable, active low)
	GPIO4 Pin = 4
	GPIO5 Pin = 5
	GPIO6 Pin = 6
)

// pinBit locates a pin in the 2-byte GPIO status word. The same position
// is used for the data and mask words of a write.
type pinBit struct {
	index int
	mask  byte
}

// The mapping is not contiguous: GPIO.2-4 live in bits 5-7 of byte 1,
// GPIO.5 and GPIO.6 in bits 0 and 2 of byte 0.
var pinBits = map[Pin]pinBit{
	GPIO2: {index: 1, mask: 0x20},
	GPIO3: {index: 1, mask: 0x40},
	GPIO4: {index: 1, mask: 0x80},
	GPIO5: {index: 0, mask: 0x01},
	GPIO6: {index: 0, mask: 0x04},
}

// String returns the CP2130 pin name
func (p Pin) String() string {
	return fmt.Sprintf("GPIO.%d", uint8(p))
}

func (p Pin) bit() (pinBit, error) {
	b, ok := pinBits[p]
	if !ok {
		return pinBit{}, fmt.Errorf("unsupported pin %s", p)
	}
	return b, nil
}

// GPIOStatus is the raw 2-byte GPIO status word returned by the bridge
type GPIOStatus [gpioStatusSize]byte

// Level returns the level of pin, or gpio.Low for an unknown pin
func (s GPIOStatus) Level(pin Pin) gpio.Level {
	b, err := pin.bit()
	if err != nil {
		return gpio.Low
	}
	return s[b.index]&b.mask != 0
}

// GPIOs reads the levels of every GPIO pin
func (d *Device) GPIOs() (GPIOStatus, error) {
	var status GPIOStatus
	if err := d.controlIn("GetGPIOs", reqGetGPIOValues, status[:]); err != nil {
		return GPIOStatus{}, err
	}
	return status, nil
}

// GPIO reads the level of a single pin
func (d *Device) GPIO(pin Pin) (gpio.Level, error) {
	if _, err := pin.bit(); err != nil {
		return gpio.Low, err
	}
	status, err := d.GPIOs()
	if err != nil {
		return gpio.Low, err
	}
	return status.Level(pin), nil
}

// SetGPIO drives a single pin. Only that pin's mask bit is set, so every
// other pin keeps its level.
func (d *Device) SetGPIO(pin Pin, level gpio.Level) error {
	buf, err := EncodeGPIOWrite(pin, level)
	if err != nil {
		return err
	}
	return d.controlOut("SetGPIO "+pin.String(), reqSetGPIOValues, 0x0000, buf)
}

// EncodeGPIOWrite builds the [dataLo, dataHi, maskLo, maskHi] payload
// that changes pin alone.
func EncodeGPIOWrite(pin Pin, level gpio.Level) ([]byte, error) {
	b, err := pin.bit()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, gpioWriteSize)
	if level {
		buf[b.index] = b.mask
	}
	buf[2+b.index] = b.mask
	return buf, nil
}
