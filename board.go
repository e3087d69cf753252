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
	"periph.io/x/conn/v3/gpio"
)

// Board wiring. GPIO.2 drives the AD9834 RESET input, which is active
// high: the generator runs only while GPIO.2 reads low. GPIO.3 drives the
// SLEEP input: the internal DAC is enabled while GPIO.3 reads low.
const (
	pinWaveGenReset = GPIO2
	pinDACSleep     = GPIO3
)

// IsWaveGenEnabled returns true if the waveform generator is running
func (d *Device) IsWaveGenEnabled() (bool, error) {
	level, err := d.GPIO(pinWaveGenReset)
	if err != nil {
		return false, err
	}
	return level == gpio.Low, nil
}

// SetWaveGenEnabled starts or stops the waveform generator
func (d *Device) SetWaveGenEnabled(enabled bool) error {
	return d.SetGPIO(pinWaveGenReset, gpio.Level(!enabled))
}

// IsDACEnabled returns true if the AD9834 internal DAC is enabled
func (d *Device) IsDACEnabled() (bool, error) {
	level, err := d.GPIO(pinDACSleep)
	if err != nil {
		return false, err
	}
	return level == gpio.Low, nil
}

// SetDACEnabled enables or disables the AD9834 internal DAC
func (d *Device) SetDACEnabled(enabled bool) error {
	return d.SetGPIO(pinDACSleep, gpio.Level(!enabled))
}

// Key enables the DAC while down is true. It lets the device drive a
// Morse engine directly.
func (d *Device) Key(down bool) error {
	return d.SetDACEnabled(down)
}

// CheckSignalingReady verifies the board is in the state required for
// keying: the generator running and its DAC disabled. It reads the GPIO
// status once and never writes anything. A failed read is returned as a
// transfer error, never as a precondition error.
func (d *Device) CheckSignalingReady() error {
	status, err := d.GPIOs()
	if err != nil {
		return err
	}
	if status.Level(pinWaveGenReset) == gpio.High {
		return ErrWaveGenStopped
	}
	if status.Level(pinDACSleep) == gpio.Low {
		return ErrDACEnabled
	}
	return nil
}
