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

// Package testing provides a wire-level CP2130 simulator for tests. It
// implements the gf2.Transport method set without importing gf2, so the
// root package tests can use it too.
package testing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/bloguetronica/gf2-morse/internal/syncutil"
)

// Mirrors of the CP2130 protocol constants, kept here to avoid an import cycle
const (
	RequestTypeOut = 0x40
	RequestTypeIn  = 0xC0

	ReqReset          = 0x10
	ReqGetGPIOValues  = 0x20
	ReqSetGPIOValues  = 0x21
	ReqSetGPIOChipSel = 0x25
	ReqSetSPIWord     = 0x31
	ReqSetSPIDelay    = 0x33
	ReqGetLockByte    = 0x6E
	ReqSetLockByte    = 0x6F

	EndpointBulkOut = 0x01
)

// Bits of the GPIO status word used by the GF2 board
const (
	GPIO2Bit = 0x20 // byte 1
	GPIO3Bit = 0x40 // byte 1
)

// DefaultGPIO is the status word of a board after gf2-start and
// gf2-dacoff: generator running (GPIO.2 low), DAC disabled (GPIO.3 high).
var DefaultGPIO = [2]byte{0x00, GPIO3Bit}

var (
	// ErrInjected is returned by injected failures
	ErrInjected = errors.New("injected transfer failure")
	// ErrMalformed is returned for requests the real bridge would stall on
	ErrMalformed = errors.New("malformed request")
)

// GPIOWrite records one GPIO write request
type GPIOWrite struct {
	At   time.Duration
	Data [2]byte
	Mask [2]byte
}

// SPIWrite records one payload written through the bulk write command
type SPIWrite struct {
	Payload []byte
	Channel int // -1 when no chip select was enabled
}

// ChannelConfig holds the per-channel SPI state
type ChannelConfig struct {
	Word     byte
	Delay    [7]byte
	Selected bool
}

// VirtualCP2130 simulates a CP2130 bridge at the USB request level.
type VirtualCP2130 struct {
	clock       func() time.Duration
	GPIOWrites  []GPIOWrite
	SPIWrites   []SPIWrite
	channels    [11]ChannelConfig
	failGPIO    map[int]error
	gpio        [2]byte
	initialGPIO [2]byte
	lock        [2]byte
	transfers   int
	resets      int
	timeout     time.Duration
	mu          syncutil.Mutex
	connected   bool
	gone        bool
}

// NewVirtualCP2130 creates a simulator in the ready-to-signal state
func NewVirtualCP2130() *VirtualCP2130 {
	v := &VirtualCP2130{
		initialGPIO: DefaultGPIO,
		failGPIO:    make(map[int]error),
		lock:        [2]byte{0xFF, 0xFF},
		connected:   true,
		timeout:     100 * time.Millisecond,
	}
	v.powerOn()
	return v
}

// powerOn must be called with v.mu held or before v is shared. The OTP
// lock bytes survive a reset.
func (v *VirtualCP2130) powerOn() {
	v.gpio = v.initialGPIO
	v.channels = [11]ChannelConfig{}
}

// SetGPIOState sets the status word, also used after a reset
func (v *VirtualCP2130) SetGPIOState(state [2]byte) {
	v.mu.Lock()
	v.gpio = state
	v.initialGPIO = state
	v.mu.Unlock()
}

// GPIOState returns the current status word
func (v *VirtualCP2130) GPIOState() [2]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gpio
}

// SetClock sets the time source stamped on GPIO writes
func (v *VirtualCP2130) SetClock(clock func() time.Duration) {
	v.mu.Lock()
	v.clock = clock
	v.mu.Unlock()
}

// FailGPIOWrite makes the n-th GPIO write (1-based) fail with err
func (v *VirtualCP2130) FailGPIOWrite(n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	v.mu.Lock()
	v.failGPIO[n] = err
	v.mu.Unlock()
}

// Unplug makes every following transfer fail as if the device were removed
func (v *VirtualCP2130) Unplug() {
	v.mu.Lock()
	v.gone = true
	v.mu.Unlock()
}

// Channel returns the SPI state of a channel
func (v *VirtualCP2130) Channel(ch int) ChannelConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channels[ch]
}

// OTPLocked reports whether the lock bytes were cleared
func (v *VirtualCP2130) OTPLocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lock == [2]byte{}
}

// Resets returns how many reset requests were received
func (v *VirtualCP2130) Resets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resets
}

// Transfers returns how many transfers were attempted
func (v *VirtualCP2130) Transfers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transfers
}

// GPIOWriteCount returns how many GPIO writes were received
func (v *VirtualCP2130) GPIOWriteCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.GPIOWrites)
}

// Control implements the transport contract
func (v *VirtualCP2130) Control(requestType, request uint8, value, _ uint16, data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transfers++
	if v.gone {
		v.connected = false
		return 0, syscall.ENODEV
	}

	switch {
	case requestType == RequestTypeIn && request == ReqGetGPIOValues:
		return copy(data, v.gpio[:]), nil
	case requestType == RequestTypeIn && request == ReqGetLockByte:
		return copy(data, v.lock[:]), nil
	case requestType == RequestTypeOut:
		return v.controlOut(request, value, data)
	default:
		return 0, fmt.Errorf("%w: request type 0x%02X request 0x%02X", ErrMalformed, requestType, request)
	}
}

// controlOut must be called with v.mu held
func (v *VirtualCP2130) controlOut(request uint8, value uint16, data []byte) (int, error) {
	switch request {
	case ReqReset:
		if len(data) != 0 {
			return 0, ErrMalformed
		}
		v.resets++
		v.powerOn()
		return 0, nil
	case ReqSetGPIOValues:
		return v.setGPIO(data)
	case ReqSetGPIOChipSel:
		if len(data) != 2 || int(data[0]) >= len(v.channels) {
			return 0, ErrMalformed
		}
		switch data[1] {
		case 0x00:
			v.channels[data[0]].Selected = false
		case 0x01:
			v.channels[data[0]].Selected = true
		case 0x02:
			for i := range v.channels {
				v.channels[i].Selected = i == int(data[0])
			}
		default:
			return 0, ErrMalformed
		}
		return len(data), nil
	case ReqSetSPIWord:
		if len(data) != 2 || int(data[0]) >= len(v.channels) {
			return 0, ErrMalformed
		}
		v.channels[data[0]].Word = data[1]
		return len(data), nil
	case ReqSetSPIDelay:
		if len(data) != 8 || int(data[0]) >= len(v.channels) {
			return 0, ErrMalformed
		}
		copy(v.channels[data[0]].Delay[:], data[1:])
		return len(data), nil
	case ReqSetLockByte:
		if len(data) != 2 || value != 0xA5F1 {
			return 0, ErrMalformed
		}
		// OTP bits can only be cleared
		v.lock[0] &= data[0]
		v.lock[1] &= data[1]
		return len(data), nil
	default:
		return 0, fmt.Errorf("%w: request 0x%02X", ErrMalformed, request)
	}
}

// setGPIO must be called with v.mu held
func (v *VirtualCP2130) setGPIO(data []byte) (int, error) {
	if len(data) != 4 {
		return 0, ErrMalformed
	}
	write := GPIOWrite{
		Data: [2]byte{data[0], data[1]},
		Mask: [2]byte{data[2], data[3]},
	}
	if v.clock != nil {
		write.At = v.clock()
	}
	v.GPIOWrites = append(v.GPIOWrites, write)
	if err, ok := v.failGPIO[len(v.GPIOWrites)]; ok {
		return 0, err
	}
	for i := range v.gpio {
		v.gpio[i] = v.gpio[i]&^write.Mask[i] | write.Data[i]&write.Mask[i]
	}
	return len(data), nil
}

// Bulk implements the transport contract
func (v *VirtualCP2130) Bulk(endpoint uint8, data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transfers++
	if v.gone {
		v.connected = false
		return 0, syscall.ENODEV
	}
	if endpoint != EndpointBulkOut {
		return 0, fmt.Errorf("%w: endpoint 0x%02X", ErrMalformed, endpoint)
	}
	if len(data) < 8 || data[2] != 0x01 {
		return 0, fmt.Errorf("%w: not a write command", ErrMalformed)
	}
	length := binary.LittleEndian.Uint32(data[4:8])
	if int(length) != len(data)-8 {
		return 0, fmt.Errorf("%w: length field %d for %d payload bytes", ErrMalformed, length, len(data)-8)
	}

	channel := -1
	for i := range v.channels {
		if v.channels[i].Selected {
			channel = i
			break
		}
	}
	v.SPIWrites = append(v.SPIWrites, SPIWrite{
		Channel: channel,
		Payload: append([]byte(nil), data[8:]...),
	})
	return len(data), nil
}

// SetTimeout implements the transport contract
func (v *VirtualCP2130) SetTimeout(timeout time.Duration) error {
	v.mu.Lock()
	v.timeout = timeout
	v.mu.Unlock()
	return nil
}

// Timeout returns the timeout set by the device
func (v *VirtualCP2130) Timeout() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timeout
}

// IsConnected implements the transport contract
func (v *VirtualCP2130) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// Close implements the transport contract
func (v *VirtualCP2130) Close() error {
	v.mu.Lock()
	v.connected = false
	v.mu.Unlock()
	return nil
}
