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
	"errors"
	"fmt"
	"time"
)

// Option configures a Device
type Option func(*Device) error

// WithErrors makes the device record failures into errs instead of a
// private accumulator, so a caller can share one accumulator for a run.
func WithErrors(errs *Errors) Option {
	return func(d *Device) error {
		if errs == nil {
			return errors.New("error accumulator must not be nil")
		}
		d.errs = errs
		return nil
	}
}

// WithTimeout overrides the transfer timeout set on the transport
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		d.timeout = timeout
		return nil
	}
}

// Device represents a GF2 board: a CP2130 bridge with an AD9834 waveform
// generator on SPI channel 0 and an AD5310 amplitude DAC on channel 1.
//
// Thread Safety: Device is NOT thread-safe. Every method issues blocking
// USB transfers and must be called from a single goroutine.
type Device struct {
	transport Transport
	errs      *Errors
	timeout   time.Duration
}

// New creates a new GF2 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, errors.New("transport must not be nil")
	}
	device := &Device{
		transport: transport,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	if device.errs == nil {
		device.errs = NewErrors()
	}

	if err := transport.SetTimeout(device.timeout); err != nil {
		return nil, fmt.Errorf("failed to set transport timeout: %w", err)
	}
	return device, nil
}

// Errors returns the accumulator every failed operation is recorded into
func (d *Device) Errors() *Errors {
	return d.errs
}

// Disconnected returns true if the device has stopped responding
func (d *Device) Disconnected() bool {
	return !d.transport.IsConnected() || d.errs.Disconnected()
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Close closes the underlying transport
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// controlOut issues a vendor OUT control request carrying data
func (d *Device) controlOut(op string, request uint8, value uint16, data []byte) error {
	Debugf("%s: control OUT 0x%02X value=0x%04X data=%s", op, request, value, formatHexBytes(data))
	n, err := d.transport.Control(requestTypeOut, request, value, 0x0000, data)
	if err != nil || n != len(data) {
		return d.fail(op, newControlError(requestTypeOut, request, len(data), n, err))
	}
	return nil
}

// controlIn issues a vendor IN control request and fills buf
func (d *Device) controlIn(op string, request uint8, buf []byte) error {
	n, err := d.transport.Control(requestTypeIn, request, 0x0000, 0x0000, buf)
	if err != nil || n != len(buf) {
		return d.fail(op, newControlError(requestTypeIn, request, len(buf), n, err))
	}
	Debugf("%s: control IN 0x%02X data=%s", op, request, formatHexBytes(buf))
	return nil
}

// bulkOut writes data to the bulk OUT endpoint
func (d *Device) bulkOut(op string, data []byte) error {
	Debugf("%s: bulk OUT 0x%02X data=%s", op, endpointBulkOut, formatHexBytes(data))
	n, err := d.transport.Bulk(endpointBulkOut, data)
	if err != nil || n != len(data) {
		return d.fail(op, newBulkError(endpointBulkOut, len(data), n, err))
	}
	return nil
}

// fail records err and returns it
func (d *Device) fail(op string, err error) error {
	Debugf("%s failed: %v", op, err)
	d.errs.Record(op, err)
	return err
}
