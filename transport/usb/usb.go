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

// Package usb provides the libusb transport for CP2130-based GF2 boards
package usb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gf2 "github.com/bloguetronica/gf2-morse"
	"github.com/google/gousb"
)

const (
	configNum    = 1
	interfaceNum = 0
	altSetting   = 0
	bulkOutEP    = 1
)

// DeviceInfo describes an attached GF2 board
type DeviceInfo struct {
	Serial  string
	Bus     int
	Address int
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s (bus %03d, address %03d)", d.Serial, d.Bus, d.Address)
}

// Transport implements the gf2.Transport interface over libusb. It holds
// the claimed interface for its whole lifetime; Close releases the
// interface, lets libusb reattach any kernel driver it detached, and
// closes the device and the library context.
type Transport struct {
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	out       *gousb.OutEndpoint
	serial    string
	timeout   time.Duration
	connected bool
}

var _ gf2.Transport = (*Transport)(nil)

// newContext initializes libusb. gousb panics when libusb_init fails.
func newContext() (ctx *gousb.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", gf2.ErrInit, r)
		}
	}()
	return gousb.NewContext(), nil
}

func isGF2(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == gousb.ID(gf2.VendorID) && desc.Product == gousb.ID(gf2.ProductID)
}

// Open opens the first GF2 board, or the one whose serial number matches
// serial when it is not empty, and claims its interface.
func Open(serial string) (*Transport, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, err
	}

	dev, err := openDevice(ctx, serial)
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}

	t := &Transport{
		ctx:     ctx,
		dev:     dev,
		serial:  serial,
		timeout: gf2.DefaultTimeout,
	}
	if err := t.claim(); err != nil {
		_ = dev.Close()
		_ = ctx.Close()
		return nil, err
	}
	t.connected = true
	gf2.Debugf("opened GF2 %s", dev)
	return t, nil
}

// openDevice opens every matching device and keeps the first whose serial
// matches, closing the rest.
func openDevice(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(isGF2)
	if err != nil && len(devs) == 0 {
		if errors.Is(err, gousb.ErrorAccess) {
			return nil, fmt.Errorf("%w: %v", gf2.ErrDeviceBusy, err)
		}
		return nil, fmt.Errorf("%w: %v", gf2.ErrDeviceNotFound, err)
	}

	var found *gousb.Device
	for _, dev := range devs {
		if found == nil && matchesSerial(dev, serial) {
			found = dev
			continue
		}
		_ = dev.Close()
	}
	if found == nil {
		if serial != "" {
			return nil, fmt.Errorf("%w: no board with serial number %q", gf2.ErrDeviceNotFound, serial)
		}
		return nil, gf2.ErrDeviceNotFound
	}
	return found, nil
}

func matchesSerial(dev *gousb.Device, serial string) bool {
	if serial == "" {
		return true
	}
	sn, err := dev.SerialNumber()
	if err != nil {
		gf2.Debugf("reading serial number of %s: %v", dev, err)
		return false
	}
	return sn == serial
}

// claim detaches any kernel driver and claims interface 0
func (t *Transport) claim() error {
	if err := t.dev.SetAutoDetach(true); err != nil {
		gf2.Debugf("auto detach not supported: %v", err)
	}
	t.dev.ControlTimeout = t.timeout

	cfg, err := t.dev.Config(configNum)
	if err != nil {
		return classifyClaimError(err)
	}
	intf, err := cfg.Interface(interfaceNum, altSetting)
	if err != nil {
		_ = cfg.Close()
		return classifyClaimError(err)
	}
	out, err := intf.OutEndpoint(bulkOutEP)
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		return fmt.Errorf("failed to open bulk OUT endpoint %d: %w", bulkOutEP, err)
	}
	t.cfg = cfg
	t.intf = intf
	t.out = out
	return nil
}

// classifyClaimError maps a claim failure to a gf2 error kind. gousb does
// not always wrap the libusb error, so the message is checked as well.
func classifyClaimError(err error) error {
	if errors.Is(err, gousb.ErrorBusy) || strings.Contains(err.Error(), gousb.ErrorBusy.Error()) {
		return fmt.Errorf("%w: %v", gf2.ErrDeviceBusy, err)
	}
	if isNoDevice(err) {
		return fmt.Errorf("%w: %v", gf2.ErrDeviceDisconnected, err)
	}
	return fmt.Errorf("failed to claim interface %d: %w", interfaceNum, err)
}

func isNoDevice(err error) bool {
	return errors.Is(err, gousb.ErrorNoDevice) || errors.Is(err, gousb.TransferNoDevice)
}

// wrapTransferError marks device-gone failures so callers can tell a
// disconnect from an ordinary failed request.
func (t *Transport) wrapTransferError(err error) error {
	if err == nil {
		return nil
	}
	if isNoDevice(err) {
		t.connected = false
		return fmt.Errorf("%w: %v", gf2.ErrDeviceDisconnected, err)
	}
	return err
}

// Control implements gf2.Transport
func (t *Transport) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	if t.dev == nil {
		return 0, gf2.ErrDeviceDisconnected
	}
	n, err := t.dev.Control(requestType, request, value, index, data)
	return n, t.wrapTransferError(err)
}

// Bulk implements gf2.Transport. Only the bulk OUT endpoint is available.
func (t *Transport) Bulk(endpoint uint8, data []byte) (int, error) {
	if t.out == nil {
		return 0, gf2.ErrDeviceDisconnected
	}
	if int(endpoint&0x0F) != bulkOutEP {
		return 0, fmt.Errorf("unsupported bulk endpoint 0x%02X", endpoint)
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.out.WriteContext(ctx, data)
	return n, t.wrapTransferError(err)
}

// SetTimeout implements gf2.Transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("invalid timeout %v", timeout)
	}
	t.timeout = timeout
	if t.dev != nil {
		t.dev.ControlTimeout = timeout
	}
	return nil
}

// IsConnected implements gf2.Transport
func (t *Transport) IsConnected() bool {
	return t.connected
}

// Serial returns the serial number filter the transport was opened with
func (t *Transport) Serial() string {
	return t.serial
}

// Close implements gf2.Transport. It is safe to call more than once.
func (t *Transport) Close() error {
	var errs []error
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
		t.out = nil
	}
	if t.cfg != nil {
		if err := t.cfg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release config: %w", err))
		}
		t.cfg = nil
	}
	if t.dev != nil {
		if err := t.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close device: %w", err))
		}
		t.dev = nil
	}
	if t.ctx != nil {
		if err := t.ctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close libusb context: %w", err))
		}
		t.ctx = nil
	}
	t.connected = false
	return errors.Join(errs...)
}

// List returns every attached GF2 board
func List() ([]DeviceInfo, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ctx.Close() }()

	devs, err := ctx.OpenDevices(isGF2)
	defer func() {
		for _, dev := range devs {
			_ = dev.Close()
		}
	}()
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, dev := range devs {
		sn, snErr := dev.SerialNumber()
		if snErr != nil {
			gf2.Debugf("reading serial number of %s: %v", dev, snErr)
			continue
		}
		infos = append(infos, DeviceInfo{
			Serial:  sn,
			Bus:     dev.Desc.Bus,
			Address: dev.Desc.Address,
		})
	}
	return infos, nil
}
