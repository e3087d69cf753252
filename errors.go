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
	"io"
	"strings"
	"syscall"
)

// Device errors
var (
	// ErrInit indicates the USB library could not be initialized
	ErrInit = errors.New("could not initialize libusb")
	// ErrDeviceNotFound indicates no matching CP2130 is attached
	ErrDeviceNotFound = errors.New("could not find device")
	// ErrDeviceBusy indicates the interface is already claimed elsewhere
	ErrDeviceBusy = errors.New("device is currently unavailable")
	// ErrDeviceDisconnected indicates the device stopped responding
	ErrDeviceDisconnected = errors.New("device disconnected")
)

// Transfer errors
var (
	ErrShortTransfer    = errors.New("short transfer")
	ErrReadNotSupported = errors.New("SPI reads are not supported by the bridge connection")
)

// Precondition errors. Each names the command that puts the board into the
// state required for signaling.
var (
	ErrWaveGenStopped = errors.New("waveform generator is stopped and should be running, " +
		"please invoke gf2-start and try again")
	ErrDACEnabled = errors.New("waveform generator DAC is enabled and should be disabled, " +
		"please invoke gf2-dacoff and try again")
)

// TransferError describes a failed or short USB transfer together with the
// request that caused it.
type TransferError struct {
	Err         error        // Underlying error
	Kind        TransferKind // Control or bulk
	Expected    int          // Buffer length
	Actual      int          // Bytes actually moved
	RequestType uint8        // bmRequestType, control only
	Request     uint8        // bRequest, control only
	Endpoint    uint8        // Endpoint address, bulk only
}

func (e *TransferError) Error() string {
	var op string
	if e.Kind == TransferBulk {
		op = fmt.Sprintf("failed bulk OUT transfer to endpoint %d (address 0x%02X)", e.Endpoint&0x0F, e.Endpoint)
	} else {
		op = fmt.Sprintf("failed control transfer (0x%02X, 0x%02X)", e.RequestType, e.Request)
	}
	if errors.Is(e.Err, ErrShortTransfer) {
		return fmt.Sprintf("%s: %v (%d of %d bytes)", op, e.Err, e.Actual, e.Expected)
	}
	return fmt.Sprintf("%s: %v", op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// newControlError creates a transfer error for a control request
func newControlError(requestType, request uint8, expected, actual int, err error) *TransferError {
	if err == nil {
		err = ErrShortTransfer
	}
	return &TransferError{
		Kind:        TransferControl,
		RequestType: requestType,
		Request:     request,
		Expected:    expected,
		Actual:      actual,
		Err:         err,
	}
}

// newBulkError creates a transfer error for a bulk OUT transfer
func newBulkError(endpoint uint8, expected, actual int, err error) *TransferError {
	if err == nil {
		err = ErrShortTransfer
	}
	return &TransferError{
		Kind:     TransferBulk,
		Endpoint: endpoint,
		Expected: expected,
		Actual:   actual,
		Err:      err,
	}
}

// IsDisconnected returns true if the error indicates the device is gone.
// This is distinct from an ordinary TransferError, which a later request
// may still survive.
func IsDisconnected(err error) bool {
	if err == nil {
		return false
	}
	if isDeviceGoneError(err) {
		return true
	}
	switch {
	case errors.Is(err, ErrDeviceDisconnected),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// isDeviceGoneError checks for OS-level errors indicating device disconnection.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}

// IsTransferError reports whether err wraps a *TransferError
func IsTransferError(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}

// formatHexBytes formats a byte slice as space-separated hex values
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	if len(data) > 32 {
		parts := make([]string, 32)
		for i := 0; i < 32; i++ {
			parts[i] = fmt.Sprintf("%02X", data[i])
		}
		return strings.Join(parts, " ") + fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
