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
	"time"

	"github.com/bloguetronica/gf2-morse/internal/syncutil"
)

// DefaultTimeout is the timeout applied to every USB transfer.
const DefaultTimeout = 100 * time.Millisecond

// Transport defines the interface for issuing USB requests to a CP2130.
// Implementations own the underlying device handle.
type Transport interface {
	// Control issues one control transfer and returns the number of bytes
	// transferred. The direction is encoded in requestType.
	Control(requestType, request uint8, value, index uint16, data []byte) (int, error)

	// Bulk issues one bulk OUT transfer to the given endpoint and returns
	// the number of bytes written.
	Bulk(endpoint uint8, data []byte) (int, error)

	// SetTimeout sets the timeout used for every subsequent transfer
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport still holds an open device
	IsConnected() bool

	// Close releases the device
	Close() error
}

// TransferKind distinguishes control transfers from bulk transfers.
type TransferKind string

const (
	// TransferControl is a control transfer on endpoint 0.
	TransferControl TransferKind = "control"
	// TransferBulk is a bulk OUT transfer.
	TransferBulk TransferKind = "bulk"
)

// MockCall records a single transfer seen by MockTransport.
type MockCall struct {
	Data        []byte
	Kind        TransferKind
	Value       uint16
	Index       uint16
	RequestType uint8
	Request     uint8
	Endpoint    uint8
}

// MockTransport provides a mock implementation of Transport for testing.
// Control IN requests are answered from per-request responses, and errors
// or short transfers can be injected per request code.
type MockTransport struct {
	responses map[uint8][]byte
	errorMap  map[uint8]error
	shortMap  map[uint8]int
	calls     []MockCall
	timeout   time.Duration
	failAfter int
	failErr   error
	mu        syncutil.RWMutex
	connected bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected: true,
		timeout:   DefaultTimeout,
		responses: make(map[uint8][]byte),
		errorMap:  make(map[uint8]error),
		shortMap:  make(map[uint8]int),
		failAfter: -1,
	}
}

// Control implements Transport interface
func (m *MockTransport) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, errors.New("transport not connected")
	}

	m.calls = append(m.calls, MockCall{
		Kind:        TransferControl,
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Data:        append([]byte(nil), data...),
	})

	if err := m.injectedError(request); err != nil {
		return 0, err
	}

	if requestType&requestTypeIn != 0 {
		if response, exists := m.responses[request]; exists {
			copy(data, response)
		}
	}

	if n, exists := m.shortMap[request]; exists {
		return n, nil
	}
	return len(data), nil
}

// Bulk implements Transport interface. Errors and short writes for bulk
// transfers are keyed by the endpoint number.
func (m *MockTransport) Bulk(endpoint uint8, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, errors.New("transport not connected")
	}

	m.calls = append(m.calls, MockCall{
		Kind:     TransferBulk,
		Endpoint: endpoint,
		Data:     append([]byte(nil), data...),
	})

	if err := m.injectedError(endpoint); err != nil {
		return 0, err
	}
	if n, exists := m.shortMap[endpoint]; exists {
		return n, nil
	}
	return len(data), nil
}

// injectedError must be called with m.mu held
func (m *MockTransport) injectedError(key uint8) error {
	if m.failAfter >= 0 && len(m.calls) > m.failAfter {
		return m.failErr
	}
	if err, exists := m.errorMap[key]; exists {
		return err
	}
	return nil
}

// SetTimeout implements Transport interface
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	m.timeout = timeout
	m.mu.Unlock()
	return nil
}

// IsConnected implements Transport interface
func (m *MockTransport) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Close implements Transport interface
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

// Test helper methods

// SetResponse configures the data returned by a control IN request
func (m *MockTransport) SetResponse(request uint8, response []byte) {
	m.mu.Lock()
	m.responses[request] = append([]byte(nil), response...)
	m.mu.Unlock()
}

// SetError configures an error for a control request code or bulk endpoint
func (m *MockTransport) SetError(key uint8, err error) {
	m.mu.Lock()
	m.errorMap[key] = err
	m.mu.Unlock()
}

// ClearError removes error injection for a request code or endpoint
func (m *MockTransport) ClearError(key uint8) {
	m.mu.Lock()
	delete(m.errorMap, key)
	m.mu.Unlock()
}

// SetShortTransfer makes transfers for key report n bytes moved
func (m *MockTransport) SetShortTransfer(key uint8, n int) {
	m.mu.Lock()
	m.shortMap[key] = n
	m.mu.Unlock()
}

// FailAfter makes every transfer after the first n calls fail with err.
// A negative n disables the injection.
func (m *MockTransport) FailAfter(n int, err error) {
	m.mu.Lock()
	m.failAfter = n
	m.failErr = err
	m.mu.Unlock()
}

// Calls returns a copy of every transfer seen so far
func (m *MockTransport) Calls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// LastCall returns the most recent transfer, or false if none was made
func (m *MockTransport) LastCall() (MockCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// GetCallCount returns how many times a control request was issued
func (m *MockTransport) GetCallCount(request uint8) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.calls {
		if c.Kind == TransferControl && c.Request == request {
			count++
		}
	}
	return count
}

// GetTimeout returns the timeout last set on the transport
func (m *MockTransport) GetTimeout() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeout
}

// Reset clears the call log and every injection
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.errorMap = make(map[uint8]error)
	m.shortMap = make(map[uint8]int)
	m.failAfter = -1
	m.failErr = nil
	m.mu.Unlock()
}
