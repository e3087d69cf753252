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

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// SPIConn exposes one bridge channel as a periph.io spi.Conn so that
// existing SPI device code can write through the CP2130. Every
// transaction first selects the channel's chip select.
//
// The bridge write command cannot return data, so reads are rejected.
type SPIConn struct {
	dev     *Device
	channel uint8
}

var _ spi.Conn = (*SPIConn)(nil)

// SPI returns a connection writing to channel
func (d *Device) SPI(channel uint8) *SPIConn {
	return &SPIConn{dev: d, channel: channel}
}

// String implements conn.Resource
func (c *SPIConn) String() string {
	return fmt.Sprintf("cp2130-spi%d", c.channel)
}

// Duplex implements conn.Conn
func (*SPIConn) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn. r must be empty.
func (c *SPIConn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return ErrReadNotSupported
	}
	if err := c.dev.SelectCS(c.channel); err != nil {
		return err
	}
	return c.dev.WriteSPI(w)
}

// TxPackets implements spi.Conn. Each packet is sent as its own write
// command; packets carrying a read buffer are rejected before anything is
// sent.
func (c *SPIConn) TxPackets(p []spi.Packet) error {
	for i := range p {
		if len(p[i].R) != 0 {
			return ErrReadNotSupported
		}
	}
	if err := c.dev.SelectCS(c.channel); err != nil {
		return err
	}
	for i := range p {
		if err := c.dev.WriteSPI(p[i].W); err != nil {
			return err
		}
	}
	return nil
}
