// Copyright 2026 The go-sdspi Authors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spi drives an SD card through a kernel SPI device.
//
// The card's chip-select line is driven by a dedicated GPIO rather than the
// controller's hardware chip-select, because the protocol requires the line
// to stay asserted across many byte exchanges while the kernel toggles the
// hardware line around each transaction.
package spi

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	sdspi "github.com/tanvir-commits/go-sdspi"
)

const (
	// defaultFreq stays within the 100-400 kHz identification-mode window,
	// so the same bus configuration works for bring-up and data transfer.
	defaultFreq = 400 * physic.KiloHertz
	mode        = spi.Mode0
)

// Transport implements the sdspi.Transport interface on top of a periph.io
// SPI port and a chip-select GPIO.
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	cs       gpio.PinOut
	csErr    error
	portName string
}

var _ sdspi.Transport = (*Transport)(nil)

type config struct {
	freq physic.Frequency
}

// Option configures the transport at construction time.
type Option func(*config)

// WithFrequency overrides the default bus clock.
func WithFrequency(freq physic.Frequency) Option {
	return func(c *config) {
		c.freq = freq
	}
}

// New opens an SPI port (for example "/dev/spidev0.0" or "SPI0.0") and a
// chip-select GPIO by name (for example "GPIO22"). The chip-select line is
// raised immediately so the card sees a deselected bus before bring-up.
func New(portName, csName string, opts ...Option) (*Transport, error) {
	cfg := config{freq: defaultFreq}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	cs := gpioreg.ByName(csName)
	if cs == nil {
		return nil, fmt.Errorf("chip-select pin %q not found", csName)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to raise chip-select %s: %w", csName, err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(cfg.freq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	return &Transport{
		port:     port,
		conn:     conn,
		cs:       cs,
		portName: portName,
	}, nil
}

// Transfer exchanges one byte on the bus. A chip-select failure recorded by
// Select or Deselect is surfaced here, since those cannot return errors.
func (t *Transport) Transfer(out byte) (byte, error) {
	if t.csErr != nil {
		err := t.csErr
		t.csErr = nil
		return 0, err
	}
	var rx [1]byte
	if err := t.conn.Tx([]byte{out}, rx[:]); err != nil {
		return 0, fmt.Errorf("SPI transfer on %s: %w", t.portName, err)
	}
	return rx[0], nil
}

// Select asserts the chip-select line.
func (t *Transport) Select() {
	if err := t.cs.Out(gpio.Low); err != nil && t.csErr == nil {
		t.csErr = fmt.Errorf("failed to assert chip-select: %w", err)
	}
}

// Deselect releases the chip-select line.
func (t *Transport) Deselect() {
	if err := t.cs.Out(gpio.High); err != nil && t.csErr == nil {
		t.csErr = fmt.Errorf("failed to release chip-select: %w", err)
	}
}

// Close releases the chip-select line and closes the SPI port.
func (t *Transport) Close() error {
	_ = t.cs.Out(gpio.High)
	if t.port != nil {
		if err := t.port.Close(); err != nil {
			return fmt.Errorf("SPI close failed: %w", err)
		}
	}
	return nil
}
