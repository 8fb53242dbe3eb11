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

// Package buspirate drives an SD card through a Bus Pirate's binary SPI
// bridge over a USB serial port. It is meant for bench work: wiring a card
// to a Bus Pirate gives a full bus from any development machine, at the cost
// of one serial round trip per byte.
package buspirate

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	sdspi "github.com/tanvir-commits/go-sdspi"
)

// Binary bitbang protocol bytes. Entering bitbang mode answers "BBIO1" and
// entering the SPI bridge answers "SPI1"; every other command answers a
// single 0x01 acknowledge.
const (
	cmdEnterBitbang   = 0x00
	cmdEnterSPI       = 0x01
	cmdChipSelectLow  = 0x02
	cmdChipSelectHigh = 0x03
	cmdHardwareReset  = 0x0F
	cmdBulkTransfer   = 0x10 // low nibble: byte count - 1
	cmdSetPeripherals = 0x40 // low nibble: power, pull-ups, AUX, CS
	cmdSetSpeed       = 0x60 // low 3 bits: speed table index
	cmdSetSPIConfig   = 0x80 // low nibble: output level, CKP, CKE, SMP

	replyBitbang = "BBIO1"
	replySPI     = "SPI1"
	ack          = 0x01

	// Power on, chip-select pin driven high while idle.
	peripheralBits = 0x09
	// 250 kHz, inside the identification-mode clock window.
	speedBits = 0x02
	// 3.3V outputs, mode 0 timing (CKP=0, CKE=1, sample middle).
	spiConfigBits = 0x0A

	bitbangAttempts = 20
	baudRate        = 115200
	readTimeout     = 100 * time.Millisecond
)

var errNoReply = errors.New("no reply from Bus Pirate")

// Transport implements the sdspi.Transport interface through a Bus Pirate.
type Transport struct {
	port     serial.Port
	csErr    error
	portName string
}

var _ sdspi.Transport = (*Transport)(nil)

// New opens the serial port (for example "/dev/ttyUSB0" or "COM3") and
// switches the Bus Pirate into its binary SPI bridge.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set serial read timeout: %w", err)
	}

	t, err := newTransport(port, portName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// newTransport runs the mode handshake on an already open port.
func newTransport(port serial.Port, portName string) (*Transport, error) {
	t := &Transport{port: port, portName: portName}
	if err := t.handshake(); err != nil {
		return nil, fmt.Errorf("bus pirate on %s: %w", portName, err)
	}
	return t, nil
}

// handshake moves the device from whatever mode it is in into the binary
// SPI bridge and configures power, clock and bus timing.
func (t *Transport) handshake() error {
	_ = t.port.ResetInputBuffer()

	// The terminal needs up to 20 zero bytes before it drops into bitbang
	// mode; a device already in bitbang answers the first one.
	window := make([]byte, 0, len(replyBitbang))
	entered := false
	for n := 0; n < bitbangAttempts; n++ {
		if _, err := t.port.Write([]byte{cmdEnterBitbang}); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		buf := make([]byte, len(replyBitbang))
		n, err := t.port.Read(buf)
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		window = append(window, buf[:n]...)
		if len(window) > len(replyBitbang) {
			window = window[len(window)-len(replyBitbang):]
		}
		if string(window) == replyBitbang {
			entered = true
			break
		}
	}
	if !entered {
		return fmt.Errorf("bitbang mode: %w", errNoReply)
	}

	if err := t.command([]byte{cmdEnterSPI}, []byte(replySPI)); err != nil {
		return fmt.Errorf("SPI bridge: %w", err)
	}
	for _, b := range []byte{
		cmdSetPeripherals | peripheralBits,
		cmdSetSpeed | speedBits,
		cmdSetSPIConfig | spiConfigBits,
		cmdChipSelectHigh,
	} {
		if err := t.command([]byte{b}, []byte{ack}); err != nil {
			return fmt.Errorf("configure 0x%02X: %w", b, err)
		}
	}
	return nil
}

// command writes a request and verifies the expected reply.
func (t *Transport) command(req, want []byte) error {
	if _, err := t.port.Write(req); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	got := make([]byte, len(want))
	if err := t.readExact(got); err != nil {
		return err
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("unexpected reply % X", got)
		}
	}
	return nil
}

// readExact fills buf, tolerating the short reads a serial port delivers.
// The port's read timeout shows up as a zero-length read.
func (t *Transport) readExact(buf []byte) error {
	total := 0
	deadline := time.Now().Add(5 * readTimeout)
	for total < len(buf) {
		n, err := t.port.Read(buf[total:])
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		if n == 0 {
			if time.Now().After(deadline) {
				return errNoReply
			}
			continue
		}
		total += n
	}
	return nil
}

// Transfer shifts one byte through the bridge. A chip-select failure
// recorded by Select or Deselect is surfaced here, since those cannot
// return errors.
func (t *Transport) Transfer(out byte) (byte, error) {
	if t.csErr != nil {
		err := t.csErr
		t.csErr = nil
		return 0, err
	}
	if _, err := t.port.Write([]byte{cmdBulkTransfer, out}); err != nil {
		return 0, fmt.Errorf("serial write on %s: %w", t.portName, err)
	}
	// One acknowledge for the bulk command, then the shifted-in byte.
	var reply [2]byte
	if err := t.readExact(reply[:]); err != nil {
		return 0, fmt.Errorf("serial read on %s: %w", t.portName, err)
	}
	if reply[0] != ack {
		return 0, fmt.Errorf("bulk transfer rejected with 0x%02X", reply[0])
	}
	return reply[1], nil
}

// Select drives the chip-select line low.
func (t *Transport) Select() {
	if err := t.command([]byte{cmdChipSelectLow}, []byte{ack}); err != nil && t.csErr == nil {
		t.csErr = fmt.Errorf("failed to assert chip-select: %w", err)
	}
}

// Deselect drives the chip-select line high.
func (t *Transport) Deselect() {
	if err := t.command([]byte{cmdChipSelectHigh}, []byte{ack}); err != nil && t.csErr == nil {
		t.csErr = fmt.Errorf("failed to release chip-select: %w", err)
	}
}

// Close resets the Bus Pirate back to its terminal and closes the port.
func (t *Transport) Close() error {
	_, _ = t.port.Write([]byte{cmdEnterBitbang, cmdHardwareReset})
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("serial close failed: %w", err)
	}
	return nil
}
