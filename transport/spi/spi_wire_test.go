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

package spi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"

	sdspi "github.com/tanvir-commits/go-sdspi"
	sdtest "github.com/tanvir-commits/go-sdspi/internal/testing"
)

// fakeConn feeds every bus byte through the wire simulator, so the transport
// is exercised against real protocol traffic instead of canned replies.
type fakeConn struct {
	sim *sdtest.VirtualCard
	err error
}

func (c *fakeConn) Tx(w, r []byte) error {
	if c.err != nil {
		return c.err
	}
	for i, b := range w {
		in, err := c.sim.Transfer(b)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

func (*fakeConn) String() string { return "fake" }

func (*fakeConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeConn) TxPackets(p []spi.Packet) error {
	for i := range p {
		if err := c.Tx(p[i].W, p[i].R); err != nil {
			return err
		}
	}
	return nil
}

// csPin forwards chip-select levels to the simulator. The line is active
// low.
type csPin struct {
	sim *sdtest.VirtualCard
	gpiotest.Pin
}

func (p *csPin) Out(l gpio.Level) error {
	if l == gpio.Low {
		p.sim.Select()
	} else {
		p.sim.Deselect()
	}
	return p.Pin.Out(l)
}

func newTestTransport(sim *sdtest.VirtualCard) (*Transport, *csPin) {
	pin := &csPin{sim: sim, Pin: gpiotest.Pin{N: "CS", L: gpio.High}}
	return &Transport{
		conn:     &fakeConn{sim: sim},
		cs:       pin,
		portName: "fake",
	}, pin
}

func TestTransportDrivesFullBringUpAndIO(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	transport, pin := newTestTransport(sim)

	card, err := sdspi.New(transport, sdspi.WithClock(sdtest.NewFakeClock()))
	require.NoError(t, err)
	require.NoError(t, card.Init())
	assert.Equal(t, sdspi.CardTypeSDHC, card.Type())

	want := make([]byte, sdspi.BlockSize)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, card.WriteBlock(3, want))

	got := make([]byte, sdspi.BlockSize)
	require.NoError(t, card.ReadBlock(3, got))
	assert.Equal(t, want, got)

	// The chip-select line must end up released.
	assert.Equal(t, sim.Selects, sim.Deselects)
	assert.Equal(t, gpio.High, pin.L)
}

func TestTransportSurfacesBusError(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	transport, _ := newTestTransport(sim)
	busErr := errors.New("bus gone")
	transport.conn.(*fakeConn).err = busErr

	_, err := transport.Transfer(0xFF)
	require.Error(t, err)
	assert.ErrorIs(t, err, busErr)
}

func TestTransportSurfacesChipSelectFailure(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	transport, _ := newTestTransport(sim)
	transport.csErr = errors.New("pin stuck")

	_, err := transport.Transfer(0xFF)
	require.Error(t, err)

	// The failure is reported once, then the transport recovers.
	_, err = transport.Transfer(0xFF)
	require.NoError(t, err)
}
