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

package sdspi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdtest "github.com/tanvir-commits/go-sdspi/internal/testing"
)

// pattern fills one block with a deterministic byte sequence.
func pattern(seed byte) []byte {
	buf := make([]byte, BlockSize)
	for i := range buf {
		buf[i] = seed + byte(i*7)
	}
	return buf
}

func readyCard(t *testing.T, sim *sdtest.VirtualCard) *Card {
	t.Helper()
	card, _ := newTestCard(t, sim)
	require.NoError(t, card.Init())
	return card
}

func TestBlockIORequiresReadySession(t *testing.T) {
	t.Parallel()
	card, _ := newTestCard(t, sdtest.NewVirtualCard())
	buf := make([]byte, BlockSize)

	err := card.ReadBlock(0, buf)
	assert.ErrorIs(t, err, ErrNotReady)
	err = card.WriteBlock(0, buf)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBlockIORejectsWrongBufferSize(t *testing.T) {
	t.Parallel()
	card := readyCard(t, sdtest.NewVirtualCard())

	assert.ErrorIs(t, card.ReadBlock(0, make([]byte, 511)), ErrBadBlockSize)
	assert.ErrorIs(t, card.ReadBlock(0, nil), ErrBadBlockSize)
	assert.ErrorIs(t, card.WriteBlock(0, make([]byte, 513)), ErrBadBlockSize)
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	card := readyCard(t, sim)

	want := pattern(0x11)
	require.NoError(t, card.WriteBlock(42, want))

	got := make([]byte, BlockSize)
	require.NoError(t, card.ReadBlock(42, got))
	assert.Equal(t, want, got)
	assert.Equal(t, sim.Selects, sim.Deselects)
}

func TestRoundTripStandardCapacityAddressing(t *testing.T) {
	t.Parallel()
	// Standard-capacity cards take byte addresses; the driver must apply
	// the block-size multiplier so the card sees the same block number.
	sim := sdtest.NewVirtualCard()
	sim.HighCapacity = false
	card := readyCard(t, sim)
	require.Equal(t, CardTypeSD2, card.Type())

	want := pattern(0x23)
	require.NoError(t, card.WriteBlock(9, want))

	got := make([]byte, BlockSize)
	require.NoError(t, card.ReadBlock(9, got))
	assert.Equal(t, want, got)
	assert.Equal(t, want, sim.BlockContents(9))
}

func TestReadUnwrittenBlockIsZeroFilled(t *testing.T) {
	t.Parallel()
	card := readyCard(t, sdtest.NewVirtualCard())

	got := pattern(0x99)
	require.NoError(t, card.ReadBlock(3, got))
	assert.Equal(t, make([]byte, BlockSize), got)
}

func TestReadTimeoutIsBounded(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	sim.WithholdToken = true
	card := readyCard(t, sim)

	err := card.ReadBlock(0, make([]byte, BlockSize))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "Read failed", card.Status())
	assert.Equal(t, sim.Selects, sim.Deselects)

	// The session survives a failed block operation.
	assert.Equal(t, StateReady, card.State())
	assert.True(t, card.IsPresent())
}

func TestWriteRejectionSurfaces(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	sim.WriteResponse = 0x0D // write error status
	card := readyCard(t, sim)

	err := card.WriteBlock(5, pattern(0x42))
	require.Error(t, err)
	assert.True(t, IsWriteRejection(err))
	assert.Equal(t, "Write rejected", card.Status())
	assert.Equal(t, StateReady, card.State())
	assert.Equal(t, sim.Selects, sim.Deselects)

	// A rejected payload must not be committed, and the session keeps
	// working on other blocks.
	assert.Equal(t, make([]byte, BlockSize), sim.BlockContents(5))
	sim.WriteResponse = 0x05
	want := pattern(0x43)
	require.NoError(t, card.WriteBlock(6, want))
	got := make([]byte, BlockSize)
	require.NoError(t, card.ReadBlock(6, got))
	assert.Equal(t, want, got)
}

func TestWriteBusyWaitCompletes(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	sim.BusyBytes = 50
	card := readyCard(t, sim)

	require.NoError(t, card.WriteBlock(1, pattern(0x01)))
	assert.Equal(t, sim.Selects, sim.Deselects)
}

func TestOverwriteBlock(t *testing.T) {
	t.Parallel()
	card := readyCard(t, sdtest.NewVirtualCard())

	require.NoError(t, card.WriteBlock(8, pattern(0x10)))
	want := pattern(0x77)
	require.NoError(t, card.WriteBlock(8, want))

	got := make([]byte, BlockSize)
	require.NoError(t, card.ReadBlock(8, got))
	assert.Equal(t, want, got)
}

func TestSelectBalanceAcrossMixedOutcomes(t *testing.T) {
	t.Parallel()
	sim := sdtest.NewVirtualCard()
	card := readyCard(t, sim)

	// Success, rejection, timeout, then success again: the select line
	// must stay balanced through every path.
	require.NoError(t, card.WriteBlock(0, pattern(0x01)))

	sim.WriteResponse = 0x0B
	require.Error(t, card.WriteBlock(1, pattern(0x02)))
	sim.WriteResponse = 0x05

	sim.WithholdToken = true
	require.Error(t, card.ReadBlock(0, make([]byte, BlockSize)))
	sim.WithholdToken = false

	require.NoError(t, card.ReadBlock(0, make([]byte, BlockSize)))

	assert.Equal(t, sim.Selects, sim.Deselects)
	assert.Positive(t, sim.Selects)
}
