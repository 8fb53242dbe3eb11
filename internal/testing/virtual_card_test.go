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

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvir-commits/go-sdspi/internal/frame"
)

// shiftFrame clocks a full command frame into the card and returns the R1
// it eventually answers with, polling the way a host would.
func shiftFrame(t *testing.T, card *VirtualCard, cmd byte, arg uint32) byte {
	t.Helper()
	f := frame.Build(cmd, arg)
	for _, b := range f {
		_, err := card.Transfer(b)
		require.NoError(t, err)
	}
	for n := 0; n < 10; n++ {
		b, err := card.Transfer(frame.Fill)
		require.NoError(t, err)
		if frame.R1Valid(b) {
			return b
		}
	}
	t.Fatalf("CMD%d: no R1 within byte budget", cmd)
	return 0
}

func TestVirtualCardDeselectedBusIsFill(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	for n := 0; n < 20; n++ {
		b, err := card.Transfer(frame.Fill)
		require.NoError(t, err)
		assert.Equal(t, byte(frame.Fill), b)
	}
	assert.Empty(t, card.CommandLog)
}

func TestVirtualCardResetReportsIdle(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	card.Select()
	r1 := shiftFrame(t, card, frame.CmdGoIdleState, 0)
	card.Deselect()

	assert.Equal(t, byte(frame.R1IdleState), r1)
	assert.Equal(t, 1, card.CommandCount(frame.CmdGoIdleState))
}

func TestVirtualCardOpCondCountsPolls(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	card.OpCondPolls = 2
	card.Select()
	defer card.Deselect()

	shiftFrame(t, card, frame.CmdGoIdleState, 0)
	for i, want := range []byte{frame.R1IdleState, frame.R1IdleState, 0x00} {
		shiftFrame(t, card, frame.CmdAppCmd, 0)
		r1 := shiftFrame(t, card, frame.ACmdSendOpCond, frame.ArgHCS)
		assert.Equal(t, want, r1, "poll %d", i)
	}
}

func TestVirtualCardOpCondWithoutPrefixIsIllegal(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	card.Select()
	defer card.Deselect()

	r1 := shiftFrame(t, card, frame.ACmdSendOpCond, frame.ArgHCS)
	assert.NotZero(t, r1&frame.R1IllegalCommand)
}

func TestVirtualCardReadServesSeededBlock(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	card.SeedBlock(7, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	card.Select()
	defer card.Deselect()

	r1 := shiftFrame(t, card, frame.CmdReadSingleBlock, 7)
	require.Equal(t, byte(0x00), r1)

	// Skip the token gap, then expect the data-start token.
	var b byte
	var err error
	for n := 0; n < card.TokenGap+1; n++ {
		b, err = card.Transfer(frame.Fill)
		require.NoError(t, err)
	}
	require.Equal(t, byte(frame.TokenStartBlock), b)

	data := make([]byte, blockSize)
	for i := range data {
		data[i], err = card.Transfer(frame.Fill)
		require.NoError(t, err)
	}
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, data[:4])
	assert.Equal(t, make([]byte, blockSize-4), data[4:])
}

func TestVirtualCardStrictCRCRejectsBadFrame(t *testing.T) {
	t.Parallel()
	card := NewVirtualCard()
	card.StrictCRC = true
	card.Select()
	defer card.Deselect()

	f := frame.Build(frame.CmdGoIdleState, 0)
	f[5] ^= 0x02 // corrupt the CRC, keep the end bit
	for _, b := range f {
		_, err := card.Transfer(b)
		require.NoError(t, err)
	}
	var r1 byte
	for n := 0; n < 10; n++ {
		b, err := card.Transfer(frame.Fill)
		require.NoError(t, err)
		if frame.R1Valid(b) {
			r1 = b
			break
		}
	}
	assert.NotZero(t, r1&frame.R1CRCError)
}
