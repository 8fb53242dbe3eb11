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

// Package testing provides test doubles: a wire-level SD card simulator and
// a fake clock for driving timeout loops without real elapsed time.
//
// VirtualCard simulates the card at the single-byte level of the SPI-mode
// protocol, so it exercises the driver through the same Transfer/Select/
// Deselect surface a real bus would. It deliberately does not import the
// root package to avoid an import cycle with the root package's own tests;
// it satisfies the Transport interface structurally.
package testing

import (
	"github.com/tanvir-commits/go-sdspi/internal/frame"
	"github.com/tanvir-commits/go-sdspi/internal/syncutil"
)

// blockSize mirrors the driver's block size without importing the root
// package.
const blockSize = 512

// VirtualCard is a byte-level SPI-mode SD card simulator.
//
// The zero value is not usable; create instances with NewVirtualCard and
// adjust the behavior knobs before handing the card to the driver. Knobs
// and counters are exported for test configuration and assertions.
type VirtualCard struct {
	blocks map[uint32][]byte

	// Behavior knobs.

	// ResetResponds controls whether GO_IDLE_STATE is acknowledged with
	// the idle-state flag. When false the card answers every reset with a
	// valid but non-idle R1, as a wedged card would.
	ResetResponds bool
	// Mute suppresses every response: the bus stays at fill level and the
	// host's response polling runs out its byte budget.
	Mute bool
	// IllegalIfCond makes the card reject SEND_IF_COND as an unrecognized
	// command, the behavior of version 1 cards.
	IllegalIfCond bool
	// EchoByte is returned as the last SEND_IF_COND trailing byte. Cards
	// echo the host's check pattern; anything else is a voltage mismatch.
	EchoByte byte
	// OpCondPolls is how many SEND_OP_COND polls stay in idle state before
	// the card reports ready. It is consumed as the card is polled.
	OpCondPolls int
	// HighCapacity sets the OCR capacity bit and switches the simulated
	// card to block addressing.
	HighCapacity bool
	// WithholdToken suppresses the read data-start token, leaving the host
	// to time out waiting for data.
	WithholdToken bool
	// WriteResponse is the data-response token returned after a write
	// payload.
	WriteResponse byte
	// BusyBytes is how many busy (0x00) bytes follow an accepted write.
	BusyBytes int
	// ResponseGap is how many fill bytes precede each R1.
	ResponseGap int
	// TokenGap is how many fill bytes precede the read data-start token.
	TokenGap int
	// StrictCRC makes the card verify the CRC7 of every command frame.
	StrictCRC bool
	// CID and CSD are the registers served to SEND_CID and SEND_CSD.
	CID [frame.RegisterLength]byte
	CSD [frame.RegisterLength]byte

	// Counters.

	// Selects and Deselects count chip-select transitions.
	Selects   int
	Deselects int
	// CommandLog records every 6-byte command frame received, as command
	// indices in arrival order.
	CommandLog []byte

	out      []byte
	writeBuf []byte

	cmdBuf [frame.Length]byte
	cmdLen int

	writeBlock uint32

	mu           syncutil.Mutex
	selected     bool
	appCmd       bool
	ready        bool
	writeArmed   bool
	writeCollect bool
}

// NewVirtualCard creates a well-behaved high-capacity card with sensible
// response latencies.
func NewVirtualCard() *VirtualCard {
	v := &VirtualCard{
		blocks:        make(map[uint32][]byte),
		ResetResponds: true,
		EchoByte:      frame.CheckPatternEcho,
		HighCapacity:  true,
		WriteResponse: frame.DataRespAccepted,
		BusyBytes:     2,
		ResponseGap:   1,
		TokenGap:      2,
	}
	// Factory identity of a plausible 8 GB card and a version 2 CSD.
	copy(v.CID[:], []byte{
		0x03, 'S', 'D', 'S', 'U', '0', '8', 'G',
		0x80, 0x01, 0x23, 0xAB, 0xCD, 0x01, 0x37, 0x01,
	})
	v.CSD[0] = 0x40
	v.CSD[8] = 0x3B
	v.CSD[9] = 0x37
	return v
}

// Select implements the driver's Transport interface.
func (v *VirtualCard) Select() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Selects++
	v.selected = true
}

// Deselect implements the driver's Transport interface. Raising chip-select
// aborts a partially shifted command frame.
func (v *VirtualCard) Deselect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Deselects++
	v.selected = false
	v.cmdLen = 0
}

// Transfer implements the driver's Transport interface: one full-duplex
// byte exchange.
func (v *VirtualCard) Transfer(in byte) (byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// A deselected card tri-states its output; the host reads fill level.
	if !v.selected {
		return frame.Fill, nil
	}

	// Write data phase: collect token, payload and CRC from the host.
	if v.writeCollect {
		v.writeBuf = append(v.writeBuf, in)
		if len(v.writeBuf) == blockSize+2 {
			v.writeCollect = false
			v.finishWrite()
		}
		return frame.Fill, nil
	}
	if v.writeArmed && len(v.out) == 0 && in == frame.TokenStartBlock {
		v.writeArmed = false
		v.writeCollect = true
		v.writeBuf = v.writeBuf[:0]
		return frame.Fill, nil
	}

	// Command frame capture.
	if v.cmdLen > 0 {
		v.cmdBuf[v.cmdLen] = in
		v.cmdLen++
		if v.cmdLen == frame.Length {
			v.cmdLen = 0
			v.processCommand()
		}
		return frame.Fill, nil
	}

	if len(v.out) > 0 {
		b := v.out[0]
		v.out = v.out[1:]
		return b, nil
	}

	if in&0xC0 == frame.TransmissionBits {
		v.cmdBuf[0] = in
		v.cmdLen = 1
		return frame.Fill, nil
	}

	return frame.Fill, nil
}

// SeedBlock preloads block content. The data is copied and padded or
// truncated to one block.
func (v *VirtualCard) SeedBlock(block uint32, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	buf := make([]byte, blockSize)
	copy(buf, data)
	v.blocks[block] = buf
}

// BlockContents returns a copy of the stored block, zero-filled if the
// block was never written.
func (v *VirtualCard) BlockContents(block uint32) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.blockData(block)...)
}

// CommandCount returns how many frames carried the given command index.
func (v *VirtualCard) CommandCount(cmd byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.CommandLog {
		if c == cmd {
			n++
		}
	}
	return n
}

func (v *VirtualCard) blockData(block uint32) []byte {
	if data, ok := v.blocks[block]; ok {
		return data
	}
	return make([]byte, blockSize)
}

// blockNumber converts a command argument to a block number for the card's
// addressing mode.
func (v *VirtualCard) blockNumber(arg uint32) uint32 {
	if v.HighCapacity {
		return arg
	}
	return arg / blockSize
}

// r1 is the card's base status byte for the current lifecycle state.
func (v *VirtualCard) r1() byte {
	if v.ready {
		return 0x00
	}
	return frame.R1IdleState
}

// queue appends a response preceded by the configured fill gap.
func (v *VirtualCard) queue(b ...byte) {
	for n := 0; n < v.ResponseGap; n++ {
		v.out = append(v.out, frame.Fill)
	}
	v.out = append(v.out, b...)
}

func (v *VirtualCard) processCommand() {
	cmd := v.cmdBuf[0] & 0x3F
	arg := frame.ParseArg(v.cmdBuf[:])
	app := v.appCmd
	v.appCmd = false
	v.CommandLog = append(v.CommandLog, cmd)

	if v.Mute {
		return
	}
	if v.StrictCRC && frame.CommandCRC(v.cmdBuf[:5]) != v.cmdBuf[5] {
		v.queue(v.r1() | frame.R1CRCError)
		return
	}

	switch {
	case cmd == frame.CmdGoIdleState:
		v.ready = false
		v.writeArmed = false
		v.writeCollect = false
		if v.ResetResponds {
			v.queue(frame.R1IdleState)
		} else {
			v.queue(0x00)
		}

	case cmd == frame.CmdSendIfCond:
		if v.IllegalIfCond {
			v.queue(v.r1() | frame.R1IllegalCommand)
			return
		}
		// R7: command version, reserved, voltage accepted, echo-back.
		v.queue(v.r1(), 0x00, 0x00, 0x01, v.EchoByte)

	case cmd == frame.CmdAppCmd:
		v.appCmd = true
		v.queue(v.r1())

	case cmd == frame.ACmdSendOpCond && app:
		if v.OpCondPolls > 0 {
			v.OpCondPolls--
			v.queue(frame.R1IdleState)
		} else {
			v.ready = true
			v.queue(0x00)
		}

	case cmd == frame.CmdReadOCR:
		ocr := byte(frame.OCRPowerUpDone)
		if v.HighCapacity {
			ocr |= frame.OCRCardCapacity
		}
		v.queue(v.r1(), ocr, 0xFF, 0x80, 0x00)

	case cmd == frame.CmdSendCID, cmd == frame.CmdSendCSD:
		reg := v.CID
		if cmd == frame.CmdSendCSD {
			reg = v.CSD
		}
		v.queue(0x00)
		for n := 0; n < v.TokenGap; n++ {
			v.out = append(v.out, frame.Fill)
		}
		v.out = append(v.out, frame.TokenStartBlock)
		v.out = append(v.out, reg[:]...)
		v.out = append(v.out, 0x00, 0x00) // CRC16; the host discards it

	case cmd == frame.CmdReadSingleBlock:
		v.queue(0x00)
		if v.WithholdToken {
			return
		}
		for n := 0; n < v.TokenGap; n++ {
			v.out = append(v.out, frame.Fill)
		}
		v.out = append(v.out, frame.TokenStartBlock)
		v.out = append(v.out, v.blockData(v.blockNumber(arg))...)
		v.out = append(v.out, 0x00, 0x00) // CRC16; the host discards it

	case cmd == frame.CmdWriteBlock:
		v.queue(0x00)
		v.writeArmed = true
		v.writeBlock = v.blockNumber(arg)

	default:
		v.queue(v.r1() | frame.R1IllegalCommand)
	}
}

// finishWrite validates nothing (the host's CRC is dummy in CRC-disabled
// mode), commits the payload if the configured data response accepts it,
// and schedules the busy period.
func (v *VirtualCard) finishWrite() {
	v.out = append(v.out, v.WriteResponse)
	if frame.DataResponse(v.WriteResponse).Accepted() {
		v.blocks[v.writeBlock] = append([]byte(nil), v.writeBuf[:blockSize]...)
		for n := 0; n < v.BusyBytes; n++ {
			v.out = append(v.out, 0x00)
		}
	}
}
