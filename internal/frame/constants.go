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

// Package frame implements the SD SPI-mode wire format: the 6-byte command
// frame, CRC7 command checksums, and validation of the response shapes the
// protocol defines (R1 status bytes, R3/R7 trailing registers, data tokens
// and data-response tokens).
//
// Format reference: SD Physical Layer Simplified Specification, section 7
// "SPI Mode".
package frame

// Command indices used by the driver (SD Simplified Spec table 7-3).
const (
	CmdGoIdleState     = 0  // GO_IDLE_STATE: software reset into idle state
	CmdSendIfCond      = 8  // SEND_IF_COND: voltage check, R7 response
	CmdSendCSD         = 9  // SEND_CSD: card-specific data register
	CmdSendCID         = 10 // SEND_CID: card identification register
	CmdReadSingleBlock = 17 // READ_SINGLE_BLOCK
	CmdWriteBlock      = 24 // WRITE_BLOCK
	CmdAppCmd          = 55 // APP_CMD: prefix for application commands
	CmdReadOCR         = 58 // READ_OCR: operating conditions, R3 response

	// ACmdSendOpCond is SD_SEND_OP_COND, an application command: it must be
	// sent immediately after CmdAppCmd.
	ACmdSendOpCond = 41
)

// R1 response status flags. Bit 7 is always 0 in a valid response.
const (
	R1IdleState        = 0x01
	R1EraseReset       = 0x02
	R1IllegalCommand   = 0x04
	R1CRCError         = 0x08
	R1EraseSeqError    = 0x10
	R1AddressError     = 0x20
	R1ParameterError   = 0x40
	r1InvalidResponses = 0x80
)

// Frame layout constants.
const (
	// Length is the size of a command frame on the wire.
	Length = 6

	// TransmissionBits is the start/transmission bit pattern OR'd with the
	// 6-bit command index in the first frame byte.
	TransmissionBits = 0x40

	// Fill is the clock-only byte. The host sends it whenever it needs
	// clocks without data; the card holds the bus at Fill when it has
	// nothing to say.
	Fill = 0xFF
)

// Data-phase tokens.
const (
	// TokenStartBlock frames a single-block payload in both directions.
	TokenStartBlock = 0xFE

	// RegisterLength is the size of the CID and CSD registers, delivered as
	// a short data block.
	RegisterLength = 16
)

// Data-response token values (write direction). The token's low five bits
// are xxx0sss1 where sss reports the payload status.
const (
	DataRespMask       = 0x1F
	DataRespAccepted   = 0x05
	DataRespCRCError   = 0x0B
	DataRespWriteError = 0x0D
)

// SEND_IF_COND and SEND_OP_COND arguments.
const (
	// CheckPattern is the SEND_IF_COND argument: 2.7-3.6V supply window in
	// bits 11:8 and the 0xAA echo-back pattern in bits 7:0.
	CheckPattern uint32 = 0x1AA

	// CheckPatternEcho is the byte the card must echo in the last R7
	// trailing byte.
	CheckPatternEcho = 0xAA

	// ArgHCS is the SEND_OP_COND host-capacity-support flag, asserted to
	// request block-addressed (high capacity) behavior.
	ArgHCS uint32 = 0x40000000
)

// OCR register bits, first trailing byte of the R3 response.
const (
	// OCRPowerUpDone is set once card-internal initialization finished.
	OCRPowerUpDone = 0x80
	// OCRCardCapacity (CCS) is set on high-capacity, block-addressed cards.
	OCRCardCapacity = 0x40
)
