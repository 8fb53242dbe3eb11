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
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/tanvir-commits/go-sdspi/internal/frame"
)

// CardID is the decoded CID register: the factory identity of the card.
type CardID struct {
	OEMID            string
	ProductName      string
	Revision         string
	ManufactureMonth time.Month
	ManufactureYear  int
	SerialNumber     uint32
	ManufacturerID   byte
}

func (id *CardID) String() string {
	return fmt.Sprintf("%s rev %s (mfr 0x%02X/%s, serial %08X, %04d-%02d)",
		id.ProductName, id.Revision, id.ManufacturerID, id.OEMID,
		id.SerialNumber, id.ManufactureYear, id.ManufactureMonth)
}

// Identity reads and decodes the CID register. The session must be Ready.
func (c *Card) Identity() (*CardID, error) {
	cid, err := c.readRegister(frame.CmdSendCID, "identity")
	if err != nil {
		return nil, err
	}

	mdt := uint16(cid[13]&0x0F)<<4 | uint16(cid[14]>>4)
	return &CardID{
		ManufacturerID:   cid[0],
		OEMID:            string(cid[1:3]),
		ProductName:      strings.TrimRight(string(cid[3:8]), " "),
		Revision:         fmt.Sprintf("%d.%d", cid[8]>>4, cid[8]&0x0F),
		SerialNumber:     binary.BigEndian.Uint32(cid[9:13]),
		ManufactureYear:  2000 + int(mdt),
		ManufactureMonth: time.Month(cid[14] & 0x0F),
	}, nil
}

// Capacity reads the CSD register and returns the card size in bytes. Both
// CSD layouts are handled: version 1 encodes size as a block count and
// multiplier, version 2 as a 512 KiB granule count.
func (c *Card) Capacity() (uint64, error) {
	csd, err := c.readRegister(frame.CmdSendCSD, "capacity")
	if err != nil {
		return 0, err
	}

	switch csd[0] >> 6 {
	case 0:
		readBlockLen := uint(csd[5] & 0x0F)
		size := uint64(csd[6]&0x03)<<10 | uint64(csd[7])<<2 | uint64(csd[8]>>6)
		mult := uint(csd[9]&0x03)<<1 | uint(csd[10]>>7)
		return (size + 1) << (mult + 2 + readBlockLen), nil
	case 1:
		size := uint64(csd[7]&0x3F)<<16 | uint64(csd[8])<<8 | uint64(csd[9])
		return (size + 1) << 19, nil
	default:
		return 0, newCommandError(frame.CmdSendCSD, "capacity", 0, ErrProtocolRejected)
	}
}

// Blocks returns the card size in 512-byte blocks.
func (c *Card) Blocks() (uint32, error) {
	capacity, err := c.Capacity()
	if err != nil {
		return 0, err
	}
	return uint32(capacity / BlockSize), nil
}

// readRegister fetches a 16-byte register delivered as a short data block:
// command, R1, then a token-framed payload with a trailing CRC16.
func (c *Card) readRegister(cmd byte, op string) ([]byte, error) {
	if c.State() != StateReady {
		return nil, ErrNotReady
	}

	resp, err := c.sendCommand(cmd, 0)
	if err != nil {
		return nil, err
	}
	if resp.R1 != 0 {
		return nil, newCommandError(cmd, op, resp.R1, ErrProtocolRejected)
	}

	t := c.transport
	t.Select()
	finish := func() {
		t.Deselect()
		_, _ = t.Transfer(frame.Fill)
	}

	if err := c.waitStartToken(cmd); err != nil {
		finish()
		return nil, err
	}

	reg := make([]byte, frame.RegisterLength)
	for i := range reg {
		b, err := t.Transfer(frame.Fill)
		if err != nil {
			finish()
			return nil, newCommandError(cmd, op, 0, err)
		}
		reg[i] = b
	}
	// Trailing CRC16, clocked out and discarded.
	for n := 0; n < 2; n++ {
		if _, err := t.Transfer(frame.Fill); err != nil {
			finish()
			return nil, newCommandError(cmd, op, 0, err)
		}
	}

	finish()
	Debugf("CMD%d register: % X", cmd, reg)
	return reg, nil
}
