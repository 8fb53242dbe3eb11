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
	"github.com/tanvir-commits/go-sdspi/internal/frame"
)

// ReadBlock reads one 512-byte block into dst. dst must be exactly
// BlockSize bytes and the session must be Ready. A failed read reports a
// typed error and updates the status message, but does not demote the
// session: a single bad block does not invalidate the card.
func (c *Card) ReadBlock(block uint32, dst []byte) error {
	if len(dst) != BlockSize {
		return ErrBadBlockSize
	}
	if c.State() != StateReady {
		return ErrNotReady
	}

	resp, err := c.sendCommand(frame.CmdReadSingleBlock, c.blockArg(block))
	if err != nil {
		c.setStatus(statusReadFailed)
		return err
	}
	if resp.R1 != 0 {
		c.setStatus(statusReadFailed)
		return newCommandError(frame.CmdReadSingleBlock, "read", resp.R1, ErrProtocolRejected)
	}

	t := c.transport
	t.Select()
	finish := func() {
		t.Deselect()
		_, _ = t.Transfer(frame.Fill)
	}

	if err := c.waitStartToken(frame.CmdReadSingleBlock); err != nil {
		finish()
		c.setStatus(statusReadFailed)
		return err
	}

	for i := range dst {
		b, err := t.Transfer(frame.Fill)
		if err != nil {
			finish()
			c.setStatus(statusReadFailed)
			return newCommandError(frame.CmdReadSingleBlock, "data", 0, err)
		}
		dst[i] = b
	}

	// Two trailing CRC16 bytes. The card is used in CRC-disabled mode, so
	// they are clocked out and discarded, not verified.
	for n := 0; n < 2; n++ {
		if _, err := t.Transfer(frame.Fill); err != nil {
			finish()
			c.setStatus(statusReadFailed)
			return newCommandError(frame.CmdReadSingleBlock, "crc", 0, err)
		}
	}

	finish()
	return nil
}

// WriteBlock writes one 512-byte block from src. src must be exactly
// BlockSize bytes and the session must be Ready. The card's data-response
// token is validated before the busy-wait phase; a rejected payload reports
// ErrWriteRejected. Like reads, a failed write never demotes the session.
func (c *Card) WriteBlock(block uint32, src []byte) error {
	if len(src) != BlockSize {
		return ErrBadBlockSize
	}
	if c.State() != StateReady {
		return ErrNotReady
	}

	resp, err := c.sendCommand(frame.CmdWriteBlock, c.blockArg(block))
	if err != nil {
		c.setStatus(statusWriteFailed)
		return err
	}
	if resp.R1 != 0 {
		c.setStatus(statusWriteFailed)
		return newCommandError(frame.CmdWriteBlock, "write", resp.R1, ErrProtocolRejected)
	}

	t := c.transport
	t.Select()
	finish := func() {
		t.Deselect()
		_, _ = t.Transfer(frame.Fill)
	}

	fail := func(op string, status string, cause error) error {
		finish()
		c.setStatus(status)
		return newCommandError(frame.CmdWriteBlock, op, 0, cause)
	}

	if _, err := t.Transfer(frame.TokenStartBlock); err != nil {
		return fail("token", statusWriteFailed, err)
	}
	for _, b := range src {
		if _, err := t.Transfer(b); err != nil {
			return fail("data", statusWriteFailed, err)
		}
	}
	// Dummy CRC16; not computed in CRC-disabled mode.
	for n := 0; n < 2; n++ {
		if _, err := t.Transfer(frame.Fill); err != nil {
			return fail("crc", statusWriteFailed, err)
		}
	}

	token, err := t.Transfer(frame.Fill)
	if err != nil {
		return fail("data response", statusWriteFailed, err)
	}
	if dr := frame.DataResponse(token); !dr.Accepted() {
		Debugf("write block %d: %s", block, dr)
		return fail("data response", statusWriteRejected, ErrWriteRejected)
	}

	if err := c.waitNotBusy(); err != nil {
		finish()
		c.setStatus(statusWriteFailed)
		return err
	}

	finish()
	return nil
}

// waitStartToken polls for the data-start token within the wall-clock
// budget. The card holds the bus at Fill while it fetches the data.
func (c *Card) waitStartToken(cmd byte) error {
	deadline := c.clock.Now().Add(c.config.ReadTokenTimeout)
	for {
		b, err := c.transport.Transfer(frame.Fill)
		if err != nil {
			return newCommandError(cmd, "token", 0, err)
		}
		if b != frame.Fill {
			if b != frame.TokenStartBlock {
				return newCommandError(cmd, "token", b, ErrProtocolRejected)
			}
			return nil
		}
		if c.clock.Now().After(deadline) {
			return newCommandError(cmd, "token", 0, ErrTimeout)
		}
	}
}

// waitNotBusy polls until the card releases the bus back to Fill after
// programming a block, within the wall-clock budget.
func (c *Card) waitNotBusy() error {
	deadline := c.clock.Now().Add(c.config.WriteBusyTimeout)
	for {
		b, err := c.transport.Transfer(frame.Fill)
		if err != nil {
			return newCommandError(frame.CmdWriteBlock, "busy", 0, err)
		}
		if b == frame.Fill {
			return nil
		}
		if c.clock.Now().After(deadline) {
			return newCommandError(frame.CmdWriteBlock, "busy", 0, ErrTimeout)
		}
	}
}
