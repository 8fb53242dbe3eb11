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

// Response holds the card's reply to a single command: the R1 status byte,
// plus four trailing register bytes for the R3/R7-shaped commands.
type Response struct {
	Trailing []byte
	R1       byte
}

// sendCommand runs one complete command transaction: select, one clock-only
// byte, the 6-byte frame, R1 polling within the byte budget, optional
// trailing bytes, deselect, and one clock-only byte so the card can finish
// internal processing. Chip-select is released on every exit path.
func (c *Card) sendCommand(cmd byte, arg uint32) (Response, error) {
	t := c.transport
	t.Select()

	finish := func() {
		t.Deselect()
		// One extra clock after deselect lets the card release the bus.
		_, _ = t.Transfer(frame.Fill)
	}

	// Clock-only padding before the frame, per protocol convention.
	if _, err := t.Transfer(frame.Fill); err != nil {
		finish()
		return Response{}, newCommandError(cmd, "pad", 0, err)
	}

	f := frame.Build(cmd, arg)
	for _, b := range f {
		if _, err := t.Transfer(b); err != nil {
			finish()
			return Response{}, newCommandError(cmd, "send", 0, err)
		}
	}

	// The card answers within a small number of byte-periods; poll with
	// clock-only bytes until bit 7 goes low.
	var r1 byte
	valid := false
	for n := 0; n < c.config.ResponseByteBudget; n++ {
		b, err := t.Transfer(frame.Fill)
		if err != nil {
			finish()
			return Response{}, newCommandError(cmd, "response", 0, err)
		}
		if frame.R1Valid(b) {
			r1 = b
			valid = true
			break
		}
	}
	if !valid {
		finish()
		Debugf("CMD%d: no response within %d bytes", cmd, c.config.ResponseByteBudget)
		return Response{}, newCommandError(cmd, "response", 0, ErrTimeout)
	}

	resp := Response{R1: r1}
	if frame.HasTrailing(cmd) && !frame.R1HasError(r1) {
		trailing := make([]byte, 4)
		for i := range trailing {
			b, err := t.Transfer(frame.Fill)
			if err != nil {
				finish()
				return Response{}, newCommandError(cmd, "trailing", r1, err)
			}
			trailing[i] = b
		}
		resp.Trailing = trailing
	}

	finish()
	Debugf("CMD%d arg=0x%08X -> R1=0x%02X trailing=% X", cmd, arg, resp.R1, resp.Trailing)
	return resp, nil
}

// sendAppCommand sends the APP_CMD prefix followed by the application
// command. A failed prefix is reported as the prefix's error.
func (c *Card) sendAppCommand(cmd byte, arg uint32) (Response, error) {
	if _, err := c.sendCommand(frame.CmdAppCmd, 0); err != nil {
		return Response{}, err
	}
	return c.sendCommand(cmd, arg)
}
