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
	"errors"

	"github.com/tanvir-commits/go-sdspi/internal/frame"
	"github.com/tanvir-commits/go-sdspi/internal/syncutil"
)

// BlockSize is the unit of storage I/O. There are no partial-block
// operations.
const BlockSize = 512

// State is the lifecycle state of a card session.
type State int

// Session states.
const (
	StateUninitialized State = iota
	StateIdle
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// CardType is the capacity class negotiated during bring-up. It decides the
// addressing mode: standard-capacity cards take byte addresses, high
// capacity cards take block addresses.
type CardType int

// Capacity classes.
const (
	CardTypeUnknown CardType = iota
	CardTypeSD1              // standard capacity, version 1 (no SEND_IF_COND)
	CardTypeSD2              // standard capacity, version 2
	CardTypeSDHC             // high capacity, block addressed
)

func (t CardType) String() string {
	switch t {
	case CardTypeSD1:
		return "SDSC v1"
	case CardTypeSD2:
		return "SDSC v2"
	case CardTypeSDHC:
		return "SDHC/SDXC"
	default:
		return "unknown"
	}
}

// Fixed status-message set. Status never returns anything outside this list.
const (
	statusNotInitialized  = "Not initialized"
	statusInitializing    = "Initializing..."
	statusNotResponding   = "SD card not responding"
	statusInterfaceCheck  = "CMD8 failed"
	statusVoltageMismatch = "Voltage mismatch"
	statusInitTimeout     = "Init timeout"
	statusInitialized     = "Initialized"
	statusReadFailed      = "Read failed"
	statusWriteFailed     = "Write failed"
	statusWriteRejected   = "Write rejected"
)

// Card is one SD/MMC card session over an injected transport.
//
// Thread safety: block I/O and Init must be called from a single goroutine;
// the driver is fully synchronous and the bus has no arbitration. Status,
// State, IsPresent and Type only read the session registry and may be called
// from other goroutines.
type Card struct {
	transport Transport
	clock     Clock
	config    *Config

	mu       syncutil.RWMutex
	state    State
	status   string
	present  bool
	cardType CardType
}

// New creates a card session on the given transport. The session starts
// Uninitialized; call Init to bring the card up.
func New(transport Transport, opts ...Option) (*Card, error) {
	if transport == nil {
		return nil, errors.New("transport must not be nil")
	}
	card := &Card{
		transport: transport,
		clock:     realClock{},
		config:    DefaultConfig(),
		status:    statusNotInitialized,
	}
	for _, opt := range opts {
		if err := opt(card); err != nil {
			return nil, err
		}
	}
	return card, nil
}

// IsPresent reports whether a card completed bring-up and is usable.
func (c *Card) IsPresent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.present && c.state == StateReady
}

// Status returns the last human-readable status message.
func (c *Card) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// State returns the session's lifecycle state.
func (c *Card) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Type returns the capacity class negotiated by the last Init.
func (c *Card) Type() CardType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cardType
}

func (c *Card) setSession(state State, status string, present bool) {
	c.mu.Lock()
	c.state = state
	c.status = status
	c.present = present
	c.mu.Unlock()
}

func (c *Card) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Card) setStatus(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Card) setCardType(t CardType) {
	c.mu.Lock()
	c.cardType = t
	c.mu.Unlock()
}

// fail moves the session to Error with the given status message and returns
// err unchanged.
func (c *Card) fail(status string, err error) error {
	c.setSession(StateError, status, false)
	Debugf("init failed: %s: %v", status, err)
	return err
}

// Init drives the card through the SPI-mode bring-up handshake: power-up
// clocking, GO_IDLE_STATE reset, SEND_IF_COND voltage check, repeated
// SEND_OP_COND negotiation, and an OCR read for the capacity class. It is
// idempotent: re-running re-attempts bring-up from scratch.
func (c *Card) Init() error {
	c.setSession(StateUninitialized, statusInitializing, false)
	c.setCardType(CardTypeUnknown)

	t := c.transport

	// The card needs at least 74 clocks with chip-select high before it
	// accepts commands.
	t.Deselect()
	for n := 0; n < c.config.PowerUpClockBytes; n++ {
		if _, err := t.Transfer(frame.Fill); err != nil {
			return c.fail(statusNotResponding, err)
		}
	}
	c.clock.Sleep(c.config.PowerUpSettleDelay)

	if err := c.reset(); err != nil {
		return c.fail(statusNotResponding, err)
	}
	c.setState(StateIdle)

	if err := c.checkInterfaceCondition(); err != nil {
		return err
	}

	if err := c.negotiateOperatingCondition(); err != nil {
		return c.fail(statusInitTimeout, err)
	}

	c.readCapacityClass()

	c.setSession(StateReady, statusInitialized, true)
	Debugf("card initialized: %s", c.Type())
	return nil
}

// reset sends GO_IDLE_STATE until the card reports exactly the idle-state
// flag, within the bounded attempt budget.
func (c *Card) reset() error {
	return retryWithConfig(c.clock, c.config.ResetRetry, func() error {
		resp, err := c.sendCommand(frame.CmdGoIdleState, 0)
		if err != nil {
			return err
		}
		if resp.R1 != frame.R1IdleState {
			return newCommandError(frame.CmdGoIdleState, "reset", resp.R1, ErrProtocolRejected)
		}
		return nil
	})
}

// checkInterfaceCondition sends SEND_IF_COND with the voltage-window check
// pattern. Cards that predate the command report illegal-command and are
// treated as version 1; newer cards must echo the pattern back.
func (c *Card) checkInterfaceCondition() error {
	resp, err := c.sendCommand(frame.CmdSendIfCond, frame.CheckPattern)
	if err != nil {
		return c.fail(statusInterfaceCheck, err)
	}

	if resp.R1&frame.R1IllegalCommand != 0 {
		c.setCardType(CardTypeSD1)
		return nil
	}

	if len(resp.Trailing) < 4 || resp.Trailing[3] != frame.CheckPatternEcho {
		rejection := newCommandError(frame.CmdSendIfCond, "voltage check", resp.R1, ErrProtocolRejected)
		return c.fail(statusVoltageMismatch, rejection)
	}
	c.setCardType(CardTypeSD2)
	return nil
}

// negotiateOperatingCondition polls SEND_OP_COND until the card leaves idle
// state or the wall-clock budget runs out. This is the one bring-up step
// whose duration is card-internal and unbounded in clock cycles, so the
// budget comes from the injected clock.
func (c *Card) negotiateOperatingCondition() error {
	arg := uint32(0)
	if c.Type() == CardTypeSD2 {
		arg = frame.ArgHCS
	}

	deadline := c.clock.Now().Add(c.config.OpCondTimeout)
	for {
		resp, err := c.sendAppCommand(frame.ACmdSendOpCond, arg)
		if err == nil && resp.R1 == 0 {
			return nil
		}
		if err != nil {
			// A transport-level miss counts against the same budget
			// as a still-idle reply.
			Debugf("SEND_OP_COND poll: %v", err)
		}
		if c.clock.Now().After(deadline) {
			if err == nil {
				err = newCommandError(frame.ACmdSendOpCond, "negotiation", resp.R1, ErrTimeout)
			}
			return err
		}
		c.clock.Sleep(c.config.OpCondPollDelay)
	}
}

// readCapacityClass reads the OCR. The read is informational: a version 2
// card with the capacity bit set is high capacity and block addressed, and
// any failure leaves the addressing mode negotiated so far untouched.
func (c *Card) readCapacityClass() {
	resp, err := c.sendCommand(frame.CmdReadOCR, 0)
	if err != nil || resp.R1 != 0 || len(resp.Trailing) < 4 {
		Debugf("OCR read skipped: R1=0x%02X err=%v", resp.R1, err)
		return
	}
	ocr := resp.Trailing[0]
	if c.Type() == CardTypeSD2 && ocr&(frame.OCRPowerUpDone|frame.OCRCardCapacity) == frame.OCRPowerUpDone|frame.OCRCardCapacity {
		c.setCardType(CardTypeSDHC)
	}
	Debugf("OCR: % X", resp.Trailing)
}

// blockArg converts a block number to the command argument for the
// negotiated addressing mode. High-capacity cards are block addressed;
// standard-capacity cards take byte addresses.
func (c *Card) blockArg(block uint32) uint32 {
	if c.Type() == CardTypeSDHC {
		return block
	}
	return block * BlockSize
}
