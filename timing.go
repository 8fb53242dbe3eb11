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

import "time"

// Bring-up timing constants control the power-up and reset phase of Init.
const (
	// DefaultPowerUpClockBytes is the number of fill bytes clocked out with
	// chip-select high before the first command. 20 bytes is 160 clocks,
	// comfortably above the 74 the card requires after power-up.
	DefaultPowerUpClockBytes = 20

	// DefaultPowerUpSettleDelay is the pause after power-up clocking, before
	// the first reset attempt.
	DefaultPowerUpSettleDelay = 10 * time.Millisecond

	// DefaultResetAttempts is the number of GO_IDLE_STATE attempts before
	// declaring the card unresponsive. Some cards ignore the first reset.
	DefaultResetAttempts = 3

	// DefaultResetRetryDelay is the pause between reset attempts.
	DefaultResetRetryDelay = 10 * time.Millisecond
)

// Response and negotiation budgets.
const (
	// DefaultResponseByteBudget is the number of fill bytes clocked while
	// polling for an R1 response. The card answers within 8 byte-periods
	// of the command frame, so this is a byte budget, not a time budget.
	DefaultResponseByteBudget = 10

	// DefaultOpCondTimeout is the wall-clock budget for the repeated
	// SEND_OP_COND negotiation. Card-internal initialization is unbounded
	// in clock cycles and can legitimately take on the order of a second.
	DefaultOpCondTimeout = 5 * time.Second

	// DefaultOpCondPollDelay is the pause between SEND_OP_COND polls.
	DefaultOpCondPollDelay = 10 * time.Millisecond
)

// Block I/O budgets.
const (
	// DefaultReadTokenTimeout is the wall-clock budget for the data-start
	// token after READ_SINGLE_BLOCK is accepted.
	DefaultReadTokenTimeout = 100 * time.Millisecond

	// DefaultWriteBusyTimeout is the wall-clock budget for the card to
	// finish programming a block after the write payload is accepted.
	DefaultWriteBusyTimeout = 500 * time.Millisecond
)
