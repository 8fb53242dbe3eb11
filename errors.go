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
	"fmt"
)

// Error categories. Every failure the driver reports wraps one of these
// sentinels, so callers can classify with errors.Is regardless of the
// command or phase that produced it.
var (
	// ErrTimeout means no valid response byte arrived within the bounded
	// byte budget for a command, or a data-start token, data-response
	// token or busy-clear condition never appeared within its wall-clock
	// budget.
	ErrTimeout = errors.New("response timeout")

	// ErrProtocolRejected means the card answered, but the response
	// content failed the required pattern: a nonzero R1 where zero was
	// expected, a voltage-check echo mismatch, or a card that never
	// reports idle state after the reset attempts.
	ErrProtocolRejected = errors.New("command rejected by card")

	// ErrWriteRejected means the card's data-response token reported a
	// non-accepted status after a block write payload.
	ErrWriteRejected = errors.New("write data rejected by card")

	// ErrNotReady means a block operation was invoked while the session
	// is not in the Ready state.
	ErrNotReady = errors.New("card not initialized")

	// ErrBadBlockSize means a block buffer was not exactly BlockSize bytes.
	ErrBadBlockSize = errors.New("buffer must be exactly one block")
)

// CommandError wraps a failure of a single card transaction with the command
// index and R1 status byte that produced it, for debugging protocol-level
// failures.
type CommandError struct {
	Err error
	Op  string
	Cmd byte
	R1  byte
}

func (e *CommandError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("CMD%d %s: R1=0x%02X: %v", e.Cmd, e.Op, e.R1, e.Err)
	}
	return fmt.Sprintf("CMD%d: R1=0x%02X: %v", e.Cmd, e.R1, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// newCommandError creates a CommandError wrapping the given sentinel.
func newCommandError(cmd byte, op string, r1 byte, err error) *CommandError {
	return &CommandError{Cmd: cmd, Op: op, R1: r1, Err: err}
}

// IsTimeout reports whether err is a transport or card timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsProtocolRejection reports whether err is a protocol-level rejection
// (valid response, wrong content).
func IsProtocolRejection(err error) bool {
	return errors.Is(err, ErrProtocolRejected)
}

// IsWriteRejection reports whether err is a rejected write payload.
func IsWriteRejection(err error) bool {
	return errors.Is(err, ErrWriteRejected)
}
