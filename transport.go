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

// Transport defines the byte-level bus interface the driver runs on.
// This can be implemented by a kernel SPI device, a USB bridge, or a
// simulator for testing.
//
// The driver owns the bus for the duration of one logical transaction
// (command + response, or command + data phase) and guarantees that Select
// and Deselect calls are balanced on every exit path, success or failure.
// If the physical bus is shared with another device, serializing access
// between the two users is the caller's responsibility; the driver has no
// arbitration logic of its own.
type Transport interface {
	// Transfer exchanges a single byte in full duplex: out is shifted to
	// the card while the returned byte is shifted in. The card only drives
	// the bus while selected; to clock the bus without sending data, pass
	// 0xFF.
	Transfer(out byte) (byte, error)

	// Select drives the card's chip-select line low (active).
	Select()

	// Deselect drives the card's chip-select line high (inactive).
	Deselect()
}
