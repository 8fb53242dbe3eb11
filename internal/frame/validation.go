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

package frame

import "fmt"

// R1Valid reports whether b is an R1 response byte. The card holds the bus
// at Fill until the response starts; bit 7 of the first response byte is
// always 0.
func R1Valid(b byte) bool {
	return b&r1InvalidResponses == 0
}

// R1HasError reports whether r1 carries any error flag. Idle state is a
// lifecycle flag, not an error.
func R1HasError(r1 byte) bool {
	return r1&^byte(R1IdleState) != 0
}

// HasTrailing reports whether cmd replies with four trailing register bytes
// after R1 (the R7 interface condition or the R3 OCR).
func HasTrailing(cmd byte) bool {
	return cmd == CmdSendIfCond || cmd == CmdReadOCR
}

// DataResponse is the single token byte the card returns after a write
// payload.
type DataResponse byte

// Accepted reports whether the token's status bits carry the accepted
// pattern.
func (d DataResponse) Accepted() bool {
	return byte(d)&DataRespMask == DataRespAccepted
}

func (d DataResponse) String() string {
	switch byte(d) & DataRespMask {
	case DataRespAccepted:
		return "accepted"
	case DataRespCRCError:
		return "rejected: CRC error"
	case DataRespWriteError:
		return "rejected: write error"
	default:
		return fmt.Sprintf("unknown data response 0x%02X", byte(d))
	}
}
