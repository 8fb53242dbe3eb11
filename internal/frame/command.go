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

import "encoding/binary"

// Build assembles the 6-byte command frame: transmission bits OR'd with the
// 6-bit command index, the 32-bit argument big-endian, and the CRC7 byte.
// The CRC is computed for every command, so CMD0 and CMD8 (the two commands
// the card checks before CRC can be disabled) are correct by construction.
func Build(cmd byte, arg uint32) [Length]byte {
	var f [Length]byte
	f[0] = TransmissionBits | (cmd & 0x3F)
	binary.BigEndian.PutUint32(f[1:5], arg)
	f[5] = CommandCRC(f[:5])
	return f
}

// ParseArg extracts the big-endian 32-bit argument from a command frame.
func ParseArg(f []byte) uint32 {
	return binary.BigEndian.Uint32(f[1:5])
}
