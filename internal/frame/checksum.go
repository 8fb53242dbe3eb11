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

// CRC7 computes the 7-bit CRC over data, polynomial x^7 + x^3 + 1, as used
// for SD command frames.
func CRC7(data []byte) byte {
	crc := byte(0)
	for _, b := range data {
		for n := 0; n < 8; n++ {
			crc <<= 1
			if (b^crc)&0x80 != 0 {
				crc ^= 0x09
			}
			b <<= 1
		}
	}
	return crc & 0x7F
}

// CommandCRC returns the trailing byte of a command frame: the CRC7 of the
// first five bytes, left-shifted with the end bit set.
func CommandCRC(data []byte) byte {
	return CRC7(data)<<1 | 0x01
}
