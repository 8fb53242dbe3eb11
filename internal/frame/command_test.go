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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGoIdleState(t *testing.T) {
	t.Parallel()
	f := Build(CmdGoIdleState, 0)
	assert.Equal(t, [Length]byte{0x40, 0x00, 0x00, 0x00, 0x00, 0x95}, f)
}

func TestBuildSendIfCond(t *testing.T) {
	t.Parallel()
	f := Build(CmdSendIfCond, CheckPattern)
	assert.Equal(t, [Length]byte{0x48, 0x00, 0x00, 0x01, 0xAA, 0x87}, f)
}

func TestBuildArgumentBigEndian(t *testing.T) {
	t.Parallel()
	f := Build(CmdReadSingleBlock, 0x01020304)
	assert.Equal(t, byte(0x40|17), f[0])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, f[1:5])
	assert.Equal(t, uint32(0x01020304), ParseArg(f[:]))
}

func TestBuildMasksCommandIndex(t *testing.T) {
	t.Parallel()
	// Command indices are 6 bits; anything above must not leak into the
	// transmission bits.
	f := Build(0xFF, 0)
	assert.Equal(t, byte(0x40|0x3F), f[0])
}
