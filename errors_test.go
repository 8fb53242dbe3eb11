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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandErrorWrapsSentinel(t *testing.T) {
	t.Parallel()
	err := newCommandError(17, "read", 0x20, ErrProtocolRejected)

	assert.True(t, errors.Is(err, ErrProtocolRejected))
	assert.True(t, IsProtocolRejection(err))
	assert.False(t, IsTimeout(err))

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, byte(17), cmdErr.Cmd)
	assert.Equal(t, byte(0x20), cmdErr.R1)
}

func TestCommandErrorMessage(t *testing.T) {
	t.Parallel()
	err := newCommandError(0, "reset", 0x04, ErrProtocolRejected)
	assert.Contains(t, err.Error(), "CMD0")
	assert.Contains(t, err.Error(), "reset")
	assert.Contains(t, err.Error(), "0x04")
}

func TestClassifierPredicates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err       error
		name      string
		timeout   bool
		rejection bool
		write     bool
	}{
		{newCommandError(8, "response", 0, ErrTimeout), "timeout", true, false, false},
		{newCommandError(8, "voltage check", 1, ErrProtocolRejected), "rejection", false, true, false},
		{newCommandError(24, "data response", 0, ErrWriteRejected), "write", false, false, true},
		{ErrNotReady, "precondition", false, false, false},
		{nil, "nil", false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.timeout, IsTimeout(tt.err))
			assert.Equal(t, tt.rejection, IsProtocolRejection(tt.err))
			assert.Equal(t, tt.write, IsWriteRejection(tt.err))
		})
	}
}
