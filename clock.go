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

// Clock supplies the monotonic time source used to bound wall-clock waits
// (operating-condition negotiation, data-token wait, write-busy wait).
// Injecting it keeps every timeout loop testable against a fake clock
// instead of real elapsed time.
type Clock interface {
	// Now returns the current time. It must be non-decreasing.
	Now() time.Time

	// Sleep blocks for at least the given duration.
	Sleep(d time.Duration)
}

// realClock is the default Clock backed by the runtime clock.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
