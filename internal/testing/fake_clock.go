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

package testing

import "time"

// FakeClock is a deterministic Clock for tests. Every Now call advances the
// clock by Step, modeling the cost of one poll iteration, so busy-poll loops
// written against wall-clock deadlines terminate without real waiting.
type FakeClock struct {
	now   time.Time
	slept time.Duration
	// Step is the simulated cost of one Now call.
	Step time.Duration
}

// NewFakeClock starts a fake clock at a fixed epoch with a 1ms step.
func NewFakeClock() *FakeClock {
	return &FakeClock{
		now:  time.Unix(0, 0),
		Step: time.Millisecond,
	}
}

// Now returns the simulated time, advancing it by Step.
func (c *FakeClock) Now() time.Time {
	c.now = c.now.Add(c.Step)
	return c.now
}

// Sleep advances the simulated time without blocking.
func (c *FakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
}

// Slept reports the total time spent in Sleep, real retry pauses the driver
// would have taken.
func (c *FakeClock) Slept() time.Duration {
	return c.slept
}
