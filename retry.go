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

// RetryConfig bounds a retried card transaction. Retries are always finite:
// MaxAttempts is the total number of attempts, never an open-ended loop.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (minimum 1).
	MaxAttempts int
	// Delay is the pause between attempts, taken from the injected clock.
	Delay time.Duration
}

// retryWithConfig executes fn up to config.MaxAttempts times, sleeping
// config.Delay between attempts. It returns nil on the first success,
// otherwise the error from the final attempt.
func retryWithConfig(clock Clock, config RetryConfig, fn func() error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && config.Delay > 0 {
			clock.Sleep(config.Delay)
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
