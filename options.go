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
	"time"
)

// Config contains the timing and retry budgets for a Card. Zero values are
// not valid; start from DefaultConfig.
type Config struct {
	// PowerUpClockBytes is the number of fill bytes clocked with
	// chip-select high before the first command.
	PowerUpClockBytes int
	// PowerUpSettleDelay is the pause after power-up clocking.
	PowerUpSettleDelay time.Duration
	// ResetRetry bounds the GO_IDLE_STATE attempts.
	ResetRetry RetryConfig
	// ResponseByteBudget is the byte budget for R1 polling per command.
	ResponseByteBudget int
	// OpCondTimeout is the wall-clock budget for operating-condition
	// negotiation.
	OpCondTimeout time.Duration
	// OpCondPollDelay is the pause between negotiation polls.
	OpCondPollDelay time.Duration
	// ReadTokenTimeout is the wall-clock budget for the data-start token.
	ReadTokenTimeout time.Duration
	// WriteBusyTimeout is the wall-clock budget for write completion.
	WriteBusyTimeout time.Duration
}

// DefaultConfig returns the stock timing budgets. They match the SD physical
// layer requirements with headroom for slow cards.
func DefaultConfig() *Config {
	return &Config{
		PowerUpClockBytes:  DefaultPowerUpClockBytes,
		PowerUpSettleDelay: DefaultPowerUpSettleDelay,
		ResetRetry: RetryConfig{
			MaxAttempts: DefaultResetAttempts,
			Delay:       DefaultResetRetryDelay,
		},
		ResponseByteBudget: DefaultResponseByteBudget,
		OpCondTimeout:      DefaultOpCondTimeout,
		OpCondPollDelay:    DefaultOpCondPollDelay,
		ReadTokenTimeout:   DefaultReadTokenTimeout,
		WriteBusyTimeout:   DefaultWriteBusyTimeout,
	}
}

// Option configures a Card during New.
type Option func(*Card) error

// WithClock replaces the runtime clock. Tests use this to drive timeout
// loops with a fake clock.
func WithClock(clock Clock) Option {
	return func(c *Card) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}
		c.clock = clock
		return nil
	}
}

// WithConfig replaces the default timing budgets.
func WithConfig(config *Config) Option {
	return func(c *Card) error {
		if config == nil {
			return errors.New("config must not be nil")
		}
		c.config = config
		return nil
	}
}

// WithRetryConfig overrides only the reset retry budget, keeping the other
// defaults.
func WithRetryConfig(retry RetryConfig) Option {
	return func(c *Card) error {
		if retry.MaxAttempts < 1 {
			return errors.New("retry attempts must be at least 1")
		}
		c.config.ResetRetry = retry
		return nil
	}
}
