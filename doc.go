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

/*
Package sdspi is a block-device driver for SD/MMC cards in SPI mode.

SPI mode is the simplified command/response protocol that SD and MMC cards
expose over an ordinary full-duplex byte bus, as an alternative to the native
multi-wire SD bus. The driver turns any such byte bus plus a chip-select line
into a synchronous 512-byte block read/write interface, including card
bring-up (reset, interface-condition check, operating-condition negotiation,
OCR read) and per-transaction retry and timeout handling.

The physical bus is abstracted behind the Transport interface and injected by
the caller. Two implementations ship with the library: transport/spi drives a
kernel SPI device plus a chip-select GPIO via periph.io, and
transport/buspirate drives a Bus Pirate binary-SPI bridge over a USB serial
port.

Basic usage:

	import (
	    sdspi "github.com/tanvir-commits/go-sdspi"
	    "github.com/tanvir-commits/go-sdspi/transport/spi"
	)

	transport, err := spi.New("/dev/spidev0.0", "GPIO22")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	card, err := sdspi.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := card.Init(); err != nil {
	    log.Fatalf("%v (%s)", err, card.Status())
	}

	buf := make([]byte, sdspi.BlockSize)
	if err := card.ReadBlock(0, buf); err != nil {
	    log.Fatal(err)
	}

The driver is fully synchronous: every operation blocks until it has a
definitive result, and there is no cancellation of an in-flight transaction.
Card is not safe for concurrent I/O; Status, State and IsPresent may be
called from other goroutines.
*/
package sdspi
