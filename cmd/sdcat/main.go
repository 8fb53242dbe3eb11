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

// sdcat reads or writes single blocks of an SD card attached over SPI.
//
// Read block 0 from a kernel SPI bus and hex dump it:
//
//	sdcat -device /dev/spidev0.0 -cs GPIO8 -block 0
//
// Write a block through a Bus Pirate, payload on stdin:
//
//	sdcat -buspirate /dev/ttyUSB0 -block 42 -write < payload.bin
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	sdspi "github.com/tanvir-commits/go-sdspi"
	"github.com/tanvir-commits/go-sdspi/transport/buspirate"
	"github.com/tanvir-commits/go-sdspi/transport/spi"
)

type config struct {
	devicePath    string
	csName        string
	busPiratePath string
	block         uint
	write         bool
	raw           bool
	debug         bool
}

// Package-level flag variables
var (
	flagDevicePath    string
	flagCSName        string
	flagBusPiratePath string
	flagBlock         uint
	flagWrite         bool
	flagRaw           bool
	flagDebug         bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "/dev/spidev0.0", "Kernel SPI device path")
	flag.StringVar(&flagCSName, "cs", "GPIO8", "Chip-select GPIO name")
	flag.StringVar(&flagBusPiratePath, "buspirate", "", "Bus Pirate serial port (overrides -device)")
	flag.UintVar(&flagBlock, "block", 0, "Block number to read or write")
	flag.BoolVar(&flagWrite, "write", false, "Write one block from stdin instead of reading")
	flag.BoolVar(&flagRaw, "raw", false, "Emit raw block bytes instead of a hex dump")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath:    flagDevicePath,
		csName:        flagCSName,
		busPiratePath: flagBusPiratePath,
		block:         flagBlock,
		write:         flagWrite,
		raw:           flagRaw,
		debug:         flagDebug,
	}

	if cfg.debug {
		sdspi.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport opens the bus named by the configuration.
func newTransport(cfg *config) (sdspi.Transport, error) {
	if cfg.busPiratePath != "" {
		transport, err := buspirate.New(cfg.busPiratePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bus Pirate transport: %w", err)
		}
		return transport, nil
	}
	transport, err := spi.New(cfg.devicePath, cfg.csName)
	if err != nil {
		return nil, fmt.Errorf("failed to create SPI transport: %w", err)
	}
	return transport, nil
}

// readPayload collects one block of data, zero-padding a short final read.
func readPayload(in io.Reader) ([]byte, error) {
	buf := make([]byte, sdspi.BlockSize)
	n, err := io.ReadFull(in, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if n == 0 {
		return nil, errors.New("empty payload")
	}
	return buf, nil
}

func run(cfg *config, transport sdspi.Transport, in io.Reader, out io.Writer) error {
	card, err := sdspi.New(transport)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	if err := card.Init(); err != nil {
		return fmt.Errorf("card bring-up failed (%s): %w", card.Status(), err)
	}
	if cfg.debug {
		_, _ = fmt.Fprintf(os.Stderr, "Card ready: %s\n", card.Type())
		if id, idErr := card.Identity(); idErr == nil {
			_, _ = fmt.Fprintf(os.Stderr, "Identity: %s\n", id)
		}
		if capacity, capErr := card.Capacity(); capErr == nil {
			_, _ = fmt.Fprintf(os.Stderr, "Capacity: %d bytes\n", capacity)
		}
	}

	block := uint32(cfg.block)
	if cfg.write {
		payload, err := readPayload(in)
		if err != nil {
			return err
		}
		if err := card.WriteBlock(block, payload); err != nil {
			return fmt.Errorf("failed to write block %d: %w", block, err)
		}
		return nil
	}

	buf := make([]byte, sdspi.BlockSize)
	if err := card.ReadBlock(block, buf); err != nil {
		return fmt.Errorf("failed to read block %d: %w", block, err)
	}
	if cfg.raw {
		if _, err := out.Write(buf); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	dumper := hex.Dumper(out)
	if _, err := dumper.Write(buf); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := dumper.Close(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	transport, err := newTransport(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := run(cfg, transport, os.Stdin, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
