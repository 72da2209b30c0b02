// go-tmr
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tmr.
//
// go-tmr is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tmr is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tmr; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command readtags connects to a Mercury RFID module, reads tags until
// Ctrl-C and prints every EPC it sees with its signal strength.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	tmr "github.com/ZaparooProject/go-tmr"
	"github.com/ZaparooProject/go-tmr/internal/config"
	"github.com/ZaparooProject/go-tmr/session"
)

// exitInterrupted is the conventional status for a SIGINT exit
const exitInterrupted = 130

type flags struct {
	configPath *string
	device     *string
	region     *string
	protocol   *string
	antennas   *string
	onTime     *int
	offTime    *int
	baud       *int
	debug      *bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{
		configPath: fs.String("config", "", "YAML config file (default: $"+config.EnvConfigFile+")"),
		device: fs.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). \"auto\" detects a USB serial bridge."),
		region:   fs.String("region", "", "Region of operation (e.g., NA2, EU3, OPEN)"),
		protocol: fs.String("protocol", "", "Tag protocol (default GEN2)"),
		antennas: fs.String("antennas", "", "Comma separated antenna ports (e.g., 1,2)"),
		onTime:   fs.Int("on", 0, "Search time per cycle in ms"),
		offTime:  fs.Int("off", -1, "Rest time between cycles in ms"),
		baud:     fs.Int("baud", 0, "UART baud rate"),
		debug:    fs.Bool("debug", false, "Enable debug output"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply layers flags that were set over cfg
func (f *flags) apply(cfg *config.Config) error {
	switch *f.device {
	case "":
	case "auto":
		cfg.Reader.DevicePath = ""
	default:
		cfg.Reader.DevicePath = *f.device
	}
	if *f.region != "" {
		cfg.Reader.Region = *f.region
	}
	if *f.protocol != "" {
		cfg.Reader.Protocol = *f.protocol
	}
	if *f.antennas != "" {
		antennas, err := config.ParseAntennas(*f.antennas)
		if err != nil {
			return fmt.Errorf("-antennas: %w", err)
		}
		cfg.Reader.Antennas = antennas
	}
	if *f.onTime != 0 {
		cfg.Reader.OnTimeMs = *f.onTime
	}
	if *f.offTime >= 0 {
		cfg.Reader.OffTimeMs = *f.offTime
	}
	if *f.baud != 0 {
		cfg.Reader.BaudRate = *f.baud
	}
	if *f.debug {
		cfg.Debug = true
	}
	return cfg.Validate()
}

// setupLogging sends log output to a rotating file when one is configured
func setupLogging(cfg config.LogConfig) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.File == "" {
		return io.NopCloser(nil)
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(lj)
	return lj
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	f, err := parseFlags(flag.NewFlagSet("readtags", flag.ContinueOnError), args)
	if err != nil {
		return 2
	}

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := f.apply(cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logCloser := setupLogging(cfg.Log)
	defer func() { _ = logCloser.Close() }()

	if cfg.Debug {
		tmr.SetDebugEnabled(true)
	}

	c, err := session.New(cfg.Reader.DeviceConfig,
		session.TMROpener(cfg.Reader.BaudRate),
		session.WithConsole(stdout),
		session.WithRetryDelay(time.Duration(cfg.Connect.RetryDelayMs)*time.Millisecond),
		session.WithMaxAttempts(cfg.Connect.MaxAttempts),
	)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := c.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		log.Printf("session %s failed: %v", c.ID(), err)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
