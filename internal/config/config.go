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

// Package config loads readtags settings from defaults, an optional YAML
// file and TMR_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ZaparooProject/go-tmr/session"
	"github.com/ZaparooProject/go-tmr/transport/uart"
)

// EnvConfigFile names the YAML file to load when no path is given
const EnvConfigFile = "TMR_CONFIG"

// Config represents the complete readtags configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Reader  ReaderConfig  `yaml:"reader"`
	Connect ConnectConfig `yaml:"connect"`
	Debug   bool          `yaml:"debug"`
}

// ReaderConfig holds the reader and read plan settings
type ReaderConfig struct {
	session.DeviceConfig `yaml:",inline"`
	BaudRate             int `yaml:"baud_rate"`
}

// ConnectConfig holds connection retry settings
type ConnectConfig struct {
	RetryDelayMs int `yaml:"retry_delay_ms"`
	MaxAttempts  int `yaml:"max_attempts"` // 0 retries forever
}

// LogConfig holds log file settings. An empty File logs to stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			DeviceConfig: session.DefaultDeviceConfig(),
			BaudRate:     uart.DefaultBaudRate,
		},
		Connect: ConnectConfig{
			RetryDelayMs: int(session.DefaultRetryDelay.Milliseconds()),
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. path, or TMR_CONFIG when path is empty,
// names an optional YAML file layered over the defaults. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfigFile)
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile layers the YAML file at path over cfg
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies TMR_* environment variables
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv("TMR_DEVICE"); v != "" {
		cfg.Reader.DevicePath = v
	}
	if v := getenv("TMR_REGION"); v != "" {
		cfg.Reader.Region = v
	}
	if v := getenv("TMR_PROTOCOL"); v != "" {
		cfg.Reader.Protocol = v
	}
	if v := getenv("TMR_ANTENNAS"); v != "" {
		antennas, err := ParseAntennas(v)
		if err != nil {
			return fmt.Errorf("TMR_ANTENNAS: %w", err)
		}
		cfg.Reader.Antennas = antennas
	}

	ints := []struct {
		dst *int
		key string
	}{
		{key: "TMR_BAUD_RATE", dst: &cfg.Reader.BaudRate},
		{key: "TMR_ON_TIME_MS", dst: &cfg.Reader.OnTimeMs},
		{key: "TMR_OFF_TIME_MS", dst: &cfg.Reader.OffTimeMs},
		{key: "TMR_RETRY_DELAY_MS", dst: &cfg.Connect.RetryDelayMs},
		{key: "TMR_MAX_ATTEMPTS", dst: &cfg.Connect.MaxAttempts},
	}
	for _, e := range ints {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := getenv("TMR_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := getenv("TMR_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TMR_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}
	return nil
}

// ParseAntennas parses a comma separated antenna list such as "1,2"
func ParseAntennas(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	antennas := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad antenna %q: %w", p, err)
		}
		antennas = append(antennas, n)
	}
	return antennas, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := c.Reader.Validate(); err != nil {
		return err
	}
	if !uart.IsSupportedBaudRate(c.Reader.BaudRate) {
		return fmt.Errorf("unsupported baud rate %d", c.Reader.BaudRate)
	}
	if c.Connect.RetryDelayMs < 0 {
		return errors.New("connect.retry_delay_ms must not be negative")
	}
	if c.Connect.MaxAttempts < 0 {
		return errors.New("connect.max_attempts must not be negative")
	}
	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return errors.New("log.max_size_mb must be positive")
	}
	return nil
}
