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

package tmr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tmr/detection"
)

// URIScheme is the scheme of reader URIs, as in "tmr:///dev/serial0"
const URIScheme = "tmr"

// ParseURI extracts the device path from a reader URI. A bare path is
// accepted as-is. "tmr://" with no path means auto-detect and returns "".
func ParseURI(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: bad reader URI %q: %v", ErrInvalidParameter, uri, err)
	}
	if u.Scheme != URIScheme {
		return "", fmt.Errorf("%w: unsupported URI scheme %q", ErrInvalidParameter, u.Scheme)
	}

	// tmr://COM3 puts the port in the host part.
	if u.Host != "" {
		return u.Host + u.Path, nil
	}
	return u.Path, nil
}

// FormatURI returns the reader URI for a device path
func FormatURI(path string) string {
	return URIScheme + "://" + path
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for device connection
type connectConfig struct {
	retryConfig            *RetryConfig
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	detectionOptions       *detection.Options
	deviceOptions          []Option
	timeout                time.Duration
	autoDetect             bool
}

// WithAutoDetection enables automatic device detection instead of using a specific path
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithDetectionOptions sets the options used for auto-detection
func WithDetectionOptions(opts detection.Options) ConnectOption {
	return func(c *connectConfig) error {
		c.detectionOptions = &opts
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout sets the per-command timeout used while connecting
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: connect timeout must be positive", ErrInvalidParameter)
		}
		c.timeout = timeout
		return nil
	}
}

// WithConnectRetry sets the retry policy wrapped around the transport
func WithConnectRetry(config *RetryConfig) ConnectOption {
	return func(c *connectConfig) error {
		c.retryConfig = config
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	return config, nil
}

// ConnectDevice creates and initializes a device from a path or auto-detection.
//
// Example usage:
//
//	// Connect to specific device
//	device, err := tmr.ConnectDevice("/dev/ttyUSB0", tmr.WithTransportFactory(newTransport))
//
//	// Auto-detect device
//	device, err := tmr.ConnectDevice("", tmr.WithAutoDetection(),
//	    tmr.WithTransportFromDeviceFactory(newTransportFromDevice))
func ConnectDevice(path string, opts ...ConnectOption) (*Device, error) {
	return ConnectDeviceContext(context.Background(), path, opts...)
}

// ConnectDeviceContext is ConnectDevice with cancellation. A module that
// does not answer produces an error for which IsTimeout is true.
func ConnectDeviceContext(ctx context.Context, path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, err
	}

	transport, err := createTransport(ctx, path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	device, err := setupDevice(ctx, transport, config)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	return device, nil
}

func createTransport(ctx context.Context, path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		return createAutoDetectedTransport(ctx, config)
	}
	return createManualTransport(path, config.transportFactory)
}

func setupDevice(ctx context.Context, transport Transport, config *connectConfig) (*Device, error) {
	wrapped := NewTransportWithRetry(transport, config.retryConfig)

	device, err := New(wrapped, config.deviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.SetTimeout(config.timeout); err != nil {
		return nil, fmt.Errorf("failed to set timeout: %w", err)
	}

	if err := device.InitContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	return device, nil
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport handles auto-detection of devices
func createAutoDetectedTransport(ctx context.Context, config *connectConfig) (Transport, error) {
	opts := detection.DefaultOptions()
	if config.detectionOptions != nil {
		opts = *config.detectionOptions
	}

	devices, err := detection.DetectAllContext(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no serial reader candidates found", ErrDeviceNotFound)
	}

	device := devices[0]
	debugf("auto-detected %s (%s)", device.Path, device.Name)
	if config.transportDeviceFactory == nil {
		return nil, errors.New("transport device factory not provided")
	}
	return config.transportDeviceFactory(device)
}
