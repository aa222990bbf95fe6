// Copyright 2025 Edgeo SCADA
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

// Package device opens a Modbus connection through one of the supported
// client libraries and exposes it through a small capability interface.
package device

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Conn is an established connection to a Modbus device.
//
// ReadCoils returns the coil states bit-packed the way they travel on the
// wire: coil address+i is bit i%8 of byte i/8.
type Conn interface {
	ReadCoil(addr uint16) (bool, error)
	ReadCoils(addr, count uint16) ([]byte, error)
	WriteCoil(addr uint16, on bool) error
	ReadRegister(addr uint16) (uint16, error)
	ReadRegisters(addr, count uint16) ([]uint16, error)
	WriteRegister(addr, value uint16) error
	WriteRegisters(addr uint16, values []uint16) error
	Close() error
}

// Driver names a Modbus client library.
type Driver string

// Supported drivers.
const (
	DriverGoburrow    Driver = "goburrow"
	DriverSimonvetter Driver = "simonvetter"
)

// ParseDriver validates a driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverGoburrow, DriverSimonvetter:
		return d, nil
	case "":
		return DriverGoburrow, nil
	default:
		return "", fmt.Errorf("unknown driver %q (want %s or %s)", s, DriverGoburrow, DriverSimonvetter)
	}
}

// Config describes the connection target.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
	UnitID  uint8
	Driver  Driver

	// SerialPort switches to Modbus RTU over the given serial device.
	SerialPort string
	BaudRate   int
}

// Address returns host:port, or the serial device for RTU.
func (c Config) Address() string {
	if c.SerialPort != "" {
		return c.SerialPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Open connects to the device described by cfg. The returned error is a
// *ConnectError when the connection cannot be established.
func Open(cfg Config, opts ...Option) (Conn, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger.With("driver", cfg.Driver, "target", cfg.Address())
	logger.Debug("connecting", "timeout", cfg.Timeout, "unit", cfg.UnitID)

	var (
		conn Conn
		err  error
	)
	switch cfg.Driver {
	case DriverGoburrow, "":
		conn, err = openGoburrow(cfg, logger)
	case DriverSimonvetter:
		conn, err = openSimonvetter(cfg)
	default:
		err = fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, &ConnectError{Target: cfg.Address(), Err: err}
	}

	logger.Debug("connected")
	return conn, nil
}
