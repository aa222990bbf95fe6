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

package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"log/slog"

	bmodbus "github.com/goburrow/modbus"
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// goburrowConn adapts a goburrow client to Conn.
type goburrowConn struct {
	client  bmodbus.Client
	handler io.Closer
}

// goburrowHandler is implemented by both the TCP and RTU client handlers.
type goburrowHandler interface {
	bmodbus.ClientHandler
	Connect() error
	Close() error
}

func openGoburrow(cfg Config, logger *slog.Logger) (*goburrowConn, error) {
	var frameLog *log.Logger
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		frameLog = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	}

	var handler goburrowHandler
	if cfg.SerialPort != "" {
		h := bmodbus.NewRTUClientHandler(cfg.SerialPort)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		h.Logger = frameLog
		handler = h
	} else {
		h := bmodbus.NewTCPClientHandler(cfg.Address())
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		h.Logger = frameLog
		handler = h
	}

	if err := handler.Connect(); err != nil {
		return nil, err
	}

	return &goburrowConn{
		client:  bmodbus.NewClient(handler),
		handler: handler,
	}, nil
}

func (c *goburrowConn) ReadCoil(addr uint16) (bool, error) {
	buf, err := c.ReadCoils(addr, 1)
	if err != nil {
		return false, err
	}
	if len(buf) == 0 {
		return false, fmt.Errorf("%w: empty coil response", ErrShortResponse)
	}
	return buf[0]&0x01 != 0, nil
}

func (c *goburrowConn) ReadCoils(addr, count uint16) ([]byte, error) {
	buf, err := c.client.ReadCoils(addr, count)
	return buf, normalizeError(err)
}

func (c *goburrowConn) WriteCoil(addr uint16, on bool) error {
	value := coilOff
	if on {
		value = coilOn
	}
	_, err := c.client.WriteSingleCoil(addr, value)
	return normalizeError(err)
}

func (c *goburrowConn) ReadRegister(addr uint16) (uint16, error) {
	values, err := c.ReadRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

func (c *goburrowConn) ReadRegisters(addr, count uint16) ([]uint16, error) {
	buf, err := c.client.ReadHoldingRegisters(addr, count)
	if err != nil {
		return nil, normalizeError(err)
	}
	if len(buf) < 2*int(count) {
		return nil, fmt.Errorf("%w: got %d byte(s) for %d registers", ErrShortResponse, len(buf), count)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(buf[2*i:])
	}
	return values, nil
}

func (c *goburrowConn) WriteRegister(addr, value uint16) error {
	_, err := c.client.WriteSingleRegister(addr, value)
	return normalizeError(err)
}

func (c *goburrowConn) WriteRegisters(addr uint16, values []uint16) error {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(buf[2*i:], v)
	}
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(values)), buf)
	return normalizeError(err)
}

func (c *goburrowConn) Close() error {
	return c.handler.Close()
}
