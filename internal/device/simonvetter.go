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
	"fmt"

	smodbus "github.com/simonvetter/modbus"
)

// simonvetterConn adapts a simonvetter client to Conn.
type simonvetterConn struct {
	client *smodbus.ModbusClient
}

func openSimonvetter(cfg Config) (*simonvetterConn, error) {
	conf := &smodbus.ClientConfiguration{
		URL:     "tcp://" + cfg.Address(),
		Timeout: cfg.Timeout,
	}
	if cfg.SerialPort != "" {
		conf.URL = "rtu://" + cfg.SerialPort
		conf.Speed = uint(cfg.BaudRate)
		conf.DataBits = 8
		conf.Parity = smodbus.PARITY_NONE
		conf.StopBits = 1
	}

	client, err := smodbus.NewClient(conf)
	if err != nil {
		return nil, err
	}
	if err := client.SetUnitId(cfg.UnitID); err != nil {
		return nil, err
	}
	if err := client.Open(); err != nil {
		return nil, err
	}

	return &simonvetterConn{client: client}, nil
}

func (c *simonvetterConn) ReadCoil(addr uint16) (bool, error) {
	v, err := c.client.ReadCoil(addr)
	return v, normalizeError(err)
}

func (c *simonvetterConn) ReadCoils(addr, count uint16) ([]byte, error) {
	values, err := c.client.ReadCoils(addr, count)
	if err != nil {
		return nil, normalizeError(err)
	}
	if len(values) < int(count) {
		return nil, fmt.Errorf("%w: got %d of %d coils", ErrShortResponse, len(values), count)
	}
	return PackBits(values), nil
}

func (c *simonvetterConn) WriteCoil(addr uint16, on bool) error {
	return normalizeError(c.client.WriteCoil(addr, on))
}

func (c *simonvetterConn) ReadRegister(addr uint16) (uint16, error) {
	v, err := c.client.ReadRegister(addr, smodbus.HOLDING_REGISTER)
	return v, normalizeError(err)
}

func (c *simonvetterConn) ReadRegisters(addr, count uint16) ([]uint16, error) {
	values, err := c.client.ReadRegisters(addr, count, smodbus.HOLDING_REGISTER)
	return values, normalizeError(err)
}

func (c *simonvetterConn) WriteRegister(addr, value uint16) error {
	return normalizeError(c.client.WriteRegister(addr, value))
}

func (c *simonvetterConn) WriteRegisters(addr uint16, values []uint16) error {
	return normalizeError(c.client.WriteRegisters(addr, values))
}

func (c *simonvetterConn) Close() error {
	return c.client.Close()
}
