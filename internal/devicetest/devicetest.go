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

// Package devicetest provides an in-memory Modbus TCP server and a fake
// device.Conn for tests.
package devicetest

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	smodbus "github.com/simonvetter/modbus"
)

// Limit is the first coil/register address the memory server rejects with
// an illegal data address exception.
const Limit = 1024

// Memory is a coil and holding register bank served over Modbus TCP.
type Memory struct {
	mu        sync.Mutex
	coils     [Limit]bool
	registers [Limit]uint16
}

// SetCoil sets a coil value.
func (m *Memory) SetCoil(addr uint16, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coils[addr] = v
}

// Coil returns a coil value.
func (m *Memory) Coil(addr uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coils[addr]
}

// SetRegister sets a holding register value.
func (m *Memory) SetRegister(addr, v uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[addr] = v
}

// Register returns a holding register value.
func (m *Memory) Register(addr uint16) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registers[addr]
}

func inRange(addr, quantity uint16) bool {
	return int(addr)+int(quantity) <= Limit
}

// HandleCoils implements smodbus.RequestHandler.
func (m *Memory) HandleCoils(req *smodbus.CoilsRequest) ([]bool, error) {
	if !inRange(req.Addr, req.Quantity) {
		return nil, smodbus.ErrIllegalDataAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.IsWrite {
		for i, v := range req.Args {
			m.coils[int(req.Addr)+i] = v
		}
		return nil, nil
	}
	out := make([]bool, req.Quantity)
	copy(out, m.coils[req.Addr:])
	return out, nil
}

// HandleDiscreteInputs implements smodbus.RequestHandler.
func (m *Memory) HandleDiscreteInputs(*smodbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, smodbus.ErrIllegalFunction
}

// HandleHoldingRegisters implements smodbus.RequestHandler.
func (m *Memory) HandleHoldingRegisters(req *smodbus.HoldingRegistersRequest) ([]uint16, error) {
	if !inRange(req.Addr, req.Quantity) {
		return nil, smodbus.ErrIllegalDataAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.IsWrite {
		for i, v := range req.Args {
			m.registers[int(req.Addr)+i] = v
		}
		return nil, nil
	}
	out := make([]uint16, req.Quantity)
	copy(out, m.registers[req.Addr:])
	return out, nil
}

// HandleInputRegisters implements smodbus.RequestHandler.
func (m *Memory) HandleInputRegisters(*smodbus.InputRegistersRequest) ([]uint16, error) {
	return nil, smodbus.ErrIllegalFunction
}

// StartServer serves a fresh Memory on a free loopback port until the test
// ends.
func StartServer(t testing.TB) (mem *Memory, host string, port int) {
	t.Helper()

	port = FreePort(t)
	host = "127.0.0.1"
	mem = &Memory{}

	srv, err := smodbus.NewServer(&smodbus.ServerConfiguration{
		URL:        fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout:    5 * time.Second,
		MaxClients: 4,
	}, mem)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return mem, host, port
}

// FreePort returns a loopback TCP port that nothing listens on.
func FreePort(t testing.TB) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}
