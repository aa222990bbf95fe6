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

package devicetest

import (
	"github.com/edgeo-scada/modbus-commander/internal/device"
)

// Call records one operation received by a Fake.
type Call struct {
	Op     string
	Addr   uint16
	Count  uint16
	On     bool
	Values []uint16
}

// Fake is an in-memory device.Conn that records every call.
type Fake struct {
	Coils     map[uint16]bool
	Registers map[uint16]uint16

	// Fail makes any operation whose base address is a key return the error.
	Fail map[uint16]error

	Calls  []Call
	Closed bool
}

var _ device.Conn = (*Fake)(nil)

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Coils:     make(map[uint16]bool),
		Registers: make(map[uint16]uint16),
		Fail:      make(map[uint16]error),
	}
}

func (f *Fake) record(c Call) error {
	f.Calls = append(f.Calls, c)
	return f.Fail[c.Addr]
}

func (f *Fake) ReadCoil(addr uint16) (bool, error) {
	if err := f.record(Call{Op: "ReadCoil", Addr: addr, Count: 1}); err != nil {
		return false, err
	}
	return f.Coils[addr], nil
}

func (f *Fake) ReadCoils(addr, count uint16) ([]byte, error) {
	if err := f.record(Call{Op: "ReadCoils", Addr: addr, Count: count}); err != nil {
		return nil, err
	}
	values := make([]bool, count)
	for i := range values {
		values[i] = f.Coils[addr+uint16(i)]
	}
	return device.PackBits(values), nil
}

func (f *Fake) WriteCoil(addr uint16, on bool) error {
	if err := f.record(Call{Op: "WriteCoil", Addr: addr, Count: 1, On: on}); err != nil {
		return err
	}
	f.Coils[addr] = on
	return nil
}

func (f *Fake) ReadRegister(addr uint16) (uint16, error) {
	if err := f.record(Call{Op: "ReadRegister", Addr: addr, Count: 1}); err != nil {
		return 0, err
	}
	return f.Registers[addr], nil
}

func (f *Fake) ReadRegisters(addr, count uint16) ([]uint16, error) {
	if err := f.record(Call{Op: "ReadRegisters", Addr: addr, Count: count}); err != nil {
		return nil, err
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = f.Registers[addr+uint16(i)]
	}
	return values, nil
}

func (f *Fake) WriteRegister(addr, value uint16) error {
	if err := f.record(Call{Op: "WriteRegister", Addr: addr, Count: 1, Values: []uint16{value}}); err != nil {
		return err
	}
	f.Registers[addr] = value
	return nil
}

func (f *Fake) WriteRegisters(addr uint16, values []uint16) error {
	c := Call{Op: "WriteRegisters", Addr: addr, Count: uint16(len(values)), Values: append([]uint16(nil), values...)}
	if err := f.record(c); err != nil {
		return err
	}
	for i, v := range values {
		f.Registers[addr+uint16(i)] = v
	}
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
