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

package cli

import "fmt"

// Kind identifies one of the supported device actions.
type Kind uint8

// Supported actions, in the order they are listed in the usage text.
const (
	KindReadCoil Kind = iota + 1
	KindReadCoils
	KindWriteCoil
	KindWriteCoils
	KindReadRegister
	KindReadRegisters
	KindWriteRegister
	KindWriteRegisters
)

// String returns the flag name of the action.
func (k Kind) String() string {
	switch k {
	case KindReadCoil:
		return "read-coil"
	case KindReadCoils:
		return "read-coils"
	case KindWriteCoil:
		return "write-coil"
	case KindWriteCoils:
		return "write-coils"
	case KindReadRegister:
		return "read-register"
	case KindReadRegisters:
		return "read-registers"
	case KindWriteRegister:
		return "write-register"
	case KindWriteRegisters:
		return "write-registers"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Title returns the section title printed before the action's results.
func (k Kind) Title() string {
	switch k {
	case KindReadCoil:
		return "Read Coil"
	case KindReadCoils:
		return "Read Coils"
	case KindWriteCoil:
		return "Write Coil"
	case KindWriteCoils:
		return "Write Coil Pairs"
	case KindReadRegister:
		return "Read Register"
	case KindReadRegisters:
		return "Read Registers"
	case KindWriteRegister:
		return "Write Register"
	case KindWriteRegisters:
		return "Write Registers"
	default:
		return k.String()
	}
}

// Action is a single requested device operation. The concrete types below
// carry their arguments as the raw strings given on the command line;
// numeric conversion happens when the action is executed.
type Action interface {
	Kind() Kind
}

// ReadCoil reads one coil.
type ReadCoil struct {
	Address string
}

// ReadCoils reads Count consecutive coils starting at Address.
type ReadCoils struct {
	Address string
	Count   string
}

// WriteCoil sets one coil to the given state token.
type WriteCoil struct {
	Address string
	State   string
}

// WriteCoils holds the address/state pairs of one --write-coils occurrence.
// Each pair is written as an independent single-coil write.
type WriteCoils struct {
	Coils []WriteCoil
}

// ReadRegister reads one holding register.
type ReadRegister struct {
	Address string
}

// ReadRegisters reads Count consecutive holding registers starting at Address.
type ReadRegisters struct {
	Address string
	Count   string
}

// WriteRegister writes one holding register.
type WriteRegister struct {
	Address string
	Value   string
}

// WriteRegisters writes Values to consecutive holding registers starting
// at Address.
type WriteRegisters struct {
	Address string
	Values  []string
}

func (ReadCoil) Kind() Kind       { return KindReadCoil }
func (ReadCoils) Kind() Kind      { return KindReadCoils }
func (WriteCoil) Kind() Kind      { return KindWriteCoil }
func (WriteCoils) Kind() Kind     { return KindWriteCoils }
func (ReadRegister) Kind() Kind   { return KindReadRegister }
func (ReadRegisters) Kind() Kind  { return KindReadRegisters }
func (WriteRegister) Kind() Kind  { return KindWriteRegister }
func (WriteRegisters) Kind() Kind { return KindWriteRegisters }
