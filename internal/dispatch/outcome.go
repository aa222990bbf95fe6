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

package dispatch

import (
	"errors"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
)

// Status classifies an outcome.
type Status uint8

const (
	// StatusOK means the device operation succeeded.
	StatusOK Status = iota
	// StatusFailed means the device or the library reported an error.
	StatusFailed
	// StatusInvalid means an argument could not be converted and the
	// device was not contacted.
	StatusInvalid
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Item is one coil or register of an outcome. Coil states are 0 or 1.
type Item struct {
	Address uint16
	Value   uint16
}

// Outcome is the result of executing one argument record.
type Outcome struct {
	Kind    cli.Kind
	Address uint16
	Count   int

	// Items holds the values read, or the values that were to be written.
	Items []Item
	Err   error
}

// Status classifies the outcome by its error.
func (o Outcome) Status() Status {
	var convErr *ConversionError
	switch {
	case o.Err == nil:
		return StatusOK
	case errors.As(o.Err, &convErr):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

func coilItems(addr uint16, states []bool) []Item {
	items := make([]Item, len(states))
	for i, on := range states {
		items[i] = Item{Address: addr + uint16(i), Value: boolValue(on)}
	}
	return items
}

func registerItems(addr uint16, values []uint16) []Item {
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{Address: addr + uint16(i), Value: v}
	}
	return items
}

func boolValue(on bool) uint16 {
	if on {
		return 1
	}
	return 0
}
