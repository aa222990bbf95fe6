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
	"fmt"
	"strconv"
	"strings"
)

// Conversion errors.
var (
	// ErrInvalidCoilState indicates a state token other than on/off/true/false/1/0.
	ErrInvalidCoilState = errors.New("invalid coil state")

	// ErrInvalidCount indicates a zero count.
	ErrInvalidCount = errors.New("count must be at least 1")

	// ErrAddressRange indicates a span running past address 0xFFFF.
	ErrAddressRange = errors.New("address range exceeds 0xFFFF")
)

// ConversionError reports an argument that could not be converted.
type ConversionError struct {
	Field string
	Input string
	Err   error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Input, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ParseUint16 parses a decimal, 0x hexadecimal, 0b binary or 0o octal
// number that fits in 16 bits.
func ParseUint16(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	var (
		value uint64
		err   error
	)
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		value, err = strconv.ParseUint(s[2:], 16, 16)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		value, err = strconv.ParseUint(s[2:], 2, 16)
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		value, err = strconv.ParseUint(s[2:], 8, 16)
	default:
		value, err = strconv.ParseUint(s, 10, 16)
	}
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, err
	}
	return uint16(value), nil
}

// ParseCoilState parses a coil state token, case-insensitively.
func ParseCoilState(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, ErrInvalidCoilState
	}
}

func parseAddress(s string) (uint16, error) {
	v, err := ParseUint16(s)
	if err != nil {
		return 0, &ConversionError{Field: "address", Input: s, Err: err}
	}
	return v, nil
}

func parseValue(s string) (uint16, error) {
	v, err := ParseUint16(s)
	if err != nil {
		return 0, &ConversionError{Field: "value", Input: s, Err: err}
	}
	return v, nil
}

func parseState(s string) (bool, error) {
	on, err := ParseCoilState(s)
	if err != nil {
		return false, &ConversionError{Field: "coil state", Input: s, Err: err}
	}
	return on, nil
}

// parseCount parses a count and checks that addr..addr+count-1 stays
// inside the 16-bit address space.
func parseCount(s string, addr uint16) (uint16, error) {
	n, err := ParseUint16(s)
	if err != nil {
		return 0, &ConversionError{Field: "count", Input: s, Err: err}
	}
	if n == 0 {
		return 0, &ConversionError{Field: "count", Input: s, Err: ErrInvalidCount}
	}
	if err := checkSpan(addr, int(n)); err != nil {
		return 0, &ConversionError{Field: "count", Input: s, Err: err}
	}
	return n, nil
}

func checkSpan(addr uint16, n int) error {
	if int(addr)+n-1 > 0xFFFF {
		return fmt.Errorf("%w: 0x%04X + %d", ErrAddressRange, addr, n)
	}
	return nil
}
