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
	"errors"
	"fmt"

	bmodbus "github.com/goburrow/modbus"
	smodbus "github.com/simonvetter/modbus"
)

// ExceptionCode represents a Modbus exception code.
type ExceptionCode uint8

// Modbus exception codes.
const (
	ExceptionIllegalFunction                    ExceptionCode = 0x01
	ExceptionIllegalDataAddress                 ExceptionCode = 0x02
	ExceptionIllegalDataValue                   ExceptionCode = 0x03
	ExceptionServerDeviceFailure                ExceptionCode = 0x04
	ExceptionAcknowledge                        ExceptionCode = 0x05
	ExceptionServerDeviceBusy                   ExceptionCode = 0x06
	ExceptionMemoryParityError                  ExceptionCode = 0x08
	ExceptionGatewayPathUnavailable             ExceptionCode = 0x0A
	ExceptionGatewayTargetDeviceFailedToRespond ExceptionCode = 0x0B
)

// String returns the string representation of the exception code.
func (e ExceptionCode) String() string {
	switch e {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionServerDeviceFailure:
		return "server device failure"
	case ExceptionAcknowledge:
		return "acknowledge"
	case ExceptionServerDeviceBusy:
		return "server device busy"
	case ExceptionMemoryParityError:
		return "memory parity error"
	case ExceptionGatewayPathUnavailable:
		return "gateway path unavailable"
	case ExceptionGatewayTargetDeviceFailedToRespond:
		return "gateway target device failed to respond"
	default:
		return fmt.Sprintf("unknown exception (0x%02X)", uint8(e))
	}
}

// ExceptionError is an exception response reported by the device. Both
// drivers translate their library's exception errors into this type.
type ExceptionError struct {
	Code ExceptionCode
}

// Error implements the error interface.
func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception 0x%02X: %s", uint8(e.Code), e.Code)
}

// Is matches another *ExceptionError with the same code.
func (e *ExceptionError) Is(target error) bool {
	t, ok := target.(*ExceptionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsException checks if an error is a specific Modbus exception.
func IsException(err error, code ExceptionCode) bool {
	var exc *ExceptionError
	if errors.As(err, &exc) {
		return exc.Code == code
	}
	return false
}

// ConnectError reports a failure to establish the device connection.
type ConnectError struct {
	Target string
	Err    error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to device at %s: %v", e.Target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ErrShortResponse indicates the device returned fewer values than requested.
var ErrShortResponse = errors.New("short response")

var simonvetterExceptions = map[smodbus.Error]ExceptionCode{
	smodbus.ErrIllegalFunction:         ExceptionIllegalFunction,
	smodbus.ErrIllegalDataAddress:      ExceptionIllegalDataAddress,
	smodbus.ErrIllegalDataValue:        ExceptionIllegalDataValue,
	smodbus.ErrServerDeviceFailure:     ExceptionServerDeviceFailure,
	smodbus.ErrAcknowledge:             ExceptionAcknowledge,
	smodbus.ErrServerDeviceBusy:        ExceptionServerDeviceBusy,
	smodbus.ErrMemoryParityError:       ExceptionMemoryParityError,
	smodbus.ErrGWPathUnavailable:       ExceptionGatewayPathUnavailable,
	smodbus.ErrGWTargetFailedToRespond: ExceptionGatewayTargetDeviceFailedToRespond,
}

// normalizeError maps library exception errors to *ExceptionError and
// passes everything else through unchanged.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}

	var gbErr *bmodbus.ModbusError
	if errors.As(err, &gbErr) {
		return &ExceptionError{Code: ExceptionCode(gbErr.ExceptionCode)}
	}

	var svErr smodbus.Error
	if errors.As(err, &svErr) {
		if code, ok := simonvetterExceptions[svErr]; ok {
			return &ExceptionError{Code: code}
		}
	}

	return err
}
