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

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/edgeo-scada/modbus-commander/internal/device"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Connection and output flag names. They double as viper keys.
const (
	FlagIP      = "ip"
	FlagPort    = "port"
	FlagTimeout = "timeout"
	FlagDebug   = "debug"
	FlagUnit    = "unit"
	FlagDriver  = "driver"
	FlagSerial  = "serial"
	FlagBaud    = "baud"
	FlagOutput  = "output"
	FlagNoColor = "no-color"
)

// Defaults for the connection flags.
const (
	DefaultAddress  = "192.168.1.2"
	DefaultPort     = 502
	DefaultTimeout  = 3
	DefaultUnitID   = 1
	DefaultBaudRate = 9600
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

var boundFlags = []string{
	FlagIP, FlagPort, FlagTimeout, FlagDebug, FlagUnit,
	FlagDriver, FlagSerial, FlagBaud, FlagOutput, FlagNoColor,
}

// ConnectionParams holds everything needed to open the device connection.
type ConnectionParams struct {
	Address        string
	Port           int
	TimeoutSeconds int
	UnitID         uint8

	// SerialPort selects Modbus RTU on the given device instead of TCP.
	SerialPort string
	BaudRate   int
}

// Timeout returns the response timeout as a duration.
func (p ConnectionParams) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Target returns the human-readable connection target.
func (p ConnectionParams) Target() string {
	if p.SerialPort != "" {
		return p.SerialPort
	}
	return net.JoinHostPort(p.Address, strconv.Itoa(p.Port))
}

// Options is the fully parsed command line.
type Options struct {
	Connection ConnectionParams
	Driver     device.Driver
	Debug      bool
	Output     string
	NoColor    bool
	Actions    []Action
}

// AddFlags registers the connection, output and action flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagIP, "i", DefaultAddress, "IP address of the Modbus device")
	fs.IntP(FlagPort, "p", DefaultPort, "Modbus TCP port")
	fs.IntP(FlagTimeout, "t", DefaultTimeout, "Response timeout in seconds")
	fs.BoolP(FlagDebug, "d", false, "Enable debug output")
	fs.Uint8P(FlagUnit, "u", DefaultUnitID, "Modbus unit (slave) ID (1-247)")
	fs.String(FlagDriver, string(device.DriverGoburrow), "Modbus client driver: goburrow, simonvetter")
	fs.String(FlagSerial, "", "Serial device for Modbus RTU, replaces --ip/--port")
	fs.Int(FlagBaud, DefaultBaudRate, "Serial baud rate for Modbus RTU")
	fs.StringP(FlagOutput, "o", OutputText, "Output format: text, json")
	fs.Bool(FlagNoColor, false, "Disable color output")

	for i := range actionDefs {
		def := &actionDefs[i]
		fs.Var(actionFlag{def: def}, def.kind.String(), def.usage)
	}
}

// BindFlags binds the connection and output flags into v so that values can
// also come from the environment or a config file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, name := range boundFlags {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// LoadOptions resolves the bound settings from v and validates them.
func LoadOptions(v *viper.Viper, actions []Action) (*Options, error) {
	opts := &Options{
		Connection: ConnectionParams{
			Address:        v.GetString(FlagIP),
			Port:           v.GetInt(FlagPort),
			TimeoutSeconds: v.GetInt(FlagTimeout),
			SerialPort:     v.GetString(FlagSerial),
			BaudRate:       v.GetInt(FlagBaud),
		},
		Debug:   v.GetBool(FlagDebug),
		Output:  strings.ToLower(v.GetString(FlagOutput)),
		NoColor: v.GetBool(FlagNoColor),
		Actions: actions,
	}

	if opts.Connection.Address == "" && opts.Connection.SerialPort == "" {
		return nil, fmt.Errorf("--%s must not be empty", FlagIP)
	}
	if p := opts.Connection.Port; p < 1 || p > 65535 {
		return nil, fmt.Errorf("--%s must be between 1 and 65535, got %d", FlagPort, p)
	}
	if opts.Connection.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("--%s must not be negative, got %d", FlagTimeout, opts.Connection.TimeoutSeconds)
	}
	unit := v.GetInt(FlagUnit)
	if unit < 1 || unit > 247 {
		return nil, fmt.Errorf("--%s must be between 1 and 247, got %d", FlagUnit, unit)
	}
	opts.Connection.UnitID = uint8(unit)
	if opts.Connection.SerialPort != "" && opts.Connection.BaudRate <= 0 {
		return nil, fmt.Errorf("--%s must be positive, got %d", FlagBaud, opts.Connection.BaudRate)
	}

	driver, err := device.ParseDriver(v.GetString(FlagDriver))
	if err != nil {
		return nil, err
	}
	opts.Driver = driver

	switch opts.Output {
	case OutputText, OutputJSON:
	default:
		return nil, fmt.Errorf("--%s must be %s or %s, got %q", FlagOutput, OutputText, OutputJSON, opts.Output)
	}

	return opts, nil
}

// Dump renders the options for the debug banner.
func Dump(o *Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ip_address: %s\n", o.Connection.Address)
	fmt.Fprintf(&sb, "port: %d\n", o.Connection.Port)
	fmt.Fprintf(&sb, "timeout_seconds: %d\n", o.Connection.TimeoutSeconds)
	fmt.Fprintf(&sb, "unit_id: %d\n", o.Connection.UnitID)
	if o.Connection.SerialPort != "" {
		fmt.Fprintf(&sb, "serial: %s (%d baud)\n", o.Connection.SerialPort, o.Connection.BaudRate)
	}
	fmt.Fprintf(&sb, "driver: %s\n", o.Driver)
	fmt.Fprintf(&sb, "debug: %t\n", o.Debug)
	sb.WriteString("actions:\n")
	if len(o.Actions) == 0 {
		sb.WriteString("  (none)\n")
		return sb.String()
	}
	for _, a := range o.Actions {
		fmt.Fprintf(&sb, "  - %s %s\n", a.Kind(), strings.Join(actionArgs(a), " "))
	}
	return sb.String()
}

func actionArgs(a Action) []string {
	switch a := a.(type) {
	case ReadCoil:
		return []string{a.Address}
	case ReadCoils:
		return []string{a.Address, a.Count}
	case WriteCoil:
		return []string{a.Address, a.State}
	case WriteCoils:
		args := make([]string, 0, 2*len(a.Coils))
		for _, c := range a.Coils {
			args = append(args, c.Address, c.State)
		}
		return args
	case ReadRegister:
		return []string{a.Address}
	case ReadRegisters:
		return []string{a.Address, a.Count}
	case WriteRegister:
		return []string{a.Address, a.Value}
	case WriteRegisters:
		return append([]string{a.Address}, a.Values...)
	default:
		return nil
	}
}
