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

// Package dispatch executes parsed actions against a device connection.
package dispatch

import (
	"log/slog"
	"time"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
	"github.com/edgeo-scada/modbus-commander/internal/device"
)

// Dispatcher runs actions in order over a single connection. A failing
// record is reported and never stops the run.
type Dispatcher struct {
	conn    device.Conn
	report  Reporter
	metrics *Metrics
	logger  *slog.Logger
}

// Option is a functional option for New.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-request debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics the dispatcher records into.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// New creates a Dispatcher.
func New(conn device.Conn, report Reporter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		conn:    conn,
		report:  report,
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Metrics returns the run metrics.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Run executes every action in order.
func (d *Dispatcher) Run(actions []cli.Action) {
	for _, a := range actions {
		d.report.Begin(a.Kind())

		switch a := a.(type) {
		case cli.ReadCoil:
			d.emit(d.readCoil(a))
		case cli.ReadCoils:
			d.emit(d.readCoils(a))
		case cli.WriteCoil:
			d.emit(d.writeCoil(cli.KindWriteCoil, a))
		case cli.WriteCoils:
			for _, c := range a.Coils {
				d.emit(d.writeCoil(cli.KindWriteCoils, c))
			}
		case cli.ReadRegister:
			d.emit(d.readRegister(a))
		case cli.ReadRegisters:
			d.emit(d.readRegisters(a))
		case cli.WriteRegister:
			d.emit(d.writeRegister(a))
		case cli.WriteRegisters:
			d.emit(d.writeRegisters(a))
		default:
			d.logger.Warn("unsupported action", "kind", a.Kind())
		}
	}
}

func (d *Dispatcher) emit(o Outcome) {
	d.metrics.record(o)
	if o.Err != nil {
		d.logger.Debug("record failed", "action", o.Kind, "address", o.Address, "status", o.Status(), "error", o.Err)
	}
	d.report.Report(o)
}

// call times one device round-trip.
func (d *Dispatcher) call(kind cli.Kind, addr uint16, fn func() error) error {
	d.logger.Debug("request", "action", kind, "address", addr)
	start := time.Now()
	err := fn()
	d.metrics.Latency.Observe(time.Since(start))
	return err
}

func (d *Dispatcher) readCoil(a cli.ReadCoil) Outcome {
	o := Outcome{Kind: cli.KindReadCoil, Count: 1}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr

	var on bool
	o.Err = d.call(o.Kind, addr, func() (err error) {
		on, err = d.conn.ReadCoil(addr)
		return err
	})
	if o.Err == nil {
		o.Items = coilItems(addr, []bool{on})
	}
	return o
}

func (d *Dispatcher) readCoils(a cli.ReadCoils) Outcome {
	o := Outcome{Kind: cli.KindReadCoils}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr
	count, err := parseCount(a.Count, addr)
	if err != nil {
		o.Err = err
		return o
	}
	o.Count = int(count)

	var buf []byte
	o.Err = d.call(o.Kind, addr, func() (err error) {
		buf, err = d.conn.ReadCoils(addr, count)
		return err
	})
	if o.Err != nil {
		return o
	}

	states, err := device.UnpackBits(buf, o.Count)
	if err != nil {
		o.Err = err
		return o
	}
	o.Items = coilItems(addr, states)
	return o
}

func (d *Dispatcher) writeCoil(kind cli.Kind, a cli.WriteCoil) Outcome {
	o := Outcome{Kind: kind, Count: 1}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr
	on, err := parseState(a.State)
	if err != nil {
		o.Err = err
		return o
	}
	o.Items = coilItems(addr, []bool{on})

	o.Err = d.call(kind, addr, func() error {
		return d.conn.WriteCoil(addr, on)
	})
	return o
}

func (d *Dispatcher) readRegister(a cli.ReadRegister) Outcome {
	o := Outcome{Kind: cli.KindReadRegister, Count: 1}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr

	var v uint16
	o.Err = d.call(o.Kind, addr, func() (err error) {
		v, err = d.conn.ReadRegister(addr)
		return err
	})
	if o.Err == nil {
		o.Items = registerItems(addr, []uint16{v})
	}
	return o
}

func (d *Dispatcher) readRegisters(a cli.ReadRegisters) Outcome {
	o := Outcome{Kind: cli.KindReadRegisters}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr
	count, err := parseCount(a.Count, addr)
	if err != nil {
		o.Err = err
		return o
	}
	o.Count = int(count)

	var values []uint16
	o.Err = d.call(o.Kind, addr, func() (err error) {
		values, err = d.conn.ReadRegisters(addr, count)
		return err
	})
	if o.Err != nil {
		return o
	}
	if len(values) < o.Count {
		o.Err = device.ErrShortResponse
		return o
	}
	o.Items = registerItems(addr, values[:o.Count])
	return o
}

func (d *Dispatcher) writeRegister(a cli.WriteRegister) Outcome {
	o := Outcome{Kind: cli.KindWriteRegister, Count: 1}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr
	v, err := parseValue(a.Value)
	if err != nil {
		o.Err = err
		return o
	}
	o.Items = registerItems(addr, []uint16{v})

	o.Err = d.call(o.Kind, addr, func() error {
		return d.conn.WriteRegister(addr, v)
	})
	return o
}

func (d *Dispatcher) writeRegisters(a cli.WriteRegisters) Outcome {
	o := Outcome{Kind: cli.KindWriteRegisters, Count: len(a.Values)}

	addr, err := parseAddress(a.Address)
	if err != nil {
		o.Err = err
		return o
	}
	o.Address = addr
	if err := checkSpan(addr, len(a.Values)); err != nil {
		o.Err = &ConversionError{Field: "register run", Input: a.Address, Err: err}
		return o
	}

	values := make([]uint16, len(a.Values))
	for i, s := range a.Values {
		if values[i], err = parseValue(s); err != nil {
			o.Err = err
			return o
		}
	}
	o.Items = registerItems(addr, values)

	o.Err = d.call(o.Kind, addr, func() error {
		return d.conn.WriteRegisters(addr, values)
	})
	return o
}
