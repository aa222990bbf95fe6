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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/edgeo-scada/modbus-commander/internal/cli"
	"github.com/muesli/termenv"
)

// Reporter renders outcomes.
type Reporter interface {
	// Begin is called once per action before its outcomes.
	Begin(kind cli.Kind)
	Report(o Outcome)
}

// TextReporter prints one human-readable line per outcome, with addresses
// and values in both hexadecimal and decimal.
type TextReporter struct {
	w io.Writer

	header  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// NewTextReporter returns a TextReporter writing to w. Styling is only
// applied when color is true and w is a terminal.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextReporter{
		w:       w,
		header:  r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (r *TextReporter) Begin(kind cli.Kind) {
	fmt.Fprintln(r.w, r.header.Render("=== "+kind.Title()+" ==="))
}

func (r *TextReporter) Report(o Outcome) {
	switch o.Status() {
	case StatusInvalid:
		r.invalid(o)
	case StatusFailed:
		r.failed(o)
	default:
		r.ok(o)
	}
}

func (r *TextReporter) invalid(o Outcome) {
	var convErr *ConversionError
	if errors.As(o.Err, &convErr) && errors.Is(convErr.Err, ErrInvalidCoilState) {
		fmt.Fprintf(r.w, "Invalid coil state '%s'. Use one of: on|off|true|false|1|0\n", convErr.Input)
		return
	}
	fmt.Fprintf(r.w, "%s %v\n", r.failure.Render("Error:"), o.Err)
}

func (r *TextReporter) failed(o Outcome) {
	failed := r.failure.Render("FAILED")
	switch o.Kind {
	case cli.KindReadCoil:
		fmt.Fprintf(r.w, "Failed to read coil %s: %v\n", formatAddr(o.Address), o.Err)
	case cli.KindReadCoils:
		fmt.Fprintf(r.w, "Failed to read coils %s: %v\n", formatSpan(o.Address, o.Count), o.Err)
	case cli.KindWriteCoil, cli.KindWriteCoils:
		fmt.Fprintf(r.w, "Coil %s = %s (%s): %v\n", formatAddr(o.Address), onOff(firstValue(o)), failed, o.Err)
	case cli.KindReadRegister:
		fmt.Fprintf(r.w, "Failed to read register %s: %v\n", formatAddr(o.Address), o.Err)
	case cli.KindReadRegisters:
		fmt.Fprintf(r.w, "Failed to read registers %s: %v\n", formatSpan(o.Address, o.Count), o.Err)
	case cli.KindWriteRegister:
		fmt.Fprintf(r.w, "Register %s = %s (%s): %v\n", formatAddr(o.Address), formatValue(firstValue(o)), failed, o.Err)
	case cli.KindWriteRegisters:
		fmt.Fprintf(r.w, "Failed to write registers starting at %s: %v\n", formatAddr(o.Address), o.Err)
	default:
		fmt.Fprintf(r.w, "%s %v\n", r.failure.Render("Error:"), o.Err)
	}
}

func (r *TextReporter) ok(o Outcome) {
	success := r.success.Render("SUCCESS")
	switch o.Kind {
	case cli.KindReadCoil:
		v := firstValue(o)
		fmt.Fprintf(r.w, "Coil %s: %s (%t)\n", formatAddr(o.Address), onOff(v), v != 0)
	case cli.KindReadCoils:
		fmt.Fprintf(r.w, "Read %d coils starting at %s:\n", o.Count, formatAddr(o.Address))
		for _, it := range o.Items {
			fmt.Fprintf(r.w, "  Coil %s: %s (%t)\n", formatAddr(it.Address), onOff(it.Value), it.Value != 0)
		}
	case cli.KindWriteCoil, cli.KindWriteCoils:
		fmt.Fprintf(r.w, "Coil %s = %s (%s)\n", formatAddr(o.Address), onOff(firstValue(o)), success)
	case cli.KindReadRegister:
		fmt.Fprintf(r.w, "Register %s: %s\n", formatAddr(o.Address), formatValue(firstValue(o)))
	case cli.KindReadRegisters:
		fmt.Fprintf(r.w, "Read %d registers starting at %s:\n", o.Count, formatAddr(o.Address))
		r.registerLines(o.Items)
	case cli.KindWriteRegister:
		fmt.Fprintf(r.w, "Register %s = %s (%s)\n", formatAddr(o.Address), formatValue(firstValue(o)), success)
	case cli.KindWriteRegisters:
		fmt.Fprintf(r.w, "Successfully wrote %d registers starting at %s:\n", o.Count, formatAddr(o.Address))
		r.registerLines(o.Items)
	}
}

func (r *TextReporter) registerLines(items []Item) {
	for _, it := range items {
		fmt.Fprintf(r.w, "  Register %s: %s\n", formatAddr(it.Address), formatValue(it.Value))
	}
}

func firstValue(o Outcome) uint16 {
	if len(o.Items) == 0 {
		return 0
	}
	return o.Items[0].Value
}

func formatAddr(addr uint16) string {
	return fmt.Sprintf("0x%04X (%d)", addr, addr)
}

func formatSpan(addr uint16, count int) string {
	if count <= 1 {
		return formatAddr(addr)
	}
	last := int(addr) + count - 1
	return fmt.Sprintf("0x%04X-0x%04X (%d-%d)", addr, last, addr, last)
}

func formatValue(v uint16) string {
	return fmt.Sprintf("%d (0x%04X)", v, v)
}

func onOff(v uint16) string {
	if v != 0 {
		return "ON"
	}
	return "OFF"
}

// JSONReporter writes one JSON object per outcome.
type JSONReporter struct {
	enc *json.Encoder
}

// NewJSONReporter returns a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

type jsonItem struct {
	Address uint16 `json:"address"`
	Value   uint16 `json:"value"`
	Hex     string `json:"hex"`
}

type jsonOutcome struct {
	Action  string     `json:"action"`
	Address uint16     `json:"address"`
	Count   int        `json:"count"`
	Status  string     `json:"status"`
	Items   []jsonItem `json:"items,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func (r *JSONReporter) Begin(cli.Kind) {}

func (r *JSONReporter) Report(o Outcome) {
	out := jsonOutcome{
		Action:  o.Kind.String(),
		Address: o.Address,
		Count:   o.Count,
		Status:  o.Status().String(),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, jsonItem{
			Address: it.Address,
			Value:   it.Value,
			Hex:     fmt.Sprintf("0x%04X", it.Value),
		})
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	r.enc.Encode(out)
}
