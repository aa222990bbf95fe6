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
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolP("help", "h", false, "help")
	AddFlags(fs)
	return fs
}

func parse(t *testing.T, args ...string) []Action {
	t.Helper()

	actions, err := ParseArgs(newFlagSet(), args)
	if err != nil {
		t.Fatalf("ParseArgs(%q) failed: %v", args, err)
	}
	return actions
}

func TestParseArgsEachKind(t *testing.T) {
	actions := parse(t,
		"--read-coil", "1",
		"--read-coils", "0", "10",
		"--write-coil", "2", "on",
		"--write-coils", "3", "off", "4", "1",
		"--read-register", "0x10",
		"--read-registers", "0x10", "4",
		"--write-register", "5", "1234",
		"--write-registers", "0x20", "1", "2", "3",
	)

	want := []Action{
		ReadCoil{Address: "1"},
		ReadCoils{Address: "0", Count: "10"},
		WriteCoil{Address: "2", State: "on"},
		WriteCoils{Coils: []WriteCoil{{Address: "3", State: "off"}, {Address: "4", State: "1"}}},
		ReadRegister{Address: "0x10"},
		ReadRegisters{Address: "0x10", Count: "4"},
		WriteRegister{Address: "5", Value: "1234"},
		WriteRegisters{Address: "0x20", Values: []string{"1", "2", "3"}},
	}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("Actions mismatch:\nexpected %#v\ngot      %#v", want, actions)
	}
}

func TestParseArgsInterleavedRepeats(t *testing.T) {
	actions := parse(t,
		"--read-coil", "0",
		"--read-register", "7",
		"--read-coil", "5",
	)

	want := []Action{
		ReadCoil{Address: "0"},
		ReadRegister{Address: "7"},
		ReadCoil{Address: "5"},
	}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("Actions mismatch:\nexpected %#v\ngot      %#v", want, actions)
	}
}

func TestParseArgsWriteCoilsOddCount(t *testing.T) {
	_, err := ParseArgs(newFlagSet(), []string{"--write-coils", "1", "on", "2"})
	if err == nil {
		t.Fatal("Expected an error for an odd number of values")
	}
	if !strings.Contains(err.Error(), "even number") {
		t.Errorf("Error should explain the pairing, got %q", err)
	}
}

func TestParseArgsWriteRegistersShape(t *testing.T) {
	actions := parse(t, "--write-registers", "0x10", "1", "2", "3")

	want := []Action{WriteRegisters{Address: "0x10", Values: []string{"1", "2", "3"}}}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("Actions mismatch:\nexpected %#v\ngot      %#v", want, actions)
	}
}

func TestParseArgsVariadicStopsAtFlag(t *testing.T) {
	fs := newFlagSet()
	actions, err := ParseArgs(fs, []string{
		"--write-registers", "0", "9", "8",
		"--port", "1502",
		"--write-coils", "1", "on",
		"-d",
	})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}

	if len(actions) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(actions))
	}
	if got := actions[0].(WriteRegisters).Values; len(got) != 2 {
		t.Errorf("write-registers values: expected [9 8], got %v", got)
	}
	if port, _ := fs.GetInt(FlagPort); port != 1502 {
		t.Errorf("port: expected 1502, got %d", port)
	}
	if debug, _ := fs.GetBool(FlagDebug); !debug {
		t.Error("debug should be set")
	}
}

func TestParseArgsInlineValue(t *testing.T) {
	actions := parse(t, "--read-coil=0x1A", "--read-coils=4", "8")

	want := []Action{
		ReadCoil{Address: "0x1A"},
		ReadCoils{Address: "4", Count: "8"},
	}
	if !reflect.DeepEqual(actions, want) {
		t.Errorf("Actions mismatch:\nexpected %#v\ngot      %#v", want, actions)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"read-coil without address", []string{"--read-coil"}},
		{"read-coils with one value", []string{"--read-coils", "1"}},
		{"write-coil with one value", []string{"--write-coil", "1", "--debug"}},
		{"write-registers with only address", []string{"--write-registers", "1"}},
		{"extra positional", []string{"--read-coil", "1", "2"}},
		{"unknown flag", []string{"--frobnicate"}},
		{"bad port", []string{"--port", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArgs(newFlagSet(), tt.args); err == nil {
				t.Errorf("ParseArgs(%q): expected error", tt.args)
			}
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := ParseArgs(newFlagSet(), []string{"--read-coil", "1", "-h"})
	if !IsHelp(err) {
		t.Errorf("Expected help request, got %v", err)
	}
}

func TestParseArgsNoActions(t *testing.T) {
	actions := parse(t, "--ip", "10.0.0.5")
	if len(actions) != 0 {
		t.Errorf("Expected no actions, got %v", actions)
	}
}

func TestActionFlagsInUsage(t *testing.T) {
	usage := newFlagSet().FlagUsages()

	for _, want := range []string{"--read-coils addr count", "--write-coils addr state...", "--write-registers addr value..."} {
		if !strings.Contains(usage, want) {
			t.Errorf("Usage should contain %q:\n%s", want, usage)
		}
	}
}
