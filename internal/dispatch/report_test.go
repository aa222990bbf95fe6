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
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
	"github.com/edgeo-scada/modbus-commander/internal/devicetest"
)

func TestJSONReporter(t *testing.T) {
	fake := devicetest.NewFake()
	fake.Registers[16] = 0x00FF

	var buf bytes.Buffer
	d := New(fake, NewJSONReporter(&buf), WithLogger(quietLogger))
	d.Run([]cli.Action{
		cli.ReadRegisters{Address: "0x10", Count: "2"},
		cli.WriteCoil{Address: "1", State: "nope"},
	})

	var outcomes []jsonOutcome
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var o jsonOutcome
		if err := json.Unmarshal(sc.Bytes(), &o); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", sc.Text(), err)
		}
		outcomes = append(outcomes, o)
	}

	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}

	read := outcomes[0]
	if read.Action != "read-registers" || read.Status != "ok" || read.Address != 16 || read.Count != 2 {
		t.Errorf("Unexpected read outcome: %+v", read)
	}
	if len(read.Items) != 2 || read.Items[0].Hex != "0x00FF" || read.Items[1].Address != 17 {
		t.Errorf("Unexpected read items: %+v", read.Items)
	}

	write := outcomes[1]
	if write.Action != "write-coil" || write.Status != "invalid" || write.Error == "" {
		t.Errorf("Unexpected write outcome: %+v", write)
	}
}

func TestFormatSpan(t *testing.T) {
	if got := formatSpan(10, 1); got != "0x000A (10)" {
		t.Errorf("formatSpan(10, 1): got %q", got)
	}
	if got := formatSpan(0xFFF0, 16); got != "0xFFF0-0xFFFF (65520-65535)" {
		t.Errorf("formatSpan(0xFFF0, 16): got %q", got)
	}
}
