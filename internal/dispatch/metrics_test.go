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
	"testing"
	"time"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
)

func TestCounter(t *testing.T) {
	var c Counter

	if c.Value() != 0 {
		t.Errorf("Initial value: expected 0, got %d", c.Value())
	}

	c.Add(5)
	if c.Value() != 5 {
		t.Errorf("After Add(5): expected 5, got %d", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Errorf("After Reset: expected 0, got %d", c.Value())
	}
}

func TestLatencyHistogram(t *testing.T) {
	h := NewLatencyHistogram()

	h.Observe(500 * time.Microsecond)
	h.Observe(2 * time.Millisecond)
	h.Observe(100 * time.Millisecond)
	h.Observe(10 * time.Second)

	stats := h.Stats()

	if stats.Count != 4 {
		t.Errorf("Count: expected 4, got %d", stats.Count)
	}
	if stats.Min < 0.4 || stats.Min > 0.6 {
		t.Errorf("Min: expected ~0.5, got %.2f", stats.Min)
	}
	if stats.Buckets["1ms"] != 1 {
		t.Errorf("Bucket 1ms: expected 1, got %d", stats.Buckets["1ms"])
	}
	if stats.Buckets["100ms"] != 1 {
		t.Errorf("Bucket 100ms: expected 1, got %d", stats.Buckets["100ms"])
	}
	if stats.Buckets["5s+"] != 1 {
		t.Errorf("Bucket 5s+: expected 1, got %d", stats.Buckets["5s+"])
	}
}

func TestMetricsRecordAndCollect(t *testing.T) {
	m := NewMetrics()

	m.record(Outcome{Kind: cli.KindReadCoil})
	m.record(Outcome{Kind: cli.KindReadCoil, Err: errors.New("timeout")})
	m.record(Outcome{Kind: cli.KindWriteCoil, Err: &ConversionError{Field: "coil state", Input: "x", Err: ErrInvalidCoilState}})

	collected := m.Collect()
	if collected["records"] != int64(3) {
		t.Errorf("records: expected 3, got %v", collected["records"])
	}
	if collected["succeeded"] != int64(1) || collected["failed"] != int64(1) || collected["invalid"] != int64(1) {
		t.Errorf("Unexpected totals: %v", collected)
	}

	actions, ok := collected["actions"].(map[string]interface{})
	if !ok {
		t.Fatalf("actions missing from %v", collected)
	}
	readCoil, ok := actions["read-coil"].(map[string]int64)
	if !ok || readCoil["records"] != 2 || readCoil["failed"] != 1 {
		t.Errorf("Unexpected read-coil metrics: %v", actions["read-coil"])
	}
}
