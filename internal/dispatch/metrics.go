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
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
)

// Counter is a simple atomic counter.
type Counter struct {
	value int64
}

// Add adds delta to the counter.
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Reset resets the counter to zero.
func (c *Counter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

// LatencyHistogram tracks the distribution of device round-trip times.
type LatencyHistogram struct {
	mu      sync.Mutex
	buckets []int64   // count per bucket
	bounds  []float64 // upper bounds in ms
	sum     float64
	count   int64
	min     float64
	max     float64
}

var latencyLabels = []string{"1ms", "5ms", "10ms", "25ms", "50ms", "100ms", "250ms", "500ms", "1s", "5s+"}

// NewLatencyHistogram creates a new latency histogram with default buckets.
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{
		buckets: make([]int64, len(latencyLabels)),
		bounds:  []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		min:     -1,
		max:     -1,
	}
}

// Observe records a latency observation.
func (h *LatencyHistogram) Observe(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += ms
	h.count++
	if h.min < 0 || ms < h.min {
		h.min = ms
	}
	if ms > h.max {
		h.max = ms
	}

	for i, bound := range h.bounds {
		if ms <= bound {
			h.buckets[i]++
			return
		}
	}
	h.buckets[len(h.buckets)-1]++
}

// LatencyStats holds latency statistics in milliseconds.
type LatencyStats struct {
	Count   int64
	Avg     float64
	Min     float64
	Max     float64
	Buckets map[string]int64
}

// Stats returns histogram statistics.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := LatencyStats{
		Count:   h.count,
		Buckets: make(map[string]int64, len(h.buckets)),
	}
	if h.count > 0 {
		stats.Avg = h.sum / float64(h.count)
		stats.Min = h.min
		stats.Max = h.max
	}
	for i, n := range h.buckets {
		stats.Buckets[latencyLabels[i]] = n
	}
	return stats
}

// ActionMetrics holds the counters of one action kind.
type ActionMetrics struct {
	Records   Counter
	Succeeded Counter
	Failed    Counter
	Invalid   Counter
}

// Metrics summarizes a dispatch run.
type Metrics struct {
	Records   Counter
	Succeeded Counter
	Failed    Counter
	Invalid   Counter
	Latency   *LatencyHistogram

	actions sync.Map // cli.Kind -> *ActionMetrics
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		Latency: NewLatencyHistogram(),
	}
}

// ForAction returns the counters of one action kind.
func (m *Metrics) ForAction(kind cli.Kind) *ActionMetrics {
	if v, ok := m.actions.Load(kind); ok {
		return v.(*ActionMetrics)
	}
	actual, _ := m.actions.LoadOrStore(kind, &ActionMetrics{})
	return actual.(*ActionMetrics)
}

func (m *Metrics) record(o Outcome) {
	am := m.ForAction(o.Kind)
	m.Records.Add(1)
	am.Records.Add(1)

	switch o.Status() {
	case StatusOK:
		m.Succeeded.Add(1)
		am.Succeeded.Add(1)
	case StatusFailed:
		m.Failed.Add(1)
		am.Failed.Add(1)
	case StatusInvalid:
		m.Invalid.Add(1)
		am.Invalid.Add(1)
	}
}

// Collect returns all metrics as a map.
func (m *Metrics) Collect() map[string]interface{} {
	result := map[string]interface{}{
		"records":   m.Records.Value(),
		"succeeded": m.Succeeded.Value(),
		"failed":    m.Failed.Value(),
		"invalid":   m.Invalid.Value(),
		"latency":   m.Latency.Stats(),
	}

	actions := make(map[string]interface{})
	m.actions.Range(func(key, value interface{}) bool {
		am := value.(*ActionMetrics)
		actions[key.(cli.Kind).String()] = map[string]int64{
			"records":   am.Records.Value(),
			"succeeded": am.Succeeded.Value(),
			"failed":    am.Failed.Value(),
			"invalid":   am.Invalid.Value(),
		}
		return true
	})
	if len(actions) > 0 {
		result["actions"] = actions
	}

	return result
}
