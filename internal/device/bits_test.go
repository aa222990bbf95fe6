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
	"testing"
)

func TestPackBits(t *testing.T) {
	got := PackBits([]bool{true, false, true, false, false, false, false, false, false, true})
	want := []byte{0x05, 0x02}

	if len(got) != len(want) {
		t.Fatalf("Length: expected %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Byte %d: expected 0x%02X, got 0x%02X", i, want[i], got[i])
		}
	}
}

func TestUnpackBitsAcrossBytes(t *testing.T) {
	// bits 0-7 come from byte 0, bits 8-9 from byte 1
	buf := []byte{0b1010_0101, 0b0000_0010}
	want := []bool{true, false, true, false, false, true, false, true, false, true}

	got, err := UnpackBits(buf, 10)
	if err != nil {
		t.Fatalf("UnpackBits failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Length: expected %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Bit %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestUnpackBitsShortBuffer(t *testing.T) {
	_, err := UnpackBits([]byte{0xFF}, 9)
	if !errors.Is(err, ErrShortResponse) {
		t.Errorf("Expected ErrShortResponse, got %v", err)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	values := make([]bool, 19)
	for i := range values {
		values[i] = i%3 == 0
	}

	got, err := UnpackBits(PackBits(values), len(values))
	if err != nil {
		t.Fatalf("UnpackBits failed: %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("Bit %d: expected %v, got %v", i, values[i], got[i])
		}
	}
}
