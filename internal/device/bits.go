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

import "fmt"

// PackBits packs bools LSB first: values[i] becomes bit i%8 of byte i/8.
func PackBits(values []bool) []byte {
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// UnpackBits returns the first count bits of buf, LSB first.
func UnpackBits(buf []byte, count int) ([]bool, error) {
	if count < 0 || len(buf)*8 < count {
		return nil, fmt.Errorf("%w: %d byte(s) cannot hold %d coils", ErrShortResponse, len(buf), count)
	}
	out := make([]bool, count)
	for i := range out {
		out[i] = buf[i/8]&(1<<(i%8)) != 0
	}
	return out, nil
}
