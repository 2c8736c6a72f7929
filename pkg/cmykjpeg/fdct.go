// Copyright 2025 walteh LLC
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

package cmykjpeg

import "math"

// block is a quantized 8x8 block of DCT coefficients in natural order.
type block [blockSize]int32

// dctBasis[x][u] is C(u)/2 * cos((2x+1)uπ/16), so one row pass followed by
// one column pass yields the JPEG FDCT with its 1/4 C(u)C(v) scaling.
var dctBasis = func() (t [8][8]float64) {
	for x := 0; x < 8; x++ {
		for u := 0; u < 8; u++ {
			c := 1.0
			if u == 0 {
				c = 1 / math.Sqrt2
			}
			t[x][u] = c / 2 * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16)
		}
	}
	return t
}()

// fdct computes the forward DCT of the level-shifted samples in src and
// quantizes the result into dst.
func fdct(src *[blockSize]float64, quant *[blockSize]uint8, dst *block) {
	var rows [blockSize]float64
	for y := 0; y < 8; y++ {
		for u := 0; u < 8; u++ {
			var sum float64
			for x := 0; x < 8; x++ {
				sum += src[8*y+x] * dctBasis[x][u]
			}
			rows[8*y+u] = sum
		}
	}
	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			var sum float64
			for y := 0; y < 8; y++ {
				sum += rows[8*y+u] * dctBasis[y][v]
			}
			dst[8*v+u] = int32(math.Round(sum / float64(quant[8*v+u])))
		}
	}
}
