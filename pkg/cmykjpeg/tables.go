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

const blockSize = 64 // 8x8

// zigzag[i] is the row-major index of the i'th coefficient in scan order.
// The scan walks the anti-diagonals r+c == d, downwards on even d and
// upwards on odd d.
var zigzag = func() (z [blockSize]int) {
	i := 0
	for d := 0; d < 15; d++ {
		for k := 0; k <= d; k++ {
			r := k
			if d%2 == 0 {
				r = d - k
			}
			if c := d - r; r < 8 && c < 8 {
				z[i] = 8*r + c
				i++
			}
		}
	}
	return z
}()

// 📐 baseQuant is the Annex K.1 luminance table in natural order. Every
// channel of a CMYK image carries detail, so all four share it.
var baseQuant = [blockSize]uint8{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// huffTable is a DHT table: how many codes there are of each length from
// 1 to 16 bits, followed by the symbols in code order.
type huffTable struct {
	counts  [16]uint8
	symbols []uint8
}

// Annex K.3 luminance DC and K.5 luminance AC tables.
var (
	dcTable = huffTable{
		counts:  [16]uint8{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		symbols: []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}
	acTable = huffTable{
		counts: [16]uint8{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
		symbols: []uint8{
			0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
			0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
			0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
			0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
			0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
			0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
			0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
			0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
			0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
			0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
			0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
			0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
			0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
			0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
			0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
			0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
			0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
			0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
			0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
			0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	}
)

// huffCode is the code assigned to one symbol.
type huffCode struct {
	bits uint16
	size uint8 // 0 for symbols the table does not define
}

// codebook maps every possible symbol byte to its code.
type codebook [256]huffCode

// 🔑 canonicalCodes assigns codes the way decoders rebuild them from a DHT
// segment (T.81 Annex C): consecutive values within a length, doubling
// when moving to the next length.
func canonicalCodes(t huffTable) *codebook {
	cb := new(codebook)
	next := uint16(0)
	sym := 0
	for length := 1; length <= len(t.counts); length++ {
		for n := t.counts[length-1]; n > 0; n-- {
			cb[t.symbols[sym]] = huffCode{bits: next, size: uint8(length)}
			next++
			sym++
		}
		next <<= 1
	}
	return cb
}

// scaleQuant scales baseQuant the way libjpeg does for a 1..100 quality.
func scaleQuant(quality int) [blockSize]uint8 {
	var scale int
	if quality < 50 {
		scale = 5000 / quality
	} else {
		scale = 200 - quality*2
	}
	var q [blockSize]uint8
	for i, b := range baseQuant {
		x := (int(b)*scale + 50) / 100
		if x < 1 {
			x = 1
		} else if x > 255 {
			x = 255
		}
		q[i] = uint8(x)
	}
	return q
}
