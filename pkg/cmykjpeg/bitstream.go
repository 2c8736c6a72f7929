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

import (
	"bufio"
	"math/bits"
)

// bitWriter packs codes most significant bit first into the entropy-coded
// segment and stuffs a zero byte after every 0xff it produces. The first
// write error sticks and turns later calls into no-ops.
type bitWriter struct {
	w   *bufio.Writer
	err error

	acc uint64 // pending bits, right-aligned
	n   uint   // number of pending bits, always < 8 between calls
}

func newBitWriter(w *bufio.Writer) *bitWriter {
	return &bitWriter{w: w}
}

// raw writes p unstuffed; marker segments go through here.
func (bw *bitWriter) raw(p ...byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

// put appends the low size bits of code, size <= 16.
func (bw *bitWriter) put(code uint32, size uint) {
	if size == 0 {
		return
	}
	bw.acc = bw.acc<<size | uint64(code&(1<<size-1))
	bw.n += size
	for bw.n >= 8 {
		bw.n -= 8
		c := byte(bw.acc >> bw.n)
		if c == 0xff {
			bw.raw(c, 0x00)
		} else {
			bw.raw(c)
		}
	}
	bw.acc &= 1<<bw.n - 1
}

// align pads the pending bits to a byte boundary with 1 bits.
func (bw *bitWriter) align() {
	if bw.n > 0 {
		pad := 8 - bw.n
		bw.put(1<<pad-1, pad)
	}
}

func (bw *bitWriter) flush() error {
	if bw.err != nil {
		return bw.err
	}
	return bw.w.Flush()
}

// category returns the magnitude category of v and the extra bits that
// follow its Huffman code: v itself when positive, the low bits of v-1 when
// negative.
func category(v int32) (size uint, extra uint32) {
	if v < 0 {
		size = uint(bits.Len32(uint32(-v)))
		return size, uint32(v-1) & (1<<size - 1)
	}
	return uint(bits.Len32(uint32(v))), uint32(v)
}
