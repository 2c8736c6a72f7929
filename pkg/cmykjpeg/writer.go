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

// Package cmykjpeg writes four-channel CMYK images as baseline JPEG.
//
// The output carries an Adobe APP14 segment with transform 0 and stores
// inverted samples, which is how Photoshop writes CMYK JPEGs and what
// image/jpeg (and libjpeg) expect when they hand back an *image.CMYK.
package cmykjpeg

import (
	"bufio"
	"image"
	"io"

	"gitlab.com/tozd/go/errors"
)

// DefaultQuality matches the quality most imaging tools pick when none is given.
const DefaultQuality = 75

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.Base("image has no pixels")

// Options are the encoding parameters.
// Quality ranges from 1 to 100 inclusive, higher is better.
type Options struct {
	Quality int
}

const (
	markerSOI   = 0xd8
	markerEOI   = 0xd9
	markerSOF0  = 0xc0
	markerDHT   = 0xc4
	markerDQT   = 0xdb
	markerSOS   = 0xda
	markerAPP14 = 0xee

	nComponents = 4
)

// encoder writes one image; every component uses quant and the dc/ac
// codebooks.
type encoder struct {
	bw     *bitWriter
	quant  [blockSize]uint8 // row-major
	dc, ac *codebook
}

// segment writes a marker segment whose length field counts itself and
// every payload part.
func (e *encoder) segment(marker byte, parts ...[]byte) {
	n := 2
	for _, p := range parts {
		n += len(p)
	}
	e.bw.raw(0xff, marker, byte(n>>8), byte(n))
	for _, p := range parts {
		e.bw.raw(p...)
	}
}

// headers writes everything from APP14 up to the SOS header.
func (e *encoder) headers(size image.Point) {
	// APP14: version 100, no flags, transform 0 (samples are not YCC)
	e.segment(markerAPP14, []byte("Adobe"), []byte{0x00, 0x64, 0x00, 0x00, 0x00, 0x00, 0x00})

	dqt := make([]byte, 0, 1+blockSize)
	dqt = append(dqt, 0x00) // 8-bit precision, table 0
	for _, idx := range zigzag {
		dqt = append(dqt, e.quant[idx])
	}
	e.segment(markerDQT, dqt)

	sof := []byte{8, byte(size.Y >> 8), byte(size.Y), byte(size.X >> 8), byte(size.X), nComponents}
	for id := byte(1); id <= nComponents; id++ {
		sof = append(sof, id, 0x11, 0x00) // 1x1 sampling, quant table 0
	}
	e.segment(markerSOF0, sof)

	e.segment(markerDHT,
		[]byte{0x00}, dcTable.counts[:], dcTable.symbols, // class 0 (DC), id 0
		[]byte{0x10}, acTable.counts[:], acTable.symbols, // class 1 (AC), id 0
	)

	sos := []byte{nComponents}
	for id := byte(1); id <= nComponents; id++ {
		sos = append(sos, id, 0x00) // DC and AC table 0
	}
	sos = append(sos, 0x00, 0x3f, 0x00) // full spectral range, no approximation
	e.segment(markerSOS, sos)
}

func (e *encoder) symbol(cb *codebook, sym uint8) {
	c := cb[sym]
	e.bw.put(uint32(c.bits), uint(c.size))
}

// encodeBlock entropy codes one quantized block against the previous DC of
// its component and returns the new DC.
func (e *encoder) encodeBlock(coeffs *block, pred int32) int32 {
	size, extra := category(coeffs[0] - pred)
	e.symbol(e.dc, uint8(size))
	e.bw.put(extra, size)

	zeros := 0
	for _, idx := range zigzag[1:] {
		v := coeffs[idx]
		if v == 0 {
			zeros++
			continue
		}
		for ; zeros >= 16; zeros -= 16 {
			e.symbol(e.ac, 0xf0) // ZRL, sixteen zeros
		}
		size, extra := category(v)
		e.symbol(e.ac, uint8(zeros<<4)|uint8(size))
		e.bw.put(extra, size)
		zeros = 0
	}
	if zeros > 0 {
		e.symbol(e.ac, 0x00) // EOB
	}
	return coeffs[0]
}

// loadBlock fills dst with the level-shifted, Adobe-inverted samples of
// channel ch for the 8x8 block at p, replicating edge pixels.
func loadBlock(m *image.CMYK, p image.Point, ch int, dst *[blockSize]float64) {
	b := m.Bounds()
	xmax, ymax := b.Max.X-1, b.Max.Y-1
	for j := 0; j < 8; j++ {
		sy := min(p.Y+j, ymax)
		for i := 0; i < 8; i++ {
			sx := min(p.X+i, xmax)
			v := m.Pix[m.PixOffset(sx, sy)+ch]
			dst[8*j+i] = float64(255-v) - 128
		}
	}
}

// writeScan writes the interleaved scan data: one block per channel per MCU.
func (e *encoder) writeScan(m *image.CMYK) {
	var (
		samples [blockSize]float64
		coeffs  block
		prevDC  [nComponents]int32
	)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 8 {
		for x := b.Min.X; x < b.Max.X; x += 8 {
			for ch := 0; ch < nComponents; ch++ {
				loadBlock(m, image.Pt(x, y), ch, &samples)
				fdct(&samples, &e.quant, &coeffs)
				prevDC[ch] = e.encodeBlock(&coeffs, prevDC[ch])
			}
		}
	}
	e.bw.align()
}

// Encode writes the CMYK image m to w as a baseline JPEG with the given
// options. Default parameters are used if a nil *Options is passed.
func Encode(w io.Writer, m *image.CMYK, o *Options) error {
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ErrEmptyImage
	}
	if b.Dx() >= 1<<16 || b.Dy() >= 1<<16 {
		return errors.Errorf("image is too large to encode: %dx%d", b.Dx(), b.Dy())
	}

	quality := DefaultQuality
	if o != nil && o.Quality != 0 {
		quality = max(1, min(100, o.Quality))
	}

	e := &encoder{
		bw:    newBitWriter(bufio.NewWriter(w)),
		quant: scaleQuant(quality),
		dc:    canonicalCodes(dcTable),
		ac:    canonicalCodes(acTable),
	}

	e.bw.raw(0xff, markerSOI)
	e.headers(b.Size())
	e.writeScan(m)
	e.bw.raw(0xff, markerEOI)

	if err := e.bw.flush(); err != nil {
		return errors.Errorf("writing jpeg: %w", err)
	}
	return nil
}
