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
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.CMYK {
	m := image.NewCMYK(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetCMYK(x, y, color.CMYK{
				C: uint8(x * 255 / max(1, w-1)),
				M: uint8(y * 255 / max(1, h-1)),
				Y: uint8((x + y) * 127 / max(1, w+h-2)),
				K: 40,
			})
		}
	}
	return m
}

func uniform(w, h int, c color.CMYK) *image.CMYK {
	m := image.NewCMYK(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetCMYK(x, y, c)
		}
	}
	return m
}

// meanDelta returns the mean absolute per-channel difference between a and b.
func meanDelta(t *testing.T, a *image.CMYK, b image.Image) float64 {
	t.Helper()
	got, ok := b.(*image.CMYK)
	require.True(t, ok, "decoded image should be *image.CMYK, got %T", b)
	require.Equal(t, a.Bounds().Size(), got.Bounds().Size())

	var sum, n float64
	ab, gb := a.Bounds(), got.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ao := a.PixOffset(ab.Min.X+x, ab.Min.Y+y)
			gOff := got.PixOffset(gb.Min.X+x, gb.Min.Y+y)
			for ch := 0; ch < 4; ch++ {
				d := float64(a.Pix[ao+ch]) - float64(got.Pix[gOff+ch])
				if d < 0 {
					d = -d
				}
				sum += d
				n++
			}
		}
	}
	return sum / n
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		img     *image.CMYK
		quality int
		maxMean float64
	}{
		{
			name:    "uniform_block_aligned",
			img:     uniform(16, 16, color.CMYK{C: 10, M: 200, Y: 90, K: 30}),
			quality: 90,
			maxMean: 2,
		},
		{
			name:    "uniform_odd_size",
			img:     uniform(13, 7, color.CMYK{C: 255, M: 0, Y: 128, K: 5}),
			quality: 90,
			maxMean: 2,
		},
		{
			name:    "gradient_high_quality",
			img:     gradient(40, 24),
			quality: 95,
			maxMean: 3,
		},
		{
			name:    "gradient_default_quality",
			img:     gradient(33, 17),
			maxMean: 8,
		},
		{
			name:    "single_pixel",
			img:     uniform(1, 1, color.CMYK{C: 0, M: 0, Y: 0, K: 255}),
			quality: 100,
			maxMean: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			var opts *Options
			if tt.quality != 0 {
				opts = &Options{Quality: tt.quality}
			}
			require.NoError(t, Encode(&buf, tt.img, opts))

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, color.CMYKModel, cfg.ColorModel)
			assert.Equal(t, tt.img.Bounds().Dx(), cfg.Width)
			assert.Equal(t, tt.img.Bounds().Dy(), cfg.Height)

			decoded, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.LessOrEqual(t, meanDelta(t, tt.img, decoded), tt.maxMean)
		})
	}
}

func TestEncodeNonZeroOrigin(t *testing.T) {
	src := gradient(24, 24)
	sub, ok := src.SubImage(image.Rect(5, 3, 21, 19)).(*image.CMYK)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sub, &Options{Quality: 95}))

	decoded, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, meanDelta(t, sub, decoded), 3.0)
}

func TestEncodeQualityClamped(t *testing.T) {
	img := gradient(16, 16)
	for _, q := range []int{-20, 1, 100, 400} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, &Options{Quality: q}), "quality %d", q)
		_, err := jpeg.Decode(&buf)
		require.NoError(t, err, "quality %d", q)
	}
}

func TestEncodeStartsWithAdobeMarker(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, uniform(8, 8, color.CMYK{K: 1}), nil))

	data := buf.Bytes()
	require.Greater(t, len(data), 20)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xee, 0x00, 0x0e}, data[:6])
	assert.Equal(t, "Adobe", string(data[6:11]))
	assert.Equal(t, []byte{0xff, 0xd9}, data[len(data)-2:])
}

func TestEncodeEmptyImage(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, image.NewCMYK(image.Rect(0, 0, 0, 5)), nil)
	require.ErrorIs(t, err, ErrEmptyImage)
	assert.Zero(t, buf.Len())
}

func TestScaleQuant(t *testing.T) {
	q50 := scaleQuant(50)
	assert.Equal(t, baseQuant, q50, "quality 50 uses the base table")

	q100 := scaleQuant(100)
	for i, v := range q100 {
		assert.Equal(t, uint8(1), v, "entry %d", i)
	}

	q1 := scaleQuant(1)
	for i, v := range q1 {
		assert.Equal(t, uint8(255), v, "entry %d", i)
	}
}

func TestEncodeNoiseRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, size := range []image.Point{{1, 1}, {7, 3}, {17, 9}, {257, 65}} {
		img := image.NewCMYK(image.Rect(0, 0, size.X, size.Y))
		rng.Read(img.Pix)

		for _, q := range []int{1, 50, 100} {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, &Options{Quality: q}), "%v q%d", size, q)

			decoded, err := jpeg.Decode(&buf)
			require.NoError(t, err, "%v q%d", size, q)
			got, ok := decoded.(*image.CMYK)
			require.True(t, ok, "%v q%d decoded as %T", size, q, decoded)
			assert.Equal(t, size, got.Bounds().Size())

			if q == 100 {
				for i := range img.Pix {
					d := int(img.Pix[i]) - int(got.Pix[i])
					require.LessOrEqual(t, d*d, 4, "%v pixel byte %d", size, i)
				}
			}
		}
	}
}

func TestZigzag(t *testing.T) {
	assert.Equal(t, []int{0, 1, 8, 16, 9, 2, 3, 10, 17, 24}, zigzag[:10])
	assert.Equal(t, []int{47, 55, 62, 63}, zigzag[60:])

	seen := map[int]bool{}
	for _, idx := range zigzag {
		seen[idx] = true
	}
	assert.Len(t, seen, blockSize, "every coefficient appears once")
}

func TestCanonicalCodes(t *testing.T) {
	dc := canonicalCodes(dcTable)
	tests := []struct {
		sym  uint8
		want huffCode
	}{
		{0, huffCode{bits: 0b00, size: 2}},
		{1, huffCode{bits: 0b010, size: 3}},
		{5, huffCode{bits: 0b110, size: 3}},
		{6, huffCode{bits: 0b1110, size: 4}},
		{11, huffCode{bits: 0b111111110, size: 9}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dc[tt.sym], "dc symbol %d", tt.sym)
	}
	assert.Zero(t, dc[12].size, "undefined symbols get no code")

	ac := canonicalCodes(acTable)
	assert.Equal(t, huffCode{bits: 0b1010, size: 4}, ac[0x00], "EOB")
	assert.Equal(t, huffCode{bits: 0b11111111001, size: 11}, ac[0xf0], "ZRL")
}

func TestCategory(t *testing.T) {
	tests := []struct {
		v         int32
		wantSize  uint
		wantExtra uint32
	}{
		{0, 0, 0},
		{1, 1, 0b1},
		{-1, 1, 0b0},
		{5, 3, 0b101},
		{-5, 3, 0b010},
		{1023, 10, 0x3ff},
		{-1023, 10, 0},
	}
	for _, tt := range tests {
		size, extra := category(tt.v)
		assert.Equal(t, tt.wantSize, size, "size of %d", tt.v)
		assert.Equal(t, tt.wantExtra, extra, "extra bits of %d", tt.v)
	}
}

func TestBitWriter(t *testing.T) {
	t.Run("stuffs_ff", func(t *testing.T) {
		var buf bytes.Buffer
		bw := newBitWriter(bufio.NewWriter(&buf))
		bw.put(0xff, 8)
		bw.put(0x1, 4)
		bw.align()
		require.NoError(t, bw.flush())
		assert.Equal(t, []byte{0xff, 0x00, 0x1f}, buf.Bytes())
	})

	t.Run("spans_bytes", func(t *testing.T) {
		var buf bytes.Buffer
		bw := newBitWriter(bufio.NewWriter(&buf))
		bw.put(0b101, 3)
		bw.put(0b1100110011, 10)
		bw.put(0, 0)
		bw.align()
		require.NoError(t, bw.flush())
		// 101 11001100 11 + 111 padding
		assert.Equal(t, []byte{0b10111001, 0b10011111}, buf.Bytes())
	})

	t.Run("raw_is_unstuffed", func(t *testing.T) {
		var buf bytes.Buffer
		bw := newBitWriter(bufio.NewWriter(&buf))
		bw.raw(0xff, markerSOI)
		require.NoError(t, bw.flush())
		assert.Equal(t, []byte{0xff, 0xd8}, buf.Bytes())
	})
}
