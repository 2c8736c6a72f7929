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

// Package imaging turns an image file into a CMYK JPEG encoding.
//
// Conversion never panics or aborts a run: Convert reports its result as an
// Outcome, either the converted bytes or the reason the file could not be
// converted, and the caller branches on it.
package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"  // register GIF (first frame)
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"
	"strings"

	dimaging "github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/walteh/copies/pkg/cmykjpeg"
	_ "golang.org/x/image/bmp" // register BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	"gitlab.com/tozd/go/errors"
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.Base("image has no pixels")

// 🖼️ DefaultExtensions are the extensions treated as images, lowercase.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".tiff", ".bmp", ".gif"}

// 🔍 IsImage reports whether ext is one of exts, ignoring case.
func IsImage(ext string, exts []string) bool {
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// 🏷️ Outcome is the tagged result of a conversion: either Converted, carrying
// the JPEG bytes, or Failed, carrying the reason.
type Outcome struct {
	jpeg []byte
	err  error
}

// Converted returns a successful outcome.
func Converted(data []byte) Outcome {
	return Outcome{jpeg: data}
}

// Failed returns a failed outcome.
func Failed(err error) Outcome {
	return Outcome{err: err}
}

// OK reports whether the conversion succeeded.
func (o Outcome) OK() bool { return o.err == nil }

// JPEG returns the converted encoding, nil on failure.
func (o Outcome) JPEG() []byte { return o.jpeg }

// Err returns why the conversion failed, nil on success.
func (o Outcome) Err() error { return o.err }

// 📥 Decode decodes a PNG, JPEG, GIF, TIFF or BMP image from r.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// decode decodes r, applying the EXIF orientation tag when autoOrient is set.
func decode(r io.Reader, autoOrient bool) (image.Image, string, error) {
	if !autoOrient {
		return Decode(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", errors.Errorf("reading image: %w", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Errorf("decoding image: %w", err)
	}
	img, err := dimaging.Decode(bytes.NewReader(data), dimaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errors.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// ⚙️ Option configures Convert
type Option func(*convertOptions)

type convertOptions struct {
	autoOrient bool
}

// WithAutoOrient rotates and flips the image according to its EXIF
// orientation tag before conversion.
func WithAutoOrient(enabled bool) Option {
	return func(o *convertOptions) {
		o.autoOrient = enabled
	}
}

// 🎨 ToCMYK flattens img onto opaque white and converts every pixel to CMYK.
func ToCMYK(img image.Image) (*image.CMYK, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	out := image.NewCMYK(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := flat.PixOffset(x, y)
			c, m, yy, k := color.RGBToCMYK(flat.Pix[i], flat.Pix[i+1], flat.Pix[i+2])
			j := out.PixOffset(x, y)
			out.Pix[j], out.Pix[j+1], out.Pix[j+2], out.Pix[j+3] = c, m, yy, k
		}
	}
	return out, nil
}

// 🔄 Convert opens the image at path, converts it to CMYK and encodes it as
// JPEG at the given quality. Every failure is reported through the Outcome.
func Convert(ctx context.Context, path string, quality int, opts ...Option) Outcome {
	logger := zerolog.Ctx(ctx)

	var o convertOptions
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return Failed(errors.Errorf("opening image: %w", err))
	}
	defer f.Close()

	img, format, err := decode(f, o.autoOrient)
	if err != nil {
		return Failed(err)
	}
	logger.Debug().Str("path", path).Str("format", format).Stringer("bounds", img.Bounds()).Msg("decoded image")

	cmyk, err := ToCMYK(img)
	if err != nil {
		return Failed(errors.Errorf("converting %s image to cmyk: %w", format, err))
	}

	var buf bytes.Buffer
	if err := cmykjpeg.Encode(&buf, cmyk, &cmykjpeg.Options{Quality: quality}); err != nil {
		return Failed(errors.Errorf("encoding jpeg: %w", err))
	}

	logger.Debug().Str("path", path).Int("bytes", buf.Len()).Msg("encoded cmyk jpeg")
	return Converted(buf.Bytes())
}
