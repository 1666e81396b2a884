package sample

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestExtract_DividesByUndecimatedByteCount(t *testing.T) {
	t.Parallel()

	img := uniformNRGBA(8, 6, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	got, err := NewExtractor(DefaultDecimation).Extract(FromNRGBA(img))
	require.NoError(t, err)

	// mean green 200 over 4 bytes per pixel
	assert.InDelta(t, 50.0, float64(got), 1e-6)
}

func TestExtract_GreenOffsetPerFormat(t *testing.T) {
	t.Parallel()

	pixel := []byte{1, 2, 3, 4}
	tests := []struct {
		format PixelFormat
		want   float32
	}{
		{FormatRGBA8, 2.0 / 4},
		{FormatBGRA8, 2.0 / 4},
		{FormatARGB8, 3.0 / 4},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			buf := PixelBuffer{Pix: pixel, Width: 1, Height: 1, Stride: 4, Format: tt.format}
			got, err := NewExtractor(DefaultDecimation).Extract(buf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_HonoursStride(t *testing.T) {
	t.Parallel()

	// Two rows of one pixel each with 4 padding bytes that must be skipped.
	buf := PixelBuffer{
		Pix:    []byte{0, 100, 0, 255, 9, 9, 9, 9, 0, 60, 0, 255},
		Width:  1,
		Height: 2,
		Stride: 8,
		Format: FormatRGBA8,
	}
	got, err := NewExtractor(DefaultDecimation).Extract(buf)
	require.NoError(t, err)
	assert.InDelta(t, 160.0/8.0, float64(got), 1e-6)
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		buf  PixelBuffer
	}{
		{"zero width", PixelBuffer{Width: 0, Height: 2, Stride: 0, Format: FormatRGBA8}},
		{"zero height", PixelBuffer{Pix: make([]byte, 4), Width: 1, Height: 0, Stride: 4, Format: FormatRGBA8}},
		{"unsupported format", PixelBuffer{Pix: make([]byte, 4), Width: 1, Height: 1, Stride: 4, Format: FormatUnknown}},
		{"short stride", PixelBuffer{Pix: make([]byte, 8), Width: 2, Height: 1, Stride: 4, Format: FormatRGBA8}},
		{"short buffer", PixelBuffer{Pix: make([]byte, 12), Width: 2, Height: 2, Stride: 8, Format: FormatRGBA8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(DefaultDecimation).Extract(tt.buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExtraction))
		})
	}
}

func TestExtractImage_ConvertsNonNRGBA(t *testing.T) {
	t.Parallel()

	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			rgba.Set(x, y, color.RGBA{R: 0, G: 120, B: 0, A: 255})
		}
	}

	got, err := NewExtractor(DefaultDecimation).ExtractImage(rgba)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, float64(got), 1e-6)

	_, err = NewExtractor(DefaultDecimation).ExtractImage(nil)
	assert.ErrorIs(t, err, ErrExtraction)

	_, err = NewExtractor(DefaultDecimation).ExtractImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractImage_SubImage(t *testing.T) {
	t.Parallel()

	img := uniformNRGBA(10, 10, color.NRGBA{G: 40, A: 255})
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{G: 240, A: 255})
		}
	}
	sub := img.SubImage(image.Rect(2, 2, 4, 4))

	got, err := NewExtractor(DefaultDecimation).ExtractImage(sub)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, float64(got), 1e-6)
}
