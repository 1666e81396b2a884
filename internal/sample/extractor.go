package sample

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrExtraction is returned when a pixel buffer cannot be sampled. Callers
// treat it as "no sample this frame".
var ErrExtraction = errors.New("sample extraction failed")

// PixelFormat describes the byte layout of a 4-byte-per-pixel buffer.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatRGBA8
	FormatBGRA8
	FormatARGB8
)

// bytesPerPixel is fixed for every supported format.
const bytesPerPixel = 4

// DefaultDecimation selects one byte per RGBA pixel.
const DefaultDecimation = 4

// String implements fmt.Stringer.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatARGB8:
		return "ARGB8"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// greenOffset returns the byte position of the green channel within a pixel.
func (f PixelFormat) greenOffset() (int, bool) {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 1, true
	case FormatARGB8:
		return 2, true
	default:
		return 0, false
	}
}

// PixelBuffer is a raw image: Height rows of Width pixels, Stride bytes apart.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format PixelFormat
}

// FromNRGBA wraps an NRGBA image without copying.
func FromNRGBA(img *image.NRGBA) PixelBuffer {
	b := img.Bounds()
	return PixelBuffer{
		Pix:    img.Pix,
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
		Format: FormatRGBA8,
	}
}

func (p PixelBuffer) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrExtraction, p.Width, p.Height)
	}
	if _, ok := p.Format.greenOffset(); !ok {
		return fmt.Errorf("%w: unsupported pixel format %s", ErrExtraction, p.Format)
	}
	rowBytes := p.Width * bytesPerPixel
	if p.Stride < rowBytes {
		return fmt.Errorf("%w: stride %d shorter than row (%d bytes)", ErrExtraction, p.Stride, rowBytes)
	}
	if need := (p.Height-1)*p.Stride + rowBytes; len(p.Pix) < need {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrExtraction, len(p.Pix), need)
	}
	return nil
}

// Extractor computes one green-channel brightness sample per crop.
type Extractor struct {
	decimation int
}

// NewExtractor returns an Extractor decimating the byte stream by factor.
func NewExtractor(factor int) *Extractor {
	if factor < 1 {
		factor = DefaultDecimation
	}
	return &Extractor{decimation: factor}
}

// Extract walks the interleaved bytes of buf, keeps every decimation-th byte
// starting at the green offset, and divides their sum by the total number of
// bytes (not the number of kept bytes). With the default factor of 4 the
// result is a quarter of the mean green intensity, which is consistent across
// frames and therefore harmless to the spectrum.
func (e *Extractor) Extract(buf PixelBuffer) (float32, error) {
	if err := buf.validate(); err != nil {
		return 0, err
	}
	off, _ := buf.Format.greenOffset()
	rowBytes := buf.Width * bytesPerPixel

	var sum uint64
	phase := off
	for y := 0; y < buf.Height; y++ {
		row := buf.Pix[y*buf.Stride : y*buf.Stride+rowBytes]
		k := phase
		for ; k < rowBytes; k += e.decimation {
			sum += uint64(row[k])
		}
		phase = k - rowBytes
	}

	total := rowBytes * buf.Height
	return float32(float64(sum) / float64(total)), nil
}

// ExtractImage samples any image.Image, converting it to NRGBA first.
func (e *Extractor) ExtractImage(img image.Image) (float32, error) {
	if img == nil {
		return 0, fmt.Errorf("%w: nil image", ErrExtraction)
	}
	if img.Bounds().Empty() {
		return 0, fmt.Errorf("%w: empty image bounds %v", ErrExtraction, img.Bounds())
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(img)
	}
	return e.Extract(FromNRGBA(nrgba))
}
