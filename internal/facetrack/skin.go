package facetrack

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/pulse.report/internal/roi"
)

// Chroma bounds of the skin classifier in YCbCr space.
const (
	skinCbMin, skinCbMax = 77, 127
	skinCrMin, skinCrMax = 133, 173
)

// SkinDetector locates the bounding box of skin-toned pixels. Frames wider
// than MaxWidth are downscaled first.
type SkinDetector struct {
	MaxWidth    int     // 0 disables downscaling
	MinFraction float64 // share of skin pixels required for a detection
}

// NewSkinDetector returns a detector that works on frames at most 160 pixels
// wide and needs at least 1% skin pixels.
func NewSkinDetector() *SkinDetector {
	return &SkinDetector{MaxWidth: 160, MinFraction: 0.01}
}

// IsSkin reports whether c falls inside the skin chroma range.
func IsSkin(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	_, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	return cb >= skinCbMin && cb <= skinCbMax && cr >= skinCrMin && cr <= skinCrMax
}

// Detect implements Detector.
func (d *SkinDetector) Detect(ctx context.Context, img image.Image) (roi.FaceBox, bool, error) {
	if err := ctx.Err(); err != nil {
		return roi.FaceBox{}, false, err
	}
	if img == nil || img.Bounds().Empty() {
		return roi.FaceBox{}, false, nil
	}
	var src *image.NRGBA
	if d.MaxWidth > 0 && img.Bounds().Dx() > d.MaxWidth {
		src = imaging.Resize(img, d.MaxWidth, 0, imaging.Box)
	} else {
		src = imaging.Clone(img)
	}
	return d.scan(src)
}

func (d *SkinDetector) scan(img *image.NRGBA) (roi.FaceBox, bool, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := -1, -1
	count := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			if !IsSkin(color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}) {
				continue
			}
			count++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if count == 0 || float64(count) < d.MinFraction*float64(w*h) {
		return roi.FaceBox{}, false, nil
	}
	fw, fh := float64(w), float64(h)
	return roi.FaceBox{
		X: float64(minX) / fw,
		Y: float64(h-1-maxY) / fh,
		W: float64(maxX-minX+1) / fw,
		H: float64(maxY-minY+1) / fh,
	}, true, nil
}

// SkinTracker re-runs a SkinDetector in a window around the prior box. The
// confidence of the new observation is its intersection over union with the
// prior box.
type SkinTracker struct {
	Detector *SkinDetector
	Margin   float64 // window growth on each side, as a fraction of the box size
}

// NewSkinTracker returns a tracker searching half a box size around the
// prior observation.
func NewSkinTracker() *SkinTracker {
	return &SkinTracker{Detector: &SkinDetector{MinFraction: 0.05}, Margin: 0.5}
}

// Track implements Tracker. A face that cannot be found in the search window
// is reported with zero confidence.
func (t *SkinTracker) Track(ctx context.Context, prior Observation, img image.Image) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}
	if img == nil || img.Bounds().Empty() {
		return Observation{Box: prior.Box}, nil
	}
	b := img.Bounds()
	size := roi.SizeOf(img)
	face := prior.Box.Absolute(size)
	window := roi.Rect{
		X: face.X - t.Margin*face.W,
		Y: face.Y - t.Margin*face.H,
		W: face.W * (1 + 2*t.Margin),
		H: face.H * (1 + 2*t.Margin),
	}
	r := window.ImageRectangle(b.Min, size)
	if r.Empty() {
		return Observation{Box: prior.Box}, nil
	}

	local, ok, err := t.Detector.Detect(ctx, imaging.Crop(img, r))
	if err != nil || !ok {
		return Observation{Box: prior.Box}, err
	}

	// Window origin in bottom-left pixel coordinates of the full frame.
	ox := float64(r.Min.X - b.Min.X)
	oy := float64(size.Height - (r.Max.Y - b.Min.Y))
	cw, ch := float64(r.Dx()), float64(r.Dy())
	fw, fh := float64(size.Width), float64(size.Height)
	box := roi.FaceBox{
		X: (ox + local.X*cw) / fw,
		Y: (oy + local.Y*ch) / fh,
		W: local.W * cw / fw,
		H: local.H * ch / fh,
	}
	return Observation{Box: box, Confidence: float32(IoU(prior.Box, box))}, nil
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b roi.FaceBox) float64 {
	ix := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	iy := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.W*a.H + b.W*b.H - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
