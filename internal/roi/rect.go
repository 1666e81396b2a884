package roi

import (
	"image"
	"math"
)

// FaceBox is a face bounding box in normalized image coordinates with a
// bottom-left origin.
type FaceBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ImageSize is the pixel size of a frame.
type ImageSize struct {
	Width, Height int
}

// SizeOf returns the size of an image's bounds.
func SizeOf(img image.Image) ImageSize {
	b := img.Bounds()
	return ImageSize{Width: b.Dx(), Height: b.Dy()}
}

// Rect is a rectangle in absolute pixel coordinates with a bottom-left origin.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Relative sub-rectangle of the face box sampled for brightness.
var measurementBand = struct{ cx, cy, w, h float64 }{0.5, 0.2, 1.0, 0.4}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return !(r.W > 0 && r.H > 0)
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the top edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// clampUnit clips a normalized face box to the unit square.
func (f FaceBox) clampUnit() FaceBox {
	if f.X >= 0 && f.Y >= 0 && f.X+f.W <= 1 && f.Y+f.H <= 1 {
		return f
	}
	x0 := math.Max(0, f.X)
	y0 := math.Max(0, f.Y)
	x1 := math.Min(1, f.X+f.W)
	y1 := math.Min(1, f.Y+f.H)
	return FaceBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Absolute scales the normalized box to pixel coordinates.
func (f FaceBox) Absolute(size ImageSize) Rect {
	w := float64(size.Width)
	h := float64(size.Height)
	return Rect{X: f.X * w, Y: f.Y * h, W: f.W * w, H: f.H * h}
}

// MeasurementRegion returns the lower-face band of the face rectangle.
func MeasurementRegion(face Rect) Rect {
	band := measurementBand
	return Rect{
		X: face.X + (band.cx-band.w/2)*face.W,
		Y: face.Y + (band.cy-band.h/2)*face.H,
		W: band.w * face.W,
		H: band.h * face.H,
	}
}

// Clamp intersects r with the image bounds.
func (r Rect) Clamp(size ImageSize) Rect {
	x0 := math.Max(0, r.X)
	y0 := math.Max(0, r.Y)
	x1 := math.Min(float64(size.Width), r.MaxX())
	y1 := math.Min(float64(size.Height), r.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ImageRectangle converts r to an integer rectangle in image.Image
// coordinates (top-left origin) for an image whose bounds start at origin.
// The result is clipped to the image and may be empty.
func (r Rect) ImageRectangle(origin image.Point, size ImageSize) image.Rectangle {
	c := r.Clamp(size)
	if c.Empty() {
		return image.Rectangle{}
	}
	top := float64(size.Height) - c.MaxY()
	bottom := float64(size.Height) - c.Y
	out := image.Rect(
		int(math.Floor(c.X)), int(math.Floor(top)),
		int(math.Ceil(c.MaxX())), int(math.Ceil(bottom)),
	)
	return out.Add(origin).Intersect(image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size.Width, size.Height))})
}
