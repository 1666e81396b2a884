package roi

import (
	"sync"

	"github.com/banshee-data/pulse.report/internal/ring"
)

// DefaultHistory is the number of regions averaged by a Tracker.
const DefaultHistory = 120

// Tracker keeps the most recent measurement regions and exposes their
// coordinate-wise mean. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	rects *ring.Buffer[Rect]
	mean  Rect
	valid bool
}

// NewTracker returns a Tracker averaging over history regions.
func NewTracker(history int) *Tracker {
	if history < 1 {
		history = DefaultHistory
	}
	return &Tracker{rects: ring.New[Rect](history)}
}

// Update records the measurement region implied by face and returns the
// smoothed region. Degenerate faces (no area inside the unit square) are
// ignored; ok is false until at least one usable face has been seen.
func (t *Tracker) Update(face FaceBox, size ImageSize) (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clamped := face.clampUnit()
	if clamped.W <= 0 || clamped.H <= 0 || size.Width <= 0 || size.Height <= 0 {
		return t.mean, t.valid
	}

	t.rects.Add(MeasurementRegion(clamped.Absolute(size)))
	t.mean = meanRect(t.rects)
	t.valid = true
	return t.mean, true
}

// Current returns the latest smoothed region.
func (t *Tracker) Current() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mean, t.valid
}

// History returns the retained raw regions, oldest first.
func (t *Tracker) History() []Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rects.All()
}

// Reset forgets every region.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rects.Clear()
	t.mean = Rect{}
	t.valid = false
}

// meanRect averages min corners and sizes. Deviations are taken from the
// oldest rect so a constant input reproduces that rect exactly.
func meanRect(rects *ring.Buffer[Rect]) Rect {
	pivot, ok := rects.Previous(rects.Len())
	if !ok {
		return Rect{}
	}
	var dx, dy, dw, dh float64
	rects.Each(func(r Rect) {
		dx += r.X - pivot.X
		dy += r.Y - pivot.Y
		dw += r.W - pivot.W
		dh += r.H - pivot.H
	})
	n := float64(rects.Len())
	return Rect{
		X: pivot.X + dx/n,
		Y: pivot.Y + dy/n,
		W: pivot.W + dw/n,
		H: pivot.H + dh/n,
	}
}
