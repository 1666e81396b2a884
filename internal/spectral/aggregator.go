package spectral

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/pulse.report/internal/ring"
)

// DefaultSpectrumHistory is the number of spectra averaged by an Aggregator.
const DefaultSpectrumHistory = 200

// Aggregator keeps the most recent weighted intensity vectors and averages
// them coordinate-wise. It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	history *ring.Buffer[[]float64]
	length  int
}

// NewAggregator returns an Aggregator averaging over history spectra.
func NewAggregator(history int) *Aggregator {
	if history < 1 {
		history = DefaultSpectrumHistory
	}
	return &Aggregator{history: ring.New[[]float64](history)}
}

// Aggregate scales the intensities of spectrum by weight, appends them to the
// history and returns the mean spectrum over the retained history together
// with the BPM of its strongest bin.
//
// An empty spectrum skips the cycle: nothing is appended and ok is false.
// A spectrum whose length differs from the retained ones (a changed band)
// restarts the history.
func (a *Aggregator) Aggregate(spectrum []Point, weight float32) (avg []Point, dominant float32, ok bool) {
	if len(spectrum) == 0 {
		return nil, 0, false
	}

	vec := make([]float64, len(spectrum))
	for i, p := range spectrum {
		vec[i] = float64(weight * p.Intensity)
	}

	a.mu.Lock()
	if a.length != len(vec) {
		a.history.Clear()
		a.length = len(vec)
	}
	a.history.Add(vec)

	sum := make([]float64, a.length)
	a.history.Each(func(v []float64) {
		floats.Add(sum, v)
	})
	floats.Scale(1/float64(a.history.Len()), sum)
	a.mu.Unlock()

	avg = make([]Point, len(spectrum))
	for i, p := range spectrum {
		avg[i] = Point{BPM: p.BPM, Intensity: float32(sum[i])}
	}
	return avg, spectrum[floats.MaxIdx(sum)].BPM, true
}

// Len returns the number of retained spectra.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.Len()
}

// Reset drops every retained spectrum.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history.Clear()
	a.length = 0
}
