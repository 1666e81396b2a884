package sample

import (
	"sync"
	"time"

	"github.com/banshee-data/pulse.report/internal/ring"
)

// DefaultCapacity matches the FFT window length.
const DefaultCapacity = 512

// Sample is one brightness measurement.
type Sample struct {
	Value     float32   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is a fixed-capacity FIFO of samples shared between the sampling
// cadence (writer) and the spectral, estimation and display readers. Every
// read returns an independent copy taken under the lock.
type Buffer struct {
	mu      sync.RWMutex
	samples *ring.Buffer[Sample]
}

// NewBuffer returns a Buffer keeping at most capacity samples.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{samples: ring.New[Sample](capacity)}
}

// Push appends s, evicting the oldest sample when full.
func (b *Buffer) Push(s Sample) {
	b.mu.Lock()
	b.samples.Add(s)
	b.mu.Unlock()
}

// Snapshot returns the retained samples in push order.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.samples.All()
}

// Values returns the retained sample values in push order.
func (b *Buffer) Values() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]float32, 0, b.samples.Len())
	b.samples.Each(func(s Sample) {
		out = append(out, s.Value)
	})
	return out
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.samples.Len()
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.samples.Cap()
}

// Reset drops every sample.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.samples.Clear()
	b.mu.Unlock()
}
