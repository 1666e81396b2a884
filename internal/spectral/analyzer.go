package spectral

import (
	"fmt"
	"math"
	"sync"
)

// Point is one bin of a heart-rate spectrum.
type Point struct {
	BPM       float32 `json:"bpm"`
	Intensity float32 `json:"intensity"`
}

// minMagnitude floors squared magnitudes before the logarithm so silent bins
// map to a very low but finite level.
const minMagnitude = math.SmallestNonzeroFloat32

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	SampleCount      int     // FFT length, power of two
	SampleRateHz     int     // sampling cadence of the input
	MinBPM           int     // lower edge of the reported band
	MaxBPM           int     // upper edge of the reported band
	DecibelReference float32 // zero reference of the dB conversion
}

// DefaultAnalyzerConfig is a 512-point transform of a 30 Hz signal
// reported over 50–100 BPM.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SampleCount:      512,
		SampleRateHz:     30,
		MinBPM:           50,
		MaxBPM:           100,
		DecibelReference: 10,
	}
}

// Analyzer turns a full sample window into a band-limited BPM spectrum.
// It is safe for concurrent use.
type Analyzer struct {
	cfg    AnalyzerConfig
	window []float32
	lo, hi int // inclusive bin range of the band

	mu       sync.Mutex
	fft      *realFFT
	windowed []float32
	bins     []complex64
}

// NewAnalyzer validates cfg and precomputes the window and FFT tables.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	fft, err := newRealFFT(cfg.SampleCount)
	if err != nil {
		return nil, err
	}
	if cfg.SampleRateHz <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRateHz)
	}
	if cfg.MinBPM < 0 || cfg.MinBPM >= cfg.MaxBPM {
		return nil, fmt.Errorf("invalid bpm band [%d, %d]", cfg.MinBPM, cfg.MaxBPM)
	}
	if cfg.DecibelReference <= 0 {
		return nil, fmt.Errorf("decibel reference must be positive, got %f", cfg.DecibelReference)
	}

	perMinute := cfg.SampleRateHz * 60
	return &Analyzer{
		cfg:      cfg,
		window:   hannWindow(cfg.SampleCount),
		lo:       cfg.MinBPM * cfg.SampleCount / perMinute,
		hi:       cfg.MaxBPM * cfg.SampleCount / perMinute,
		fft:      fft,
		windowed: make([]float32, cfg.SampleCount),
		bins:     make([]complex64, cfg.SampleCount/2+1),
	}, nil
}

// SampleCount returns the required input length.
func (a *Analyzer) SampleCount() int { return a.cfg.SampleCount }

// Band returns the inclusive FFT bin range reported by Analyze.
func (a *Analyzer) Band() (lo, hi int) { return a.lo, a.hi }

// BinBPM maps an FFT bin to beats per minute. The product is exact in
// integers and the division by the power-of-two length is exact in float64,
// so the only rounding is the final float32 conversion.
func (a *Analyzer) BinBPM(bin int) float32 {
	return float32(float64(bin*a.cfg.SampleRateHz*60) / float64(a.cfg.SampleCount))
}

// BinWidthBPM returns the BPM spacing between adjacent bins.
func (a *Analyzer) BinWidthBPM() float32 {
	return a.BinBPM(1)
}

// Decibels returns the dB level of all SampleCount/2+1 bins, or nil when
// samples does not hold exactly SampleCount values.
//
// Bins 1..n/2-1 carry squared magnitudes. Bins 0 and n/2 carry the DC and
// Nyquist terms of the packed transform as-is. Magnitudes follow the packed
// real-FFT convention, twice the mathematical DFT.
func (a *Analyzer) Decibels(samples []float32) []float32 {
	n := a.cfg.SampleCount
	if len(samples) != n {
		return nil
	}

	a.mu.Lock()
	for i, s := range samples {
		a.windowed[i] = s * a.window[i]
	}
	a.fft.transform(a.windowed, a.bins)

	half := n / 2
	out := make([]float32, half+1)
	for k := 1; k < half; k++ {
		re, im := 2*real(a.bins[k]), 2*imag(a.bins[k])
		out[k] = re*re + im*im
	}
	out[0] = 2 * real(a.bins[0])
	out[half] = 2 * real(a.bins[half])
	a.mu.Unlock()

	ref := float64(a.cfg.DecibelReference)
	for i, m := range out {
		out[i] = float32(20 * math.Log10(math.Max(float64(m), minMagnitude)/ref))
	}
	return out
}

// Analyze returns the band-limited spectrum of samples. The result is empty
// until exactly SampleCount samples are supplied or when the band does not fit
// inside the available bins.
func (a *Analyzer) Analyze(samples []float32) []Point {
	db := a.Decibels(samples)
	if db == nil || a.hi >= len(db) || a.lo > a.hi {
		return []Point{}
	}

	out := make([]Point, 0, a.hi-a.lo+1)
	for bin := a.lo; bin <= a.hi; bin++ {
		out = append(out, Point{BPM: a.BinBPM(bin), Intensity: db[bin]})
	}
	return out
}
