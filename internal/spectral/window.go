package spectral

import "math"

// hannWindow returns a periodic Hann window of length n scaled to unit RMS,
// 0.8165·(1 − cos(2πi/n)).
func hannWindow(n int) []float32 {
	scale := math.Sqrt(2.0 / 3.0)
	w := make([]float32, n)
	for i := range w {
		w[i] = float32(scale * (1 - math.Cos(2*math.Pi*float64(i)/float64(n))))
	}
	return w
}
