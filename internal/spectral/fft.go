package spectral

import (
	"fmt"
	"math"
	"math/bits"
)

// realFFT computes the forward transform of n real samples with a complex
// radix-2 FFT of size n/2. Even samples are packed into the real parts and
// odd samples into the imaginary parts; the half-size spectrum is then split
// into the n/2+1 non-negative frequency bins.
type realFFT struct {
	n       int
	half    int
	rev     []int       // bit-reversal permutation for half
	twiddle []complex64 // exp(-2πik/half), k < half/2
	split   []complex64 // exp(-2πik/n), k <= half
	scratch []complex64
}

func newRealFFT(n int) (*realFFT, error) {
	if n < 4 || bits.OnesCount(uint(n)) != 1 {
		return nil, fmt.Errorf("fft length must be a power of two >= 4, got %d", n)
	}
	half := n / 2
	logHalf := bits.TrailingZeros(uint(half))

	f := &realFFT{
		n:       n,
		half:    half,
		rev:     make([]int, half),
		twiddle: make([]complex64, half/2),
		split:   make([]complex64, half+1),
		scratch: make([]complex64, half),
	}
	for i := range f.rev {
		f.rev[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - logHalf))
	}
	for k := range f.twiddle {
		theta := -2 * math.Pi * float64(k) / float64(half)
		f.twiddle[k] = complex(float32(math.Cos(theta)), float32(math.Sin(theta)))
	}
	for k := range f.split {
		theta := -2 * math.Pi * float64(k) / float64(n)
		f.split[k] = complex(float32(math.Cos(theta)), float32(math.Sin(theta)))
	}
	return f, nil
}

// transform writes the n/2+1 bins X[0..n/2] of x into out. len(x) must be n.
// realFFT is not safe for concurrent use.
func (f *realFFT) transform(x []float32, out []complex64) {
	z := f.scratch
	for k := 0; k < f.half; k++ {
		z[f.rev[k]] = complex(x[2*k], x[2*k+1])
	}
	f.butterflies(z)

	// Z[0] holds the even and odd sums: DC and Nyquist are purely real.
	z0r, z0i := real(z[0]), imag(z[0])
	out[0] = complex(z0r+z0i, 0)
	out[f.half] = complex(z0r-z0i, 0)

	for k := 1; k < f.half; k++ {
		zk := z[k]
		zc := conj(z[f.half-k])
		even := (zk + zc) * 0.5
		odd := (zk - zc) * complex(0, -0.5)
		out[k] = even + f.split[k]*odd
	}
}

func (f *realFFT) butterflies(z []complex64) {
	n := f.half
	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for j := 0; j < halfSize; j++ {
				w := f.twiddle[j*step]
				a := z[start+j]
				b := w * z[start+j+halfSize]
				z[start+j] = a + b
				z[start+j+halfSize] = a - b
			}
		}
	}
}

func conj(c complex64) complex64 {
	return complex(real(c), -imag(c))
}
