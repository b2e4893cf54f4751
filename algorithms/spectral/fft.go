package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-input transforms
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of x
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles non-power-of-2 sizes
	return fft.FFTReal(x)
}

// ComputeInverseReal computes the inverse FFT and returns the real part
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	out := make([]float64, len(result))
	for i, val := range result {
		out[i] = real(val)
	}
	return out
}

// FullSpectrum rebuilds the n-point Hermitian spectrum from its n/2+1
// non-negative frequency bins.
func FullSpectrum(half []complex128, n int) []complex128 {
	full := make([]complex128, n)
	copy(full, half)
	for k := len(half); k < n; k++ {
		full[k] = cmplx.Conj(half[n-k])
	}
	return full
}
