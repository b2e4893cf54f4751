package spectral

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestForwardShape(t *testing.T) {
	s := NewSTFT()
	sig := sine(440, 8000, 4096)

	tr, err := s.Forward([][]float64{sig, sig}, 1024, 256, 8000)
	require.NoError(t, err)

	assert.Equal(t, KindSTFT, tr.Kind)
	assert.Equal(t, 2, tr.Channels())
	assert.Equal(t, 1+4096/256, tr.Frames())
	assert.Equal(t, 513, tr.Bins())
	assert.Equal(t, 4096, tr.SignalLength)
	assert.Equal(t, 8000, tr.SampleRate)
}

func TestForwardPeakBin(t *testing.T) {
	s := NewSTFT()
	// 1000 Hz at 8 kHz with a 256-point frame lands on bin 32
	tr, err := s.Forward([][]float64{sine(1000, 8000, 2048)}, 256, 64, 8000)
	require.NoError(t, err)

	mag := tr.Magnitude(0)
	mid := mag[len(mag)/2]
	peak := 0
	for k := range mid {
		if mid[k] > mid[peak] {
			peak = k
		}
	}
	assert.Equal(t, 32, peak)
}

func TestRoundTrip(t *testing.T) {
	s := NewSTFT()
	left := sine(440, 8000, 3000)
	right := sine(660, 8000, 3000)

	tr, err := s.Forward([][]float64{left, right}, 512, 128, 8000)
	require.NoError(t, err)

	out, err := s.Inverse(tr)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, out[0], 3000)

	for i := range left {
		assert.InDelta(t, left[i], out[0][i], 1e-6, "left sample %d", i)
		assert.InDelta(t, right[i], out[1][i], 1e-6, "right sample %d", i)
	}
}

func TestForwardValidation(t *testing.T) {
	s := NewSTFT()

	_, err := s.Forward(nil, 512, 128, 8000)
	assert.ErrorIs(t, err, ErrEmptySignal)

	_, err = s.Forward([][]float64{{}}, 512, 128, 8000)
	assert.ErrorIs(t, err, ErrEmptySignal)

	_, err = s.Forward([][]float64{make([]float64, 10)}, 0, 128, 8000)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = s.Forward([][]float64{make([]float64, 10)}, 64, 128, 8000)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = s.Forward([][]float64{make([]float64, 10), make([]float64, 11)}, 8, 4, 8000)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestInverseRejectsNonSTFT(t *testing.T) {
	s := NewSTFT()
	tr := NewTransform(KindCQT, 1, 4, 84)
	tr.FrameSize = 2048
	tr.HopSize = 512

	_, err := s.Inverse(tr)
	assert.ErrorIs(t, err, ErrInverseUnsupported)
}

func TestFullSpectrumIsHermitian(t *testing.T) {
	x := []float64{1, -2, 3, 0.5, 0, 7, -1, 2}
	f := NewFFT()
	full := f.Compute(x)

	rebuilt := FullSpectrum(full[:len(x)/2+1], len(x))
	for k := range full {
		assert.InDelta(t, 0, cmplx.Abs(full[k]-rebuilt[k]), 1e-12, "bin %d", k)
	}

	back := f.ComputeInverseReal(rebuilt)
	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-12)
	}
}

func TestGetOptimalWorkerCount(t *testing.T) {
	assert.GreaterOrEqual(t, getOptimalWorkerCount(1), 1)
	assert.LessOrEqual(t, getOptimalWorkerCount(1), 1)
	assert.LessOrEqual(t, getOptimalWorkerCount(500), 8)
}
