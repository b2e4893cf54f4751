package chroma

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

func testConfig() CQTConfig {
	cfg := DefaultCQTConfig()
	cfg.MinFreq = 110
	cfg.NumBins = 24
	return cfg
}

func tone(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func argmax(xs []float64) int {
	best := 0
	for i := range xs {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func TestCQTConfigValidate(t *testing.T) {
	require.NoError(t, DefaultCQTConfig().Validate(44100))

	cfg := DefaultCQTConfig()
	assert.ErrorIs(t, cfg.Validate(7000), ErrInvalidCQTConfig, "top bin above Nyquist")

	cfg.MinFreq = 0
	assert.ErrorIs(t, cfg.Validate(44100), ErrInvalidCQTConfig)

	cfg = DefaultCQTConfig()
	cfg.NumBins = 0
	assert.ErrorIs(t, cfg.Validate(44100), ErrInvalidCQTConfig)

	assert.InDelta(t, 16.817, DefaultCQTConfig().Q(), 1e-3)
}

func TestCQTFrequencies(t *testing.T) {
	cqt, err := NewCQT(testRate, testConfig())
	require.NoError(t, err)

	freqs := cqt.Frequencies()
	require.Len(t, freqs, 24)
	assert.InDelta(t, 110, freqs[0], 1e-9)
	assert.InDelta(t, 220, freqs[12], 1e-9)
	assert.Equal(t, 0, cqt.FFTSize()&(cqt.FFTSize()-1), "power of two")
}

func TestCQTPeakFollowsPitch(t *testing.T) {
	cqt, err := NewCQT(testRate, testConfig())
	require.NoError(t, err)

	tr, err := cqt.Forward([][]float64{tone(220, 8000)}, 512)
	require.NoError(t, err)

	assert.Equal(t, spectral.KindCQT, tr.Kind)
	assert.Equal(t, 1+8000/512, tr.Frames())
	assert.Equal(t, 24, tr.Bins())

	mag := tr.Magnitude(0)
	assert.Equal(t, 12, argmax(mag[tr.Frames()/2]))
}

func TestCQTForwardValidation(t *testing.T) {
	cqt, err := NewCQT(testRate, testConfig())
	require.NoError(t, err)

	_, err = cqt.Forward([][]float64{tone(220, 100)}, 0)
	assert.ErrorIs(t, err, spectral.ErrInvalidParameters)

	_, err = cqt.Forward(nil, 512)
	assert.ErrorIs(t, err, spectral.ErrEmptySignal)
}

func TestChromaFoldsToPitchClass(t *testing.T) {
	cqt, err := NewCQT(testRate, testConfig())
	require.NoError(t, err)
	chroma := NewChromaCQT(cqt)

	tr, err := chroma.Forward([][]float64{tone(220, 8000), tone(130.81, 8000)}, 512)
	require.NoError(t, err)

	assert.Equal(t, spectral.KindChroma, tr.Kind)
	assert.Equal(t, 2, tr.Channels())
	assert.Equal(t, ChromaBins, tr.Bins())

	mid := tr.Frames() / 2
	assert.Equal(t, 9, argmax(tr.Magnitude(0)[mid]), "A")
	assert.Equal(t, 0, argmax(tr.Magnitude(1)[mid]), "C")

	sum := 0.0
	for _, v := range tr.Magnitude(0)[mid] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestChromaOfSilenceIsZero(t *testing.T) {
	cqt, err := NewCQT(testRate, testConfig())
	require.NoError(t, err)

	tr, err := NewChromaCQT(cqt).Forward([][]float64{make([]float64, 2048)}, 512)
	require.NoError(t, err)

	for _, e := range tr.FrameEnergy() {
		assert.Zero(t, e)
	}
}

func TestPitchClassOf(t *testing.T) {
	assert.Equal(t, 9, pitchClassOf(440, 440))
	assert.Equal(t, 0, pitchClassOf(261.63, 440))
	assert.Equal(t, 1, pitchClassOf(277.18, 440))
	assert.Equal(t, 0, pitchClassOf(0, 440))
}
