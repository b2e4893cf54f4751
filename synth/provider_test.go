package synth

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/synth/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

func smallCQTConfig() chroma.CQTConfig {
	cfg := chroma.DefaultCQTConfig()
	cfg.MinFreq = 110
	cfg.NumBins = 24
	return cfg
}

func TestSpectralProviderKinds(t *testing.T) {
	tests := []struct {
		kind spectral.Kind
		bins int
	}{
		{spectral.KindSTFT, 129},
		{spectral.KindCQT, 24},
		{spectral.KindChroma, 12},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := NewSpectralProvider(config.TransformConfig{
				Kind:       tt.kind,
				SampleRate: testSampleRate,
				FrameSize:  256,
				HopSize:    64,
				CQT:        smallCQTConfig(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind())
			assert.Equal(t, tt.kind == spectral.KindSTFT, p.CanInvert())

			tr, err := p.Forward([][]float64{sine(220, 1024)}, testSampleRate)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tr.Kind)
			assert.Equal(t, 1, tr.Channels())
			assert.Equal(t, tt.bins, tr.Bins())
			assert.Equal(t, 17, tr.Frames())
		})
	}
}

func TestSpectralProviderInverse(t *testing.T) {
	p := testProvider(t)
	signal := sine(440, 1000)

	tr, err := p.Forward([][]float64{signal}, testSampleRate)
	require.NoError(t, err)

	out, err := p.Inverse(tr)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0], len(signal))
	for i := range signal {
		assert.InDelta(t, signal[i], out[0][i], 1e-6)
	}
}

func TestSpectralProviderInverseUnsupported(t *testing.T) {
	p, err := NewSpectralProvider(config.TransformConfig{
		Kind:       spectral.KindCQT,
		SampleRate: testSampleRate,
		FrameSize:  256,
		HopSize:    64,
		CQT:        smallCQTConfig(),
	})
	require.NoError(t, err)

	tr, err := p.Forward([][]float64{sine(220, 512)}, testSampleRate)
	require.NoError(t, err)

	_, err = p.Inverse(tr)
	assert.ErrorIs(t, err, spectral.ErrInverseUnsupported)
}

func TestSpectralProviderErrors(t *testing.T) {
	_, err := NewSpectralProvider(config.TransformConfig{Kind: "wavelet", SampleRate: testSampleRate})
	assert.ErrorIs(t, err, spectral.ErrUnknownKind)

	p := testProvider(t)
	_, err = p.Forward([][]float64{sine(220, 512)}, 44100)
	assert.ErrorIs(t, err, spectral.ErrInvalidParameters)
}
