package temporal

import (
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformWithEnergy(kind spectral.Kind, perFrame ...float64) *spectral.Transform {
	t := spectral.NewTransform(kind, 1, len(perFrame), 1)
	for f, e := range perFrame {
		t.Data[0][f][0] = complex(e, 0)
	}
	return t
}

func TestDetectOnsetFirstFrameAboveThreshold(t *testing.T) {
	tr := transformWithEnergy(spectral.KindSTFT, 0, 5, 10, 11, 50)
	assert.Equal(t, 3, DetectOnset(tr, 10), "strictly greater than threshold")
	assert.Equal(t, 1, DetectOnset(tr, 0))
}

func TestDetectOnsetSilenceIsZero(t *testing.T) {
	tr := spectral.NewTransform(spectral.KindSTFT, 2, 20, 8)
	assert.Equal(t, 0, DetectOnset(tr, 10))
	assert.Equal(t, 0, DetectOnset(tr, 0))

	assert.Equal(t, 0, DetectOnset(&spectral.Transform{Kind: spectral.KindSTFT}, 0))
}

func TestDetectOnsetSumsChannels(t *testing.T) {
	tr := spectral.NewTransform(spectral.KindCQT, 2, 3, 1)
	tr.Data[0][1][0] = 0.06
	tr.Data[1][1][0] = complex(0, 0.06)

	assert.Equal(t, 1, DetectOnset(tr, 0.1))
}

func TestOnsetDetectorThresholdsByKind(t *testing.T) {
	od := NewOnsetDetector(nil)

	cases := []struct {
		kind spectral.Kind
		want float64
	}{
		{spectral.KindSTFT, 10},
		{spectral.KindCQT, 0.1},
		{spectral.KindChroma, 0},
	}
	for _, tc := range cases {
		th, err := od.Threshold(tc.kind)
		require.NoError(t, err)
		assert.Equal(t, tc.want, th, tc.kind)
	}

	onset, err := od.Detect(transformWithEnergy(spectral.KindCQT, 0.05, 0.2))
	require.NoError(t, err)
	assert.Equal(t, 1, onset)

	onset, err = od.Detect(transformWithEnergy(spectral.KindChroma, 0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, onset)

	_, err = od.Detect(transformWithEnergy("mel", 1))
	assert.ErrorIs(t, err, spectral.ErrUnknownKind)
}

func TestOnsetDetectorOverrides(t *testing.T) {
	od := NewOnsetDetector(map[spectral.Kind]float64{spectral.KindSTFT: 1})

	onsets, err := od.DetectAll([]*spectral.Transform{
		transformWithEnergy(spectral.KindSTFT, 0, 2),
		transformWithEnergy(spectral.KindCQT, 0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, onsets)
}

func TestOnsetTime(t *testing.T) {
	tr := transformWithEnergy(spectral.KindSTFT, 0)
	tr.SampleRate = 44100
	tr.HopSize = 441
	assert.InDelta(t, 0.2, OnsetTime(tr, 20), 1e-12)
}
