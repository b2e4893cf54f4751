package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind(" CQT ")
	require.NoError(t, err)
	assert.Equal(t, KindCQT, got)

	_, err = ParseKind("mel")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestFrameEnergySumsChannelsAndBins(t *testing.T) {
	tr := NewTransform(KindSTFT, 2, 3, 2)
	tr.Data[0][1][0] = complex(3, 4)
	tr.Data[1][1][1] = complex(0, -2)
	tr.Data[1][2][0] = complex(1, 0)

	assert.InDeltaSlice(t, []float64{0, 7, 1}, tr.FrameEnergy(), 1e-12)
}

func TestMagnitude(t *testing.T) {
	tr := NewTransform(KindCQT, 1, 1, 2)
	tr.Data[0][0][0] = complex(-6, 8)

	mag := tr.Magnitude(0)
	require.Len(t, mag, 1)
	assert.InDeltaSlice(t, []float64{10, 0}, mag[0], 1e-12)
	assert.Nil(t, tr.Magnitude(1))
}

func TestEmptyTransformShape(t *testing.T) {
	tr := &Transform{Kind: KindSTFT}
	assert.Equal(t, 0, tr.Channels())
	assert.Equal(t, 0, tr.Frames())
	assert.Equal(t, 0, tr.Bins())
	assert.Empty(t, tr.FrameEnergy())
}

func TestCloneIsDeep(t *testing.T) {
	tr := NewTransform(KindSTFT, 1, 2, 2)
	tr.HopSize = 512
	c := tr.Clone()
	c.Data[0][0][0] = 1

	assert.Equal(t, complex128(0), tr.Data[0][0][0])
	assert.Equal(t, 512, c.HopSize)
	assert.Equal(t, "stft[1ch x 2 frames x 2 bins]", c.String())
}
