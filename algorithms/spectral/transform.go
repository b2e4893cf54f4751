package spectral

import (
	"errors"
	"fmt"
	"strings"

	vecmath "github.com/cwbudde/algo-vecmath"
)

var (
	ErrUnknownKind        = errors.New("unknown transform kind")
	ErrInverseUnsupported = errors.New("inverse transform not supported for kind")
	ErrInvalidParameters  = errors.New("invalid transform parameters")
	ErrEmptySignal        = errors.New("empty signal")
)

// Kind identifies the time-frequency representation held by a Transform
type Kind string

const (
	KindSTFT   Kind = "stft"
	KindCQT    Kind = "cqt"
	KindChroma Kind = "chroma"
)

// Kinds returns all supported transform kinds
func Kinds() []Kind {
	return []Kind{KindSTFT, KindCQT, KindChroma}
}

// ParseKind validates a kind name
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	switch k {
	case KindSTFT, KindCQT, KindChroma:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Transform is a complex time-frequency matrix with a channel axis.
// Data is indexed [channel][frame][bin].
type Transform struct {
	Kind         Kind             `json:"kind"`
	Data         [][][]complex128 `json:"-"`
	SampleRate   int              `json:"sample_rate"`
	FrameSize    int              `json:"frame_size"`
	HopSize      int              `json:"hop_size"`
	SignalLength int              `json:"signal_length"` // samples in the source waveform
}

// NewTransform allocates a zeroed transform of the given shape
func NewTransform(kind Kind, channels, frames, bins int) *Transform {
	data := make([][][]complex128, channels)
	for ch := range data {
		data[ch] = make([][]complex128, frames)
		for f := range data[ch] {
			data[ch][f] = make([]complex128, bins)
		}
	}
	return &Transform{Kind: kind, Data: data}
}

// Channels returns the size of the channel axis
func (t *Transform) Channels() int {
	return len(t.Data)
}

// Frames returns the number of time frames
func (t *Transform) Frames() int {
	if len(t.Data) == 0 {
		return 0
	}
	return len(t.Data[0])
}

// Bins returns the number of frequency bins
func (t *Transform) Bins() int {
	if t.Frames() == 0 {
		return 0
	}
	return len(t.Data[0][0])
}

// Magnitude returns |X| for one channel as a Time x Frequency matrix
func (t *Transform) Magnitude(channel int) [][]float64 {
	if channel < 0 || channel >= t.Channels() {
		return nil
	}

	bins := t.Bins()
	re := make([]float64, bins)
	im := make([]float64, bins)

	out := make([][]float64, t.Frames())
	for f, frame := range t.Data[channel] {
		out[f] = make([]float64, bins)
		splitComplex(frame, re, im)
		vecmath.Magnitude(out[f], re, im)
	}
	return out
}

// FrameEnergy returns, per frame, the sum of |X| over every channel and bin
func (t *Transform) FrameEnergy() []float64 {
	frames := t.Frames()
	bins := t.Bins()
	energy := make([]float64, frames)
	if bins == 0 {
		return energy
	}

	re := make([]float64, bins)
	im := make([]float64, bins)
	mag := make([]float64, bins)

	for _, channel := range t.Data {
		for f := range frames {
			splitComplex(channel[f], re, im)
			vecmath.Magnitude(mag, re, im)
			for _, m := range mag {
				energy[f] += m
			}
		}
	}
	return energy
}

// Clone returns a deep copy
func (t *Transform) Clone() *Transform {
	out := *t
	out.Data = make([][][]complex128, len(t.Data))
	for ch, channel := range t.Data {
		out.Data[ch] = make([][]complex128, len(channel))
		for f, frame := range channel {
			out.Data[ch][f] = append([]complex128(nil), frame...)
		}
	}
	return &out
}

func (t *Transform) String() string {
	return fmt.Sprintf("%s[%dch x %d frames x %d bins]", t.Kind, t.Channels(), t.Frames(), t.Bins())
}

func splitComplex(in []complex128, re, im []float64) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}
