package chroma

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
)

// ChromaBins is the number of pitch classes in a chroma frame
const ChromaBins = 12

// ChromaCQT computes a chromagram by folding CQT energy into the twelve pitch
// classes. Bin 0 is C.
type ChromaCQT struct {
	cqt *CQT
}

// NewChromaCQT creates a chromagram calculator on top of a CQT
func NewChromaCQT(cqt *CQT) *ChromaCQT {
	return &ChromaCQT{cqt: cqt}
}

// Forward computes the CQT of every channel and folds it to chroma
func (c *ChromaCQT) Forward(channels [][]float64, hopSize int) (*spectral.Transform, error) {
	cqtResult, err := c.cqt.Forward(channels, hopSize)
	if err != nil {
		return nil, err
	}
	return FromCQT(cqtResult, c.cqt.Frequencies(), c.cqt.TuningFreq()), nil
}

// FromCQT sums squared CQT magnitudes per pitch class and normalizes each
// frame to unit sum. Silent frames stay zero. Values are stored as real parts.
func FromCQT(t *spectral.Transform, freqs []float64, tuningFreq float64) *spectral.Transform {
	out := spectral.NewTransform(spectral.KindChroma, t.Channels(), t.Frames(), ChromaBins)
	out.SampleRate = t.SampleRate
	out.FrameSize = t.FrameSize
	out.HopSize = t.HopSize
	out.SignalLength = t.SignalLength

	classes := make([]int, len(freqs))
	for k, freq := range freqs {
		classes[k] = pitchClassOf(freq, tuningFreq)
	}

	energy := make([]float64, ChromaBins)
	for ch, frames := range t.Data {
		for f, frame := range frames {
			clear(energy)
			for k, v := range frame {
				if k >= len(classes) {
					break
				}
				mag := cmplx.Abs(v)
				energy[classes[k]] += mag * mag
			}

			normalizeChromaFrame(energy)
			for b, e := range energy {
				out.Data[ch][f][b] = complex(e, 0)
			}
		}
	}
	return out
}

// pitchClassOf maps a frequency to its nearest pitch class, 0 = C
func pitchClassOf(frequency, tuningFreq float64) int {
	if frequency <= 0 {
		return 0
	}

	// MIDI note number: 69 + 12 * log2(f/440)
	midi := int(math.Round(69.0 + 12.0*math.Log2(frequency/tuningFreq)))
	pc := midi % ChromaBins
	if pc < 0 {
		pc += ChromaBins
	}
	return pc
}

// normalizeChromaFrame scales a chroma frame to unit sum
func normalizeChromaFrame(chromaFrame []float64) {
	totalEnergy := 0.0
	for _, energy := range chromaFrame {
		totalEnergy += energy
	}

	if totalEnergy > 1e-10 {
		for i := range chromaFrame {
			chromaFrame[i] /= totalEnergy
		}
	} else {
		clear(chromaFrame)
	}
}
