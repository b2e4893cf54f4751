// Package mixing combines onset-aligned spectral transforms of single notes
// into the transform of a chord.
package mixing

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/temporal"
	"github.com/RyanBlaney/sonido-chords/logging"
)

var (
	ErrEmptyChord                  = errors.New("no transforms to mix")
	ErrIncompatibleTransformShapes = errors.New("incompatible transform shapes")
)

// Mixer aligns transforms on their onsets and sums them
type Mixer struct {
	detector *temporal.OnsetDetector
	logger   logging.Logger
}

// NewMixer creates a mixer using detector for onsets; nil uses the default
// thresholds
func NewMixer(detector *temporal.OnsetDetector) *Mixer {
	if detector == nil {
		detector = temporal.NewOnsetDetector(nil)
	}
	return &Mixer{
		detector: detector,
		logger:   logging.WithFields(logging.Fields{"component": "mixer"}),
	}
}

// Mix sums transforms with a default Mixer
func Mix(transforms []*spectral.Transform) (*spectral.Transform, error) {
	return NewMixer(nil).Mix(transforms)
}

// Mix aligns every input so its onset lands on the earliest onset and sums
// them element-wise. The output has the smallest frame count among the
// inputs. A shifted input that runs out of frames keeps contributing its last
// frame. The frequency and channel axes are unchanged, and the result does
// not depend on input order.
func (m *Mixer) Mix(transforms []*spectral.Transform) (*spectral.Transform, error) {
	if len(transforms) == 0 {
		return nil, ErrEmptyChord
	}
	if err := checkCompatible(transforms); err != nil {
		return nil, err
	}

	onsets, err := m.detector.DetectAll(transforms)
	if err != nil {
		return nil, err
	}

	order := canonicalOrder(transforms, onsets)

	shifts := Shifts(onsets)
	first := transforms[0]
	targetFrames := first.Frames()
	signalLength := first.SignalLength
	for _, t := range transforms[1:] {
		targetFrames = min(targetFrames, t.Frames())
		signalLength = min(signalLength, t.SignalLength)
	}

	out := spectral.NewTransform(first.Kind, first.Channels(), targetFrames, first.Bins())
	out.SampleRate = first.SampleRate
	out.FrameSize = first.FrameSize
	out.HopSize = first.HopSize
	out.SignalLength = signalLength

	for _, i := range order {
		src := transforms[i]
		last := src.Frames() - 1
		for ch := range out.Data {
			for j, dst := range out.Data[ch] {
				frame := src.Data[ch][min(j+shifts[i], last)]
				for b, v := range frame {
					dst[b] += v
				}
			}
		}
	}

	m.logger.Debug("mixed transforms", logging.Fields{
		"inputs": len(transforms),
		"onsets": onsets,
		"frames": targetFrames,
	})

	return out, nil
}

// Shifts returns onset - min(onsets) for each onset
func Shifts(onsets []int) []int {
	if len(onsets) == 0 {
		return nil
	}
	lo := slices.Min(onsets)
	shifts := make([]int, len(onsets))
	for i, o := range onsets {
		shifts[i] = o - lo
	}
	return shifts
}

func checkCompatible(transforms []*spectral.Transform) error {
	first := transforms[0]
	for i, t := range transforms {
		if t == nil || t.Frames() == 0 || t.Bins() == 0 {
			return fmt.Errorf("%w: input %d is empty", ErrIncompatibleTransformShapes, i)
		}
		switch {
		case t.Kind != first.Kind:
			return fmt.Errorf("%w: input %d is %s, want %s", ErrIncompatibleTransformShapes, i, t.Kind, first.Kind)
		case t.Channels() != first.Channels():
			return fmt.Errorf("%w: input %d has %d channels, want %d", ErrIncompatibleTransformShapes, i, t.Channels(), first.Channels())
		case t.Bins() != first.Bins():
			return fmt.Errorf("%w: input %d has %d bins, want %d", ErrIncompatibleTransformShapes, i, t.Bins(), first.Bins())
		case t.HopSize != first.HopSize:
			return fmt.Errorf("%w: input %d hop size %d, want %d", ErrIncompatibleTransformShapes, i, t.HopSize, first.HopSize)
		}
		for ch, frames := range t.Data {
			if len(frames) != t.Frames() {
				return fmt.Errorf("%w: input %d channel %d is ragged", ErrIncompatibleTransformShapes, i, ch)
			}
			for f, frame := range frames {
				if len(frame) != t.Bins() {
					return fmt.Errorf("%w: input %d channel %d frame %d has %d bins, want %d", ErrIncompatibleTransformShapes, i, ch, f, len(frame), t.Bins())
				}
			}
		}
	}
	return nil
}

// canonicalOrder returns input indices sorted by content so that floating
// point accumulation happens in the same order for any permutation
func canonicalOrder(transforms []*spectral.Transform, onsets []int) []int {
	order := make([]int, len(transforms))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(onsets[a], onsets[b]); c != 0 {
			return c
		}
		return compareContent(transforms[a], transforms[b])
	})
	return order
}

func compareContent(a, b *spectral.Transform) int {
	if c := cmp.Compare(a.Frames(), b.Frames()); c != 0 {
		return c
	}
	for ch := range a.Data {
		for f := range a.Data[ch] {
			for k, x := range a.Data[ch][f] {
				y := b.Data[ch][f][k]
				if c := cmp.Compare(real(x), real(y)); c != 0 {
					return c
				}
				if c := cmp.Compare(imag(x), imag(y)); c != 0 {
					return c
				}
			}
		}
	}
	return 0
}
