package temporal

import (
	"fmt"
	"maps"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/logging"
)

// DefaultOnsetThresholds are the per-kind energy thresholds a frame must
// exceed to count as the onset
func DefaultOnsetThresholds() map[spectral.Kind]float64 {
	return map[spectral.Kind]float64{
		spectral.KindSTFT:   10,
		spectral.KindCQT:    0.1,
		spectral.KindChroma: 0,
	}
}

// DetectOnset returns the index of the first frame whose magnitude, summed
// over every channel and bin, is strictly greater than threshold. A transform
// with no such frame has onset 0.
func DetectOnset(t *spectral.Transform, threshold float64) int {
	for frame, energy := range t.FrameEnergy() {
		if energy > threshold {
			return frame
		}
	}
	return 0
}

// OnsetDetector picks the threshold for each transform by its kind
type OnsetDetector struct {
	thresholds map[spectral.Kind]float64
	logger     logging.Logger
}

// NewOnsetDetector creates a detector; kinds missing from thresholds fall
// back to DefaultOnsetThresholds
func NewOnsetDetector(thresholds map[spectral.Kind]float64) *OnsetDetector {
	merged := DefaultOnsetThresholds()
	maps.Copy(merged, thresholds)

	return &OnsetDetector{
		thresholds: merged,
		logger:     logging.WithFields(logging.Fields{"component": "onset_detector"}),
	}
}

// Threshold returns the threshold used for kind
func (od *OnsetDetector) Threshold(kind spectral.Kind) (float64, error) {
	th, ok := od.thresholds[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", spectral.ErrUnknownKind, kind)
	}
	return th, nil
}

// Detect returns the onset frame of t
func (od *OnsetDetector) Detect(t *spectral.Transform) (int, error) {
	th, err := od.Threshold(t.Kind)
	if err != nil {
		return 0, err
	}

	onset := DetectOnset(t, th)
	od.logger.Debug("detected onset", logging.Fields{
		"kind":      t.Kind,
		"threshold": th,
		"frame":     onset,
	})
	return onset, nil
}

// DetectAll returns the onset frame of every transform, in order
func (od *OnsetDetector) DetectAll(transforms []*spectral.Transform) ([]int, error) {
	onsets := make([]int, len(transforms))
	for i, t := range transforms {
		onset, err := od.Detect(t)
		if err != nil {
			return nil, err
		}
		onsets[i] = onset
	}
	return onsets, nil
}

// OnsetTime converts an onset frame to seconds
func OnsetTime(t *spectral.Transform, frame int) float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(frame*t.HopSize) / float64(t.SampleRate)
}
