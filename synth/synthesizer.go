package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-chords/algorithms/mixing"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/transcode"
)

// Synthesizer builds chord audio from single-note recordings: load, forward
// transform, onset-aligned mix, inverse transform
type Synthesizer struct {
	sources  SourceCatalog
	provider TransformProvider
	mixer    *mixing.Mixer
	logger   logging.Logger
}

// NewSynthesizer creates a synthesizer; a nil mixer uses default onset
// thresholds
func NewSynthesizer(sources SourceCatalog, provider TransformProvider, mixer *mixing.Mixer) *Synthesizer {
	if mixer == nil {
		mixer = mixing.NewMixer(nil)
	}
	return &Synthesizer{
		sources:  sources,
		provider: provider,
		mixer:    mixer,
		logger:   logging.WithFields(logging.Fields{"component": "synthesizer"}),
	}
}

// CheckInvertible returns ErrInverseUnsupported when the provider cannot
// produce audio
func (s *Synthesizer) CheckInvertible() error {
	if !s.provider.CanInvert() {
		return fmt.Errorf("%w: cannot synthesize audio from %s", spectral.ErrInverseUnsupported, s.provider.Kind())
	}
	return nil
}

// LoadNotes reads the recording of every note of chord at dynamic
// concurrently. Mono recordings are widened when others are stereo.
func (s *Synthesizer) LoadNotes(ctx context.Context, chord tonal.Chord, dynamic string) ([]*transcode.AudioData, error) {
	audio := make([]*transcode.AudioData, len(chord.Notes))
	errs := make([]error, len(chord.Notes))

	var wg sync.WaitGroup
	for i, note := range chord.Notes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			audio[i], errs[i] = s.sources.Load(ctx, dynamic, note)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	channels := 0
	for _, a := range audio {
		channels = max(channels, a.Channels)
	}
	for i, a := range audio {
		if a.Channels != channels {
			widened, err := a.ToChannels(channels)
			if err != nil {
				return nil, err
			}
			audio[i] = widened
		}
	}
	return audio, nil
}

// Transforms loads and transforms every note of chord at dynamic
func (s *Synthesizer) Transforms(ctx context.Context, chord tonal.Chord, dynamic string) ([]*spectral.Transform, error) {
	audio, err := s.LoadNotes(ctx, chord, dynamic)
	if err != nil {
		return nil, err
	}

	transforms := make([]*spectral.Transform, len(audio))
	for i, a := range audio {
		t, err := s.provider.Forward(a.Deinterleave(), a.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", chord.Notes[i], err)
		}
		transforms[i] = t
	}
	return transforms, nil
}

// MixChord returns the mixed transform of chord at dynamic
func (s *Synthesizer) MixChord(ctx context.Context, chord tonal.Chord, dynamic string) (*spectral.Transform, error) {
	transforms, err := s.Transforms(ctx, chord, dynamic)
	if err != nil {
		return nil, err
	}
	return s.mixer.Mix(transforms)
}

// Synthesize returns the audio of chord at dynamic
func (s *Synthesizer) Synthesize(ctx context.Context, chord tonal.Chord, dynamic string) (*transcode.AudioData, error) {
	mixed, err := s.MixChord(ctx, chord, dynamic)
	if err != nil {
		return nil, err
	}

	channels, err := s.provider.Inverse(mixed)
	if err != nil {
		return nil, err
	}

	out, err := transcode.NewAudioData(channels, mixed.SampleRate)
	if err != nil {
		return nil, err
	}
	out.Source = chord.Label

	s.logger.WithContext(ctx).Debug("synthesized chord", logging.Fields{
		"label":    chord.Label,
		"dynamic":  dynamic,
		"notes":    len(chord.Notes),
		"frames":   mixed.Frames(),
		"duration": out.Duration.Seconds(),
	})
	return out, nil
}
