package transcode

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	ErrNoSamples          = errors.New("no audio samples decoded")
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Interleaved samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
	Codec      string        `json:"codec,omitempty"`
}

// NewAudioData interleaves per-channel samples. All channels must have the
// same length.
func NewAudioData(channels [][]float64, sampleRate int) (*AudioData, error) {
	if len(channels) == 0 {
		return nil, ErrNoSamples
	}
	frames := len(channels[0])
	for ch, samples := range channels {
		if len(samples) != frames {
			return nil, fmt.Errorf("channel %d has %d samples, want %d", ch, len(samples), frames)
		}
	}

	pcm := make([]float64, frames*len(channels))
	for i := range frames {
		for ch, samples := range channels {
			pcm[i*len(channels)+ch] = samples[i]
		}
	}

	a := &AudioData{PCM: pcm, SampleRate: sampleRate, Channels: len(channels)}
	a.Duration = a.computeDuration()
	return a, nil
}

// Frames returns the number of samples per channel
func (a *AudioData) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.PCM) / a.Channels
}

// Deinterleave splits PCM into one slice per channel
func (a *AudioData) Deinterleave() [][]float64 {
	frames := a.Frames()
	out := make([][]float64, a.Channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
		for i := range frames {
			out[ch][i] = a.PCM[i*a.Channels+ch]
		}
	}
	return out
}

// ToChannels returns a copy with n channels. Mono is duplicated when
// widening; anything else is averaged down to mono first.
func (a *AudioData) ToChannels(n int) (*AudioData, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", n)
	}
	if n == a.Channels {
		out := *a
		out.PCM = append([]float64(nil), a.PCM...)
		return &out, nil
	}

	frames := a.Frames()
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for ch := range a.Channels {
			sum += a.PCM[i*a.Channels+ch]
		}
		mono[i] = sum / float64(a.Channels)
	}

	channels := make([][]float64, n)
	for ch := range channels {
		channels[ch] = mono
	}

	out, err := NewAudioData(channels, a.SampleRate)
	if err != nil {
		return nil, err
	}
	out.Source = a.Source
	out.Codec = a.Codec
	return out, nil
}

func (a *AudioData) computeDuration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(a.SampleRate)
}
