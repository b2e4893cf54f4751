package synth

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/synth/config"
)

// TransformProvider turns waveforms into transforms and back
type TransformProvider interface {
	Kind() spectral.Kind
	CanInvert() bool
	Forward(channels [][]float64, sampleRate int) (*spectral.Transform, error)
	Inverse(t *spectral.Transform) ([][]float64, error)
}

// SpectralProvider implements TransformProvider for stft, cqt and chroma.
// Only stft can be inverted.
type SpectralProvider struct {
	cfg    config.TransformConfig
	stft   *spectral.STFT
	cqt    *chroma.CQT
	chroma *chroma.ChromaCQT
}

// NewSpectralProvider builds the transforms cfg.Kind needs
func NewSpectralProvider(cfg config.TransformConfig) (*SpectralProvider, error) {
	if _, err := spectral.ParseKind(string(cfg.Kind)); err != nil {
		return nil, err
	}

	p := &SpectralProvider{cfg: cfg, stft: spectral.NewSTFT()}
	if cfg.Kind == spectral.KindCQT || cfg.Kind == spectral.KindChroma {
		cqt, err := chroma.NewCQT(cfg.SampleRate, cfg.CQT)
		if err != nil {
			return nil, err
		}
		p.cqt = cqt
		p.chroma = chroma.NewChromaCQT(cqt)
	}
	return p, nil
}

// Kind returns the configured transform kind
func (p *SpectralProvider) Kind() spectral.Kind {
	return p.cfg.Kind
}

// CanInvert reports whether transforms of the configured kind can be turned
// back into audio
func (p *SpectralProvider) CanInvert() bool {
	return p.cfg.Kind == spectral.KindSTFT
}

// Forward transforms one waveform per channel
func (p *SpectralProvider) Forward(channels [][]float64, sampleRate int) (*spectral.Transform, error) {
	if sampleRate != p.cfg.SampleRate {
		return nil, fmt.Errorf("%w: got %d Hz, provider runs at %d Hz", spectral.ErrInvalidParameters, sampleRate, p.cfg.SampleRate)
	}

	switch p.cfg.Kind {
	case spectral.KindCQT:
		return p.cqt.Forward(channels, p.cfg.HopSize)
	case spectral.KindChroma:
		return p.chroma.Forward(channels, p.cfg.HopSize)
	default:
		return p.stft.Forward(channels, p.cfg.FrameSize, p.cfg.HopSize, sampleRate)
	}
}

// Inverse reconstructs waveforms from an stft transform
func (p *SpectralProvider) Inverse(t *spectral.Transform) ([][]float64, error) {
	return p.stft.Inverse(t)
}
