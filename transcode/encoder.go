package transcode

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"
)

// EncoderConfig holds encoder configuration
type EncoderConfig struct {
	BitDepth int `json:"bit_depth"`
}

// DefaultEncoderConfig returns 16-bit PCM output
func DefaultEncoderConfig() *EncoderConfig {
	return &EncoderConfig{BitDepth: 16}
}

// Encoder writes PCM audio as WAV or AIFF. Samples outside [-1, 1] are
// clamped and counted.
type Encoder struct {
	config *EncoderConfig
	logger logging.Logger
}

// NewEncoder creates a new audio encoder
func NewEncoder(config *EncoderConfig) *Encoder {
	if config == nil {
		config = DefaultEncoderConfig()
	}
	return &Encoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_encoder"}),
	}
}

// FormatFromPath returns the container named by the file extension
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "wav", "wave":
		return "wav", nil
	case "aif", "aiff":
		return "aiff", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// EncodeFile creates path and writes data into it in the container its
// extension names
func (e *Encoder) EncodeFile(path string, data *AudioData) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := e.Encode(file, format, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Encode writes data to w as "wav" or "aiff"
func (e *Encoder) Encode(w io.WriteSeeker, format string, data *AudioData) error {
	if data.Channels <= 0 || len(data.PCM) == 0 {
		return ErrNoSamples
	}
	if e.config.BitDepth <= 0 || e.config.BitDepth > 32 || e.config.BitDepth%8 != 0 {
		return fmt.Errorf("unsupported bit depth: %d", e.config.BitDepth)
	}

	buf, clipped := e.toIntBuffer(data)
	if clipped > 0 {
		e.logger.Warn("Clamped samples outside full scale", logging.Fields{
			"source":  data.Source,
			"clipped": clipped,
			"peak":    peak(data.PCM),
		})
	}

	switch format {
	case "wav":
		enc := wav.NewEncoder(w, data.SampleRate, e.config.BitDepth, data.Channels, 1)
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("wav encode failed: %w", err)
		}
		return enc.Close()
	case "aiff":
		enc := aiff.NewEncoder(w, data.SampleRate, e.config.BitDepth, data.Channels)
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("aiff encode failed: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// toIntBuffer quantizes PCM to the configured bit depth
func (e *Encoder) toIntBuffer(data *AudioData) (*audio.IntBuffer, int) {
	scale := float64(int64(1)<<(e.config.BitDepth-1)) - 1
	out := make([]int, len(data.PCM))
	clipped := 0
	for i, s := range data.PCM {
		if s > 1 || s < -1 {
			clipped++
			s = math.Max(-1, math.Min(1, s))
		}
		out[i] = int(math.Round(s * scale))
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: data.Channels,
			SampleRate:  data.SampleRate,
		},
		Data:           out,
		SourceBitDepth: e.config.BitDepth,
	}, clipped
}

func peak(pcm []float64) float64 {
	if len(pcm) == 0 {
		return 0
	}
	return math.Max(floats.Max(pcm), -floats.Min(pcm))
}
