package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/temporal"
	"github.com/RyanBlaney/sonido-chords/transcode"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// TransformConfig selects and parameterises the time-frequency transform
type TransformConfig struct {
	Kind       spectral.Kind `json:"kind"`
	SampleRate int           `json:"sample_rate"`
	FrameSize  int           `json:"frame_size"` // STFT window length
	HopSize    int           `json:"hop_size"`

	CQT chroma.CQTConfig `json:"cqt"` // used for cqt and chroma
}

// OnsetConfig holds per-kind onset thresholds
type OnsetConfig struct {
	Thresholds map[spectral.Kind]float64 `json:"thresholds"`
}

// CatalogConfig describes where recordings live and how they are named:
// <Dir>/<Prefix>.<dynamic>.<name>.<ext>
type CatalogConfig struct {
	InputDir           string   `json:"input_dir"`
	OutputDir          string   `json:"output_dir"` // chords
	IntervalsOutputDir string   `json:"intervals_output_dir"`
	Prefix             string   `json:"prefix"`
	SourceExt          string   `json:"source_ext"`
	OutputExt          string   `json:"output_ext"`
	Dynamics           []string `json:"dynamics"`
	Octaves            []int    `json:"octaves"`
}

// DestinationDir returns where chords, or intervals when intervals is set,
// are written
func (c CatalogConfig) DestinationDir(intervals bool) string {
	if intervals {
		return c.IntervalsOutputDir
	}
	return c.OutputDir
}

// BatchConfig controls the generation worker pool
type BatchConfig struct {
	Workers  int  `json:"workers"` // 0 uses runtime.NumCPU()
	Progress bool `json:"progress"`
}

// Config is the full configuration of a generation run
type Config struct {
	Transform TransformConfig          `json:"transform"`
	Onset     OnsetConfig              `json:"onset"`
	Catalog   CatalogConfig            `json:"catalog"`
	Batch     BatchConfig              `json:"batch"`
	Decoder   *transcode.DecoderConfig `json:"decoder"`
	Encoder   *transcode.EncoderConfig `json:"encoder"`
	LogLevel  string                   `json:"log_level"`
}

// DefaultTransformConfig returns a 2048-point STFT at 44.1 kHz
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		Kind:       spectral.KindSTFT,
		SampleRate: 44100,
		FrameSize:  2048,
		HopSize:    512,
		CQT:        chroma.DefaultCQTConfig(),
	}
}

// DefaultOnsetConfig returns the standard per-kind thresholds
func DefaultOnsetConfig() OnsetConfig {
	return OnsetConfig{Thresholds: temporal.DefaultOnsetThresholds()}
}

// DefaultCatalogConfig returns the piano sample layout
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		InputDir:           "Single Piano Notes (Trimmed)",
		OutputDir:          "Simple Piano Chords (Trimmed)",
		IntervalsOutputDir: "Simple Piano Intervals (Trimmed)",
		Prefix:             "Piano",
		SourceExt:          "aiff",
		OutputExt:          "aiff",
		Dynamics:           []string{"mf", "ff"},
		Octaves:            []int{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
}

// DefaultBatchConfig returns a CPU-sized pool with a progress bar
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Workers: 0, Progress: true}
}

// Default returns the full default configuration
func Default() *Config {
	decoder := transcode.DefaultDecoderConfig()
	transform := DefaultTransformConfig()
	decoder.TargetSampleRate = transform.SampleRate

	return &Config{
		Transform: transform,
		Onset:     DefaultOnsetConfig(),
		Catalog:   DefaultCatalogConfig(),
		Batch:     DefaultBatchConfig(),
		Decoder:   decoder,
		Encoder:   transcode.DefaultEncoderConfig(),
		LogLevel:  "info",
	}
}

// Load reads a JSON config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks ranges and cross-field consistency
func (c *Config) Validate() error {
	t := c.Transform
	if _, err := spectral.ParseKind(string(t.Kind)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if t.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, t.SampleRate)
	}
	if t.FrameSize <= 0 || t.HopSize <= 0 || t.HopSize > t.FrameSize {
		return fmt.Errorf("%w: frame size %d, hop size %d", ErrInvalidConfig, t.FrameSize, t.HopSize)
	}
	if t.Kind != spectral.KindSTFT {
		if err := t.CQT.Validate(t.SampleRate); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	for kind := range c.Onset.Thresholds {
		if _, err := spectral.ParseKind(string(kind)); err != nil {
			return fmt.Errorf("%w: onset threshold: %w", ErrInvalidConfig, err)
		}
	}

	cat := c.Catalog
	if cat.InputDir == "" || cat.OutputDir == "" || cat.IntervalsOutputDir == "" {
		return fmt.Errorf("%w: input and output directories are required", ErrInvalidConfig)
	}
	if cat.Prefix == "" || cat.SourceExt == "" || cat.OutputExt == "" {
		return fmt.Errorf("%w: prefix and extensions are required", ErrInvalidConfig)
	}
	if len(cat.Dynamics) == 0 {
		return fmt.Errorf("%w: at least one dynamic is required", ErrInvalidConfig)
	}
	for _, o := range cat.Octaves {
		if o < 0 {
			return fmt.Errorf("%w: octave %d", ErrInvalidConfig, o)
		}
	}
	if _, err := transcode.FormatFromPath("x." + cat.OutputExt); err != nil {
		return fmt.Errorf("%w: output: %w", ErrInvalidConfig, err)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Batch.Workers)
	}

	if c.Decoder != nil {
		if err := transcode.NewDecoder(c.Decoder).ValidateConfig(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if c.Decoder.TargetSampleRate != 0 && c.Decoder.TargetSampleRate != t.SampleRate {
			return fmt.Errorf("%w: decoder rate %d differs from transform rate %d", ErrInvalidConfig, c.Decoder.TargetSampleRate, t.SampleRate)
		}
	}

	return nil
}
