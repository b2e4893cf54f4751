package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, spectral.KindSTFT, cfg.Transform.Kind)
	assert.Equal(t, 44100, cfg.Transform.SampleRate)
	assert.Equal(t, []string{"mf", "ff"}, cfg.Catalog.Dynamics)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, cfg.Catalog.Octaves)
	assert.Equal(t, 10.0, cfg.Onset.Thresholds[spectral.KindSTFT])
	assert.Equal(t, 0.1, cfg.Onset.Thresholds[spectral.KindCQT])
	assert.Equal(t, 0.0, cfg.Onset.Thresholds[spectral.KindChroma])
	assert.Equal(t, "Simple Piano Chords (Trimmed)", cfg.Catalog.DestinationDir(false))
	assert.Equal(t, "Simple Piano Intervals (Trimmed)", cfg.Catalog.DestinationDir(true))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"transform": {"kind": "cqt", "hop_size": 1024},
		"catalog": {"dynamics": ["pp"], "output_ext": "wav"},
		"onset": {"thresholds": {"cqt": 0.5}},
		"batch": {"workers": 3}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, spectral.KindCQT, cfg.Transform.Kind)
	assert.Equal(t, 1024, cfg.Transform.HopSize)
	assert.Equal(t, 2048, cfg.Transform.FrameSize, "untouched default")
	assert.Equal(t, []string{"pp"}, cfg.Catalog.Dynamics)
	assert.Equal(t, "Piano", cfg.Catalog.Prefix)
	assert.Equal(t, 0.5, cfg.Onset.Thresholds[spectral.KindCQT])
	assert.Equal(t, 10.0, cfg.Onset.Thresholds[spectral.KindSTFT])
	assert.Equal(t, 3, cfg.Batch.Workers)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"kind":         func(c *Config) { c.Transform.Kind = "mel" },
		"hop":          func(c *Config) { c.Transform.HopSize = 4096 },
		"frame":        func(c *Config) { c.Transform.FrameSize = 0 },
		"dynamics":     func(c *Config) { c.Catalog.Dynamics = nil },
		"octave":       func(c *Config) { c.Catalog.Octaves = []int{-1} },
		"output ext":   func(c *Config) { c.Catalog.OutputExt = "mp3" },
		"workers":      func(c *Config) { c.Batch.Workers = -2 },
		"threshold":    func(c *Config) { c.Onset.Thresholds["mel"] = 1 },
		"decoder rate": func(c *Config) { c.Decoder.TargetSampleRate = 48000 },
		"cqt nyquist": func(c *Config) {
			c.Transform.Kind = spectral.KindChroma
			c.Transform.SampleRate = 7000
			c.Decoder.TargetSampleRate = 7000
		},
		"missing input":            func(c *Config) { c.Catalog.InputDir = "" },
		"missing intervals output": func(c *Config) { c.Catalog.IntervalsOutputDir = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
