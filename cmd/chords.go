package cmd

import (
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/synth"
	"github.com/spf13/cobra"
)

var (
	tonicNames   []string
	qualityNames []string
)

func init() {
	chordsCmd.Flags().StringSliceVarP(&tonicNames, "tonic", "t", nil, "tonics to build on (default all twelve)")
	chordsCmd.Flags().StringSliceVarP(&qualityNames, "quality", "q", nil, "chord qualities (default all)")
	rootCmd.AddCommand(chordsCmd)
}

var chordsCmd = &cobra.Command{
	Use:   "chords",
	Short: "Generates every chord with recorded notes",
	Long: `Enumerates every (octave, tonic, quality) chord, drops those with a note
missing at any dynamic and writes the rest. Chords already on disk are
skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg, false)
		if err != nil {
			return err
		}

		candidates, err := chordCandidates(cfg.Catalog.Octaves)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()
		return p.generate(ctx, candidates)
	},
}

func selectedTonics() ([]tonal.PitchClass, error) {
	if len(tonicNames) == 0 {
		return tonal.PitchClasses(), nil
	}
	tonics := make([]tonal.PitchClass, len(tonicNames))
	for i, name := range tonicNames {
		pc, err := tonal.Normalize(name)
		if err != nil {
			return nil, err
		}
		tonics[i] = pc
	}
	return tonics, nil
}

func selectedQualities() ([]tonal.Quality, error) {
	if len(qualityNames) == 0 {
		return tonal.Qualities(), nil
	}
	qualities := make([]tonal.Quality, len(qualityNames))
	for i, name := range qualityNames {
		q, err := tonal.ParseQuality(name)
		if err != nil {
			return nil, err
		}
		qualities[i] = q
	}
	return qualities, nil
}

func chordCandidates(octaves []int) ([]tonal.Chord, error) {
	tonics, err := selectedTonics()
	if err != nil {
		return nil, err
	}
	qualities, err := selectedQualities()
	if err != nil {
		return nil, err
	}
	return synth.EnumerateChords(octaves, tonics, qualities)
}
