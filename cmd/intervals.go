package cmd

import (
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/synth"
	"github.com/spf13/cobra"
)

var intervalNames []string

func init() {
	intervalsCmd.Flags().StringSliceVarP(&tonicNames, "tonic", "t", nil, "tonics to build on (default all twelve)")
	intervalsCmd.Flags().StringSliceVar(&intervalNames, "interval", nil, "interval names (default all twelve)")
	rootCmd.AddCommand(intervalsCmd)
}

var intervalsCmd = &cobra.Command{
	Use:   "intervals",
	Short: "Generates every interval with recorded notes",
	Long: `Enumerates every (octave, tonic, interval) pair from the minor second to
the octave and writes those whose notes are recorded at every dynamic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg, true)
		if err != nil {
			return err
		}

		candidates, err := intervalCandidates(cfg.Catalog.Octaves)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()
		return p.generate(ctx, candidates)
	},
}

func selectedIntervals() ([]tonal.Interval, error) {
	if len(intervalNames) == 0 {
		return tonal.Intervals(), nil
	}
	intervals := make([]tonal.Interval, len(intervalNames))
	for i, name := range intervalNames {
		iv, err := tonal.LookupInterval(name)
		if err != nil {
			return nil, err
		}
		intervals[i] = iv
	}
	return intervals, nil
}

func intervalCandidates(octaves []int) ([]tonal.Chord, error) {
	tonics, err := selectedTonics()
	if err != nil {
		return nil, err
	}
	intervals, err := selectedIntervals()
	if err != nil {
		return nil, err
	}
	return synth.EnumerateIntervals(octaves, tonics, intervals)
}
