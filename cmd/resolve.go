package cmd

import (
	"fmt"
	"strconv"

	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <tonic> <octave> <quality|interval|degA degB [name]>",
	Short: "Prints the notes of a chord or interval",
	Long: `Resolves a chord quality, a named interval or a pair of scale degrees on
a tonic and prints the label and notes, e.g.

  resolve A 4 maj
  resolve C# 3 perfect_fifth
  resolve Eb 2 0 12 octave`,
	Args: cobra.RangeArgs(3, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		chord, err := resolve(args)
		if err != nil {
			return err
		}
		printChords([]tonal.Chord{chord})
		return nil
	},
}

func resolve(args []string) (tonal.Chord, error) {
	tonic := args[0]
	octave, err := strconv.Atoi(args[1])
	if err != nil {
		return tonal.Chord{}, fmt.Errorf("%w: %q", tonal.ErrInvalidOctave, args[1])
	}

	if len(args) == 3 {
		q, qualityErr := tonal.ParseQuality(args[2])
		if qualityErr == nil {
			return tonal.ResolveChord(tonic, octave, q)
		}
		if _, intervalErr := tonal.LookupInterval(args[2]); intervalErr != nil {
			return tonal.Chord{}, fmt.Errorf("%w; %w", qualityErr, intervalErr)
		}
		return tonal.ResolveNamedInterval(tonic, octave, args[2])
	}

	a, err := strconv.Atoi(args[2])
	if err != nil {
		return tonal.Chord{}, fmt.Errorf("%w: %q", tonal.ErrDegreeOutOfRange, args[2])
	}
	b, err := strconv.Atoi(args[3])
	if err != nil {
		return tonal.Chord{}, fmt.Errorf("%w: %q", tonal.ErrDegreeOutOfRange, args[3])
	}
	name := ""
	if len(args) == 5 {
		name = args[4]
	}
	return tonal.ResolveInterval(tonic, octave, a, b, name)
}
