package cmd

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/spf13/cobra"
)

var listIntervals bool

func init() {
	listCmd.Flags().StringSliceVarP(&tonicNames, "tonic", "t", nil, "tonics to build on (default all twelve)")
	listCmd.Flags().StringSliceVarP(&qualityNames, "quality", "q", nil, "chord qualities (default all)")
	listCmd.Flags().StringSliceVar(&intervalNames, "interval", nil, "interval names (default all twelve)")
	listCmd.Flags().BoolVar(&listIntervals, "intervals", false, "list intervals instead of chords")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the candidates that would be generated",
	Long: `Prints every chord (or interval with --intervals) whose notes are
recorded at every dynamic, with a flag for those already written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg, listIntervals)
		if err != nil {
			return err
		}

		var candidates []tonal.Chord
		if listIntervals {
			candidates, err = intervalCandidates(cfg.Catalog.Octaves)
		} else {
			candidates, err = chordCandidates(cfg.Catalog.Octaves)
		}
		if err != nil {
			return err
		}

		available := p.available(candidates)
		done := 0
		for _, c := range available {
			state := "pending"
			if p.written(c) {
				state = "written"
				done++
			}
			fmt.Printf("%-24s %-8s %v\n", c.Label, state, c.NoteNames())
		}
		fmt.Printf("%d of %d candidates available, %d written\n", len(available), len(candidates), done)
		return nil
	},
}
