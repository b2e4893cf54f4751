package cmd

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/temporal"
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(onsetsCmd)
}

var onsetsCmd = &cobra.Command{
	Use:   "onsets <note>...",
	Short: "Prints the onset frame of single-note recordings",
	Long: `Loads each note at every configured dynamic, transforms it with the
configured kind and prints the first frame whose energy crosses the onset
threshold, e.g.

  onsets A4 C#5 --kind cqt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg, false)
		if err != nil {
			return err
		}

		notes := make([]tonal.Note, len(args))
		for i, arg := range args {
			if notes[i], err = tonal.ParseNote(arg); err != nil {
				return err
			}
		}

		threshold, err := p.detector.Threshold(p.provider.Kind())
		if err != nil {
			return err
		}
		fmt.Printf("kind %s, threshold %g\n", p.provider.Kind(), threshold)

		ctx, cancel := signalContext(cmd)
		defer cancel()

		for _, note := range notes {
			for _, dynamic := range cfg.Catalog.Dynamics {
				audio, err := p.sources.Load(ctx, dynamic, note)
				if err != nil {
					fmt.Printf("%-4s %-3s %v\n", note, dynamic, err)
					continue
				}

				t, err := p.provider.Forward(audio.Deinterleave(), audio.SampleRate)
				if err != nil {
					return err
				}
				frame, err := p.detector.Detect(t)
				if err != nil {
					return err
				}
				fmt.Printf("%-4s %-3s frame %4d  %7.3fs  of %d frames\n",
					note, dynamic, frame, temporal.OnsetTime(t, frame), t.Frames())
			}
		}
		return nil
	},
}
