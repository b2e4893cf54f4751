package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RyanBlaney/sonido-chords/algorithms/mixing"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/temporal"
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/synth"
	"github.com/RyanBlaney/sonido-chords/synth/config"
	"github.com/RyanBlaney/sonido-chords/transcode"
	"github.com/spf13/cobra"
)

var (
	configPath string
	inputDir   string
	outputDir  string
	dynamics   []string
	kind       string
	workers    int
	logLevel   string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "sonido-chords",
	Short: "Piano chord and interval synthesis",
	Long: `Builds piano chord and interval recordings from single-note samples by
aligning each note's onset and summing their spectra.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "JSON config file")
	flags.StringVarP(&inputDir, "input", "i", "", "single-note recordings directory")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory for the chords or intervals being generated")
	flags.StringSliceVarP(&dynamics, "dynamics", "d", nil, "dynamics to generate (e.g. mf,ff)")
	flags.StringVarP(&kind, "kind", "k", "", "transform kind: stft, cqt or chroma")
	flags.IntVarP(&workers, "workers", "w", 0, "batch workers (0 uses every CPU)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Execute runs the root command
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig reads --config and applies the flags the user set over it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Catalog.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.Catalog.OutputDir = outputDir
		cfg.Catalog.IntervalsOutputDir = outputDir
	}
	if flags.Changed("dynamics") {
		cfg.Catalog.Dynamics = dynamics
	}
	if flags.Changed("kind") {
		k, err := spectral.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		cfg.Transform.Kind = k
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if noProgress {
		cfg.Batch.Progress = false
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pipeline is everything a subcommand needs to synthesize from cfg
type pipeline struct {
	cfg      *config.Config
	sources  *synth.NoteDir
	dest     *synth.ChordDir
	provider *synth.SpectralProvider
	detector *temporal.OnsetDetector
	synth    *synth.Synthesizer
}

// newPipeline wires cfg for chords, or for intervals when intervals is set
func newPipeline(cfg *config.Config, intervals bool) (*pipeline, error) {
	provider, err := synth.NewSpectralProvider(cfg.Transform)
	if err != nil {
		return nil, err
	}

	cat := cfg.Catalog
	sources := synth.NewNoteDir(cat.InputDir, cat.Prefix, cat.SourceExt, newDecoder(cfg.Decoder))
	dest := synth.NewChordDir(cat.DestinationDir(intervals), cat.Prefix, cat.OutputExt, transcode.NewEncoder(cfg.Encoder))
	detector := temporal.NewOnsetDetector(cfg.Onset.Thresholds)

	return &pipeline{
		cfg:      cfg,
		sources:  sources,
		dest:     dest,
		provider: provider,
		detector: detector,
		synth:    synth.NewSynthesizer(sources, provider, mixing.NewMixer(detector)),
	}, nil
}

// newDecoder checks for ffmpeg once and turns the fallback off when it is
// missing, so each note fails fast instead of each spawning a process
func newDecoder(cfg *transcode.DecoderConfig) *transcode.Decoder {
	if cfg == nil {
		cfg = transcode.DefaultDecoderConfig()
	}
	decoder := transcode.NewDecoder(cfg)
	if !cfg.EnableFFmpeg {
		return decoder
	}

	if err := decoder.CheckFFmpegAvailability(); err != nil {
		logging.Warn("ffmpeg unavailable, decoding natively only", logging.Fields{"error": err.Error()})
		native := *cfg
		native.EnableFFmpeg = false
		return transcode.NewDecoder(&native)
	}
	return decoder
}

// available drops candidates with a note missing at any dynamic and logs
// what was excluded
func (p *pipeline) available(candidates []tonal.Chord) []tonal.Chord {
	dynamics := p.cfg.Catalog.Dynamics
	out := synth.FilterAvailable(candidates, p.sources, dynamics)
	if excluded := len(candidates) - len(out); excluded > 0 {
		logging.Info("excluded candidates with missing recordings", logging.Fields{
			"candidates": len(candidates),
			"excluded":   excluded,
		})
	}
	return out
}

// generate runs a batch over candidates and prints the report
func (p *pipeline) generate(ctx context.Context, candidates []tonal.Chord) error {
	if err := p.synth.CheckInvertible(); err != nil {
		return err
	}
	chords := p.available(candidates)

	batch := synth.NewBatch(p.synth, p.dest, synth.BatchOptions{
		Workers:  p.cfg.Batch.Workers,
		Dynamics: p.cfg.Catalog.Dynamics,
		Progress: synth.StderrProgress(p.cfg.Batch.Progress),
	})

	report, err := batch.Run(ctx, chords)
	fmt.Printf("generated %d, skipped %d, failed %d of %d\n", report.Generated, report.Skipped, report.Failed, report.Total)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "  %v\n", f)
	}
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func printChords(chords []tonal.Chord) {
	for _, c := range chords {
		fmt.Printf("%-24s %s\n", c.Label, strings.Join(c.NoteNames(), " "))
	}
}

// written reports whether c exists at every configured dynamic
func (p *pipeline) written(c tonal.Chord) bool {
	for _, dynamic := range p.cfg.Catalog.Dynamics {
		if !p.dest.Exists(dynamic, c.Label) {
			return false
		}
	}
	return true
}
