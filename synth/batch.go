package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Unit is one destination: a chord at a dynamic
type Unit struct {
	Chord   tonal.Chord
	Dynamic string
}

// Failure records a unit that could not be generated
type Failure struct {
	Label   string `json:"label"`
	Dynamic string `json:"dynamic"`
	Err     error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s at %s: %v", f.Label, f.Dynamic, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarises a batch run
type Report struct {
	Total     int       `json:"total"`
	Generated int       `json:"generated"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Completed returns the number of units that finished in any state
func (r Report) Completed() int {
	return r.Generated + r.Skipped + r.Failed
}

// BatchOptions configures a Batch
type BatchOptions struct {
	Workers  int       // 0 uses runtime.NumCPU()
	Dynamics []string  // every chord is produced at each
	Progress io.Writer // progress bar output; nil disables the bar
	Label    string    // progress bar name
}

// Batch generates every missing (chord, dynamic) destination with a bounded
// worker pool. Destinations that already exist are skipped, so an
// interrupted run resumes where it stopped.
type Batch struct {
	synth   *Synthesizer
	dest    DestinationCatalog
	options BatchOptions
	logger  logging.Logger
}

// NewBatch creates a batch driver
func NewBatch(synth *Synthesizer, dest DestinationCatalog, options BatchOptions) *Batch {
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if options.Label == "" {
		options.Label = "Generating: "
	}
	return &Batch{
		synth:   synth,
		dest:    dest,
		options: options,
		logger:  logging.WithFields(logging.Fields{"component": "batch"}),
	}
}

// Units expands chords into (chord, dynamic) units in generation order
func (b *Batch) Units(chords []tonal.Chord) []Unit {
	units := make([]Unit, 0, len(chords)*len(b.options.Dynamics))
	for _, chord := range chords {
		for _, dynamic := range b.options.Dynamics {
			units = append(units, Unit{Chord: chord, Dynamic: dynamic})
		}
	}
	return units
}

type unitOutcome int

const (
	outcomeGenerated unitOutcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeCancelled
)

type unitResult struct {
	unit    Unit
	outcome unitOutcome
	err     error
	elapsed time.Duration
}

// Run generates every unit of chords. A provider that cannot invert fails the
// run before any unit is started. Per-unit synthesis failures are logged
// and recorded in the report while the run continues. The returned error is
// the context error when the run was cancelled, or the joined destination
// write failures.
func (b *Batch) Run(ctx context.Context, chords []tonal.Chord) (Report, error) {
	units := b.Units(chords)
	report := Report{Total: len(units)}
	if len(units) == 0 {
		return report, nil
	}
	if err := b.synth.CheckInvertible(); err != nil {
		return report, err
	}

	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	if b.options.Progress != nil {
		p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(b.options.Progress))
		bar = p.AddBar(int64(len(units)),
			mpb.PrependDecorators(
				decor.Name(b.options.Label),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}

	jobs := make(chan Unit, len(units))
	results := make(chan unitResult, len(units))

	workers := min(b.options.Workers, len(units))
	var wg sync.WaitGroup
	for worker := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wctx := logging.ContextWithFields(ctx, logging.Fields{"worker": worker})
			for unit := range jobs {
				results <- b.process(wctx, unit)
			}
		}()
	}

	for _, unit := range units {
		jobs <- unit
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var writeErrs []error
	for r := range results {
		switch r.outcome {
		case outcomeGenerated:
			report.Generated++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
			report.Failures = append(report.Failures, Failure{Label: r.unit.Chord.Label, Dynamic: r.unit.Dynamic, Err: r.err})
			if errors.Is(r.err, ErrDestinationWrite) {
				writeErrs = append(writeErrs, r.err)
			}
		case outcomeCancelled:
			continue
		}

		if bar != nil {
			bar.EwmaIncrement(r.elapsed)
		}
		b.logger.Debug("unit finished", logging.Fields{
			"label":    r.unit.Chord.Label,
			"dynamic":  r.unit.Dynamic,
			"progress": fmt.Sprintf("%d/%d", report.Completed(), report.Total),
		})
	}

	if bar != nil {
		if report.Completed() < report.Total {
			bar.Abort(false)
		}
		p.Wait()
	}

	b.logger.Info("batch finished", logging.Fields{
		"total":     report.Total,
		"generated": report.Generated,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	})

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, errors.Join(writeErrs...)
}

// process produces one unit; it is the only writer of that destination
func (b *Batch) process(ctx context.Context, unit Unit) unitResult {
	start := time.Now()
	result := unitResult{unit: unit}

	if ctx.Err() != nil {
		result.outcome = outcomeCancelled
		return result
	}

	if b.dest.Exists(unit.Dynamic, unit.Chord.Label) {
		result.outcome = outcomeSkipped
		result.elapsed = time.Since(start)
		return result
	}

	logger := b.logger.WithContext(ctx).WithFields(logging.Fields{
		"label":   unit.Chord.Label,
		"dynamic": unit.Dynamic,
	})

	audio, err := b.synth.Synthesize(ctx, unit.Chord, unit.Dynamic)
	if err == nil {
		err = b.dest.Write(ctx, unit.Dynamic, unit.Chord.Label, audio)
	}

	result.elapsed = time.Since(start)
	if err != nil {
		logger.Error(err, "failed to generate chord")
		result.outcome = outcomeFailed
		result.err = err
		return result
	}

	logger.Debug("generated chord", logging.Fields{"elapsed": result.elapsed.Seconds()})
	result.outcome = outcomeGenerated
	return result
}

// StderrProgress returns os.Stderr when enabled, for BatchOptions.Progress
func StderrProgress(enabled bool) io.Writer {
	if !enabled {
		return nil
	}
	return os.Stderr
}
