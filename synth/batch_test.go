package synth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/synth/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchFixture(t *testing.T) ([]tonal.Chord, *memorySources, *countingProvider) {
	t.Helper()
	chords, err := EnumerateChords([]int{4}, []tonal.PitchClass{tonal.C, tonal.F}, []tonal.Quality{tonal.Major, tonal.Minor})
	require.NoError(t, err)

	sources := newMemorySources()
	for _, c := range chords {
		for _, dynamic := range []string{"mf", "ff"} {
			stockChord(sources, c, dynamic, 2)
		}
	}
	return chords, sources, &countingProvider{TransformProvider: testProvider(t)}
}

func TestBatchUnits(t *testing.T) {
	chords, _, _ := batchFixture(t)
	b := NewBatch(nil, newMemoryDestination(), BatchOptions{Dynamics: []string{"mf", "ff"}})

	units := b.Units(chords)
	require.Len(t, units, 8)
	assert.Equal(t, "C4.maj", units[0].Chord.Label)
	assert.Equal(t, "mf", units[0].Dynamic)
	assert.Equal(t, "C4.maj", units[1].Chord.Label)
	assert.Equal(t, "ff", units[1].Dynamic)
}

func TestBatchRunIsIdempotent(t *testing.T) {
	chords, sources, provider := batchFixture(t)
	dest := newMemoryDestination()
	var progress bytes.Buffer

	b := NewBatch(NewSynthesizer(sources, provider, nil), dest, BatchOptions{
		Workers:  3,
		Dynamics: []string{"mf", "ff"},
		Progress: &progress,
	})

	report, err := b.Run(context.Background(), chords)
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 8, Generated: 8}, report)
	assert.Equal(t, 8, dest.count())
	assert.Equal(t, int64(8*3), provider.forwards.Load())

	report, err = b.Run(context.Background(), chords)
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 8, Skipped: 8}, report)
	assert.Equal(t, int64(8*3), provider.forwards.Load())
}

func TestBatchRunRecordsFailures(t *testing.T) {
	chords, sources, provider := batchFixture(t)
	// F4.min is the only chord using Ab4
	delete(sources.recordings, "ff.Ab4")

	dest := newMemoryDestination()
	b := NewBatch(NewSynthesizer(sources, provider, nil), dest, BatchOptions{
		Workers:  2,
		Dynamics: []string{"mf", "ff"},
	})

	report, err := b.Run(context.Background(), chords)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 7, report.Generated)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "F4.min", report.Failures[0].Label)
	assert.Equal(t, "ff", report.Failures[0].Dynamic)
	assert.ErrorIs(t, report.Failures[0], ErrSourceRecordingMissing)
	assert.False(t, dest.Exists("ff", "F4.min"))
}

func TestBatchRunReturnsWriteFailures(t *testing.T) {
	chords, sources, provider := batchFixture(t)
	dest := newMemoryDestination()
	dest.failOn = "C4.min"

	b := NewBatch(NewSynthesizer(sources, provider, nil), dest, BatchOptions{Dynamics: []string{"mf"}})

	report, err := b.Run(context.Background(), chords)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationWrite))
	assert.Equal(t, 3, report.Generated)
	assert.Equal(t, 1, report.Failed)
}

func TestBatchRunCancelled(t *testing.T) {
	chords, sources, provider := batchFixture(t)
	dest := newMemoryDestination()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch(NewSynthesizer(sources, provider, nil), dest, BatchOptions{Dynamics: []string{"mf", "ff"}})
	report, err := b.Run(ctx, chords)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 8, report.Total)
	assert.Zero(t, report.Generated)
	assert.Zero(t, dest.count())
	assert.Zero(t, provider.forwards.Load())
}

func TestBatchRunEmpty(t *testing.T) {
	b := NewBatch(nil, newMemoryDestination(), BatchOptions{Dynamics: []string{"mf"}})
	report, err := b.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestBatchRunRejectsNonInvertibleKind(t *testing.T) {
	chords, sources, _ := batchFixture(t)
	cqt, err := NewSpectralProvider(config.TransformConfig{
		Kind:       spectral.KindCQT,
		SampleRate: testSampleRate,
		FrameSize:  256,
		HopSize:    64,
		CQT:        smallCQTConfig(),
	})
	require.NoError(t, err)
	provider := &countingProvider{TransformProvider: cqt}
	dest := newMemoryDestination()

	b := NewBatch(NewSynthesizer(sources, provider, nil), dest, BatchOptions{Dynamics: []string{"mf"}})
	report, err := b.Run(context.Background(), chords)
	assert.ErrorIs(t, err, spectral.ErrInverseUnsupported)
	assert.Equal(t, 4, report.Total)
	assert.Zero(t, report.Completed())
	assert.Zero(t, provider.forwards.Load())
	assert.Zero(t, dest.count())
}
