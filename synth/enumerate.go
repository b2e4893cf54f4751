package synth

import (
	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
)

// EnumerateChords resolves every (octave, tonic, quality) combination,
// octave-major
func EnumerateChords(octaves []int, tonics []tonal.PitchClass, qualities []tonal.Quality) ([]tonal.Chord, error) {
	chords := make([]tonal.Chord, 0, len(octaves)*len(tonics)*len(qualities))
	for _, octave := range octaves {
		for _, tonic := range tonics {
			for _, q := range qualities {
				chord, err := tonal.ResolveChord(tonic.String(), octave, q)
				if err != nil {
					return nil, err
				}
				chords = append(chords, chord)
			}
		}
	}
	return chords, nil
}

// EnumerateIntervals resolves every (octave, tonic, interval) combination,
// octave-major
func EnumerateIntervals(octaves []int, tonics []tonal.PitchClass, intervals []tonal.Interval) ([]tonal.Chord, error) {
	chords := make([]tonal.Chord, 0, len(octaves)*len(tonics)*len(intervals))
	for _, octave := range octaves {
		for _, tonic := range tonics {
			for _, iv := range intervals {
				chord, err := tonal.ResolveInterval(tonic.String(), octave, iv.Degrees[0], iv.Degrees[1], iv.Name)
				if err != nil {
					return nil, err
				}
				chords = append(chords, chord)
			}
		}
	}
	return chords, nil
}

// MissingNotes returns "<dynamic>.<note>" for every note of chord the source
// catalog lacks
func MissingNotes(chord tonal.Chord, sources SourceCatalog, dynamics []string) []string {
	var missing []string
	for _, note := range chord.Notes {
		for _, dynamic := range dynamics {
			if !sources.Has(dynamic, note) {
				missing = append(missing, dynamic+"."+note.String())
			}
		}
	}
	return missing
}

// FilterAvailable returns the chords whose every note is recorded at every
// dynamic. The input slice is not modified.
func FilterAvailable(chords []tonal.Chord, sources SourceCatalog, dynamics []string) []tonal.Chord {
	available := make([]tonal.Chord, 0, len(chords))
	for _, chord := range chords {
		if len(MissingNotes(chord, sources, dynamics)) == 0 {
			available = append(available, chord)
		}
	}
	return available
}
