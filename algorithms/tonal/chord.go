package tonal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownChordQuality = errors.New("unknown chord quality")
	ErrDegreeOutOfRange    = errors.New("scale degree out of range")
	ErrUnknownInterval     = errors.New("unknown interval")
)

// Quality names a chord type by its short label
type Quality string

const (
	Major           Quality = "maj"
	Major6          Quality = "maj6"
	Dominant7       Quality = "dom7"
	Major7          Quality = "maj7"
	Augmented       Quality = "aug"
	Augmented7      Quality = "aug7"
	Minor           Quality = "min"
	Minor6          Quality = "min6"
	Minor7          Quality = "min7"
	MinorMajor7     Quality = "minmaj7"
	Diminished      Quality = "dim"
	Diminished7     Quality = "dim7"
	HalfDiminished7 Quality = "hdim7"
)

// qualityTable lists every quality with its semitone offsets from the tonic,
// in catalog order
var qualityTable = []struct {
	quality Quality
	offsets []int
}{
	{Major, []int{0, 4, 7}},
	{Major6, []int{0, 4, 7, 9}},
	{Dominant7, []int{0, 4, 7, 10}},
	{Major7, []int{0, 4, 7, 11}},
	{Augmented, []int{0, 4, 8}},
	{Augmented7, []int{0, 4, 8, 10}},
	{Minor, []int{0, 3, 7}},
	{Minor6, []int{0, 3, 7, 9}},
	{Minor7, []int{0, 3, 7, 10}},
	{MinorMajor7, []int{0, 3, 7, 11}},
	{Diminished, []int{0, 3, 6}},
	{Diminished7, []int{0, 3, 6, 9}},
	{HalfDiminished7, []int{0, 3, 6, 10}},
}

// Qualities returns the chord catalog in its canonical order
func Qualities() []Quality {
	out := make([]Quality, len(qualityTable))
	for i, q := range qualityTable {
		out[i] = q.quality
	}
	return out
}

// Offsets returns the semitone offsets of q
func (q Quality) Offsets() ([]int, error) {
	for _, entry := range qualityTable {
		if entry.quality == q {
			return slices.Clone(entry.offsets), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChordQuality, string(q))
}

// ParseQuality validates a quality name such as "dom7"
func ParseQuality(name string) (Quality, error) {
	q := Quality(strings.TrimSpace(name))
	if _, err := q.Offsets(); err != nil {
		return "", err
	}
	return q, nil
}

// Interval is a named two-note selection from the scale-degree ladder
type Interval struct {
	Name    string `json:"name"`
	Degrees [2]int `json:"degrees"`
}

var intervalNames = [SemitonesPerOctave]string{
	"minor_second", "major_second", "minor_third", "major_third",
	"perfect_fourth", "tritone", "perfect_fifth", "minor_sixth",
	"major_sixth", "minor_seventh", "major_seventh", "octave",
}

// Intervals returns the twelve intervals from the minor second to the octave,
// each pairing the tonic (degree 0) with degree k.
func Intervals() []Interval {
	out := make([]Interval, len(intervalNames))
	for i, name := range intervalNames {
		out[i] = Interval{Name: name, Degrees: [2]int{0, i + 1}}
	}
	return out
}

// LookupInterval finds a named interval
func LookupInterval(name string) (Interval, error) {
	for _, iv := range Intervals() {
		if iv.Name == name {
			return iv, nil
		}
	}
	return Interval{}, fmt.Errorf("%w: %q", ErrUnknownInterval, name)
}

// Chord is a resolved chord or interval: its notes, tonic first, and a label
// of the form <Tonic><Octave>.<Name>
type Chord struct {
	Notes []Note `json:"notes"`
	Label string `json:"label"`
}

// NoteNames returns the note identifiers in chord order
func (c Chord) NoteNames() []string {
	names := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		names[i] = n.String()
	}
	return names
}

func (c Chord) String() string {
	return fmt.Sprintf("%s [%s]", c.Label, strings.Join(c.NoteNames(), " "))
}

func normalizeTonic(tonic string, octave int) (PitchClass, error) {
	if octave < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOctave, octave)
	}
	return Normalize(tonic)
}

// ResolveChord returns the notes of quality built on tonic in octave
func ResolveChord(tonic string, octave int, quality Quality) (Chord, error) {
	pc, err := normalizeTonic(tonic, octave)
	if err != nil {
		return Chord{}, err
	}

	offsets, err := quality.Offsets()
	if err != nil {
		return Chord{}, err
	}

	ladder := ScaleDegrees(pc, octave)
	notes := make([]Note, len(offsets))
	for i, off := range offsets {
		notes[i] = ladder[off]
	}

	return Chord{
		Notes: notes,
		Label: fmt.Sprintf("%s%d.%s", pc, octave, quality),
	}, nil
}

// ResolveInterval selects degrees a and b (0..12, in that order) from the
// ladder on tonic. name becomes the label suffix; when empty a name is
// derived from the degrees.
func ResolveInterval(tonic string, octave int, a, b int, name string) (Chord, error) {
	pc, err := normalizeTonic(tonic, octave)
	if err != nil {
		return Chord{}, err
	}

	for _, d := range []int{a, b} {
		if d < 0 || d >= NumDegrees {
			return Chord{}, fmt.Errorf("%w: %d not in 0..%d", ErrDegreeOutOfRange, d, NumDegrees-1)
		}
	}

	if name == "" {
		name = fmt.Sprintf("degrees_%d_%d", a, b)
	}

	ladder := ScaleDegrees(pc, octave)
	return Chord{
		Notes: []Note{ladder[a], ladder[b]},
		Label: fmt.Sprintf("%s%d.%s", pc, octave, name),
	}, nil
}

// ResolveNamedInterval resolves one of the Intervals by name
func ResolveNamedInterval(tonic string, octave int, name string) (Chord, error) {
	iv, err := LookupInterval(name)
	if err != nil {
		return Chord{}, err
	}
	return ResolveInterval(tonic, octave, iv.Degrees[0], iv.Degrees[1], iv.Name)
}
