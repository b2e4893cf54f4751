package tonal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNoteName is returned for names outside the 12-tone alphabet
var ErrInvalidNoteName = errors.New("invalid note name")

// ErrInvalidOctave is returned for negative octaves
var ErrInvalidOctave = errors.New("invalid octave")

// PitchClass is one of the twelve equal-tempered pitch classes, 0=C ... 11=B.
// It always renders with flat spelling.
type PitchClass int

const (
	C PitchClass = iota
	Db
	D
	Eb
	E
	F
	Gb
	G
	Ab
	A
	Bb
	B
)

// SemitonesPerOctave is the size of the pitch-class alphabet
const SemitonesPerOctave = 12

var pitchClassNames = [SemitonesPerOctave]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// letters is the 7-letter musical alphabet in order, used to respell sharps
const letters = "ABCDEFG"

// String returns the flat spelling of the pitch class
func (p PitchClass) String() string {
	if p < 0 || int(p) >= SemitonesPerOctave {
		return fmt.Sprintf("PitchClass(%d)", int(p))
	}
	return pitchClassNames[p]
}

// PitchClasses returns all twelve pitch classes in ascending order
func PitchClasses() []PitchClass {
	out := make([]PitchClass, SemitonesPerOctave)
	for i := range out {
		out[i] = PitchClass(i)
	}
	return out
}

// Normalize resolves a pitch-class name in sharp, flat or natural spelling to
// its flat-alphabet pitch class. Cb, Fb, B# and E# map to their natural
// enharmonics; any other sharp becomes the flat of the next letter up.
func Normalize(name string) (PitchClass, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
	}

	letter := strings.ToUpper(name[:1])
	if !strings.Contains(letters, letter) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
	}
	accidental := name[1:]

	switch letter + accidental {
	case "Cb":
		return B, nil
	case "B#":
		return C, nil
	case "E#":
		return F, nil
	case "Fb":
		return E, nil
	}

	spelled := letter + accidental
	switch accidental {
	case "":
	case "b":
	case "#":
		next := letters[(strings.Index(letters, letter)+1)%len(letters)]
		spelled = string(next) + "b"
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
	}

	for i, n := range pitchClassNames {
		if n == spelled {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidNoteName, name)
}

// Note is a pitch class in a specific octave, rendered as e.g. "Db5"
type Note struct {
	Class  PitchClass `json:"class"`
	Octave int        `json:"octave"`
}

// String returns the note identifier
func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

// ParseNote parses an identifier such as "C4", "F#3" or "Bb0". The
// pitch-class part is normalized, so "F#3" yields Gb3.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNoteName, s)
	}

	class, err := Normalize(s[:i])
	if err != nil {
		return Note{}, err
	}

	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNoteName, s)
	}

	return Note{Class: class, Octave: octave}, nil
}

// Degree returns the note offset semitones above tonic in the given octave.
// Crossing B carries into the next octave.
func Degree(tonic PitchClass, octave int, offset int) Note {
	idx := int(tonic) + offset
	return Note{
		Class:  PitchClass(idx % SemitonesPerOctave),
		Octave: octave + idx/SemitonesPerOctave,
	}
}

// NumDegrees is the length of the scale-degree ladder: unison through octave
const NumDegrees = SemitonesPerOctave + 1

// ScaleDegrees returns the 13-entry ladder of notes 0..12 semitones above the
// tonic.
func ScaleDegrees(tonic PitchClass, octave int) [NumDegrees]Note {
	var ladder [NumDegrees]Note
	for offset := range NumDegrees {
		ladder[offset] = Degree(tonic, octave, offset)
	}
	return ladder
}
