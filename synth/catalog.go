package synth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/sonido-chords/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/transcode"
	"github.com/google/uuid"
)

var (
	ErrSourceRecordingMissing = errors.New("source recording missing")
	ErrDestinationWrite       = errors.New("destination write failed")
)

// SourceCatalog provides single-note recordings by dynamic and note
type SourceCatalog interface {
	Has(dynamic string, note tonal.Note) bool
	Load(ctx context.Context, dynamic string, note tonal.Note) (*transcode.AudioData, error)
}

// DestinationCatalog stores synthesized chords by dynamic and label
type DestinationCatalog interface {
	Exists(dynamic, label string) bool
	Write(ctx context.Context, dynamic, label string, audio *transcode.AudioData) error
}

// layout names files as <Dir>/<Prefix>.<dynamic>.<name>.<ext>
type layout struct {
	dir    string
	prefix string
	ext    string
}

// Path returns the file path for name at dynamic
func (l layout) Path(dynamic, name string) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s.%s.%s.%s", l.prefix, dynamic, name, l.ext))
}

func (l layout) exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NoteDir is a SourceCatalog backed by a directory of recordings
type NoteDir struct {
	layout
	decoder *transcode.Decoder
}

// NewNoteDir creates a source catalog over dir
func NewNoteDir(dir, prefix, ext string, decoder *transcode.Decoder) *NoteDir {
	if decoder == nil {
		decoder = transcode.NewDecoder(nil)
	}
	return &NoteDir{layout: layout{dir: dir, prefix: prefix, ext: ext}, decoder: decoder}
}

// Has reports whether the recording of note at dynamic exists
func (n *NoteDir) Has(dynamic string, note tonal.Note) bool {
	return n.exists(n.Path(dynamic, note.String()))
}

// Load decodes the recording of note at dynamic
func (n *NoteDir) Load(ctx context.Context, dynamic string, note tonal.Note) (*transcode.AudioData, error) {
	path := n.Path(dynamic, note.String())
	if !n.exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrSourceRecordingMissing, path)
	}

	audio, err := n.decoder.DecodeFile(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceRecordingMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return audio, nil
}

// ChordDir is a DestinationCatalog backed by a directory. Writes go to a
// temporary file that is renamed into place, so a file that exists is
// always complete.
type ChordDir struct {
	layout
	encoder *transcode.Encoder
	logger  logging.Logger
}

// NewChordDir creates a destination catalog over dir
func NewChordDir(dir, prefix, ext string, encoder *transcode.Encoder) *ChordDir {
	if encoder == nil {
		encoder = transcode.NewEncoder(nil)
	}
	return &ChordDir{
		layout:  layout{dir: dir, prefix: prefix, ext: ext},
		encoder: encoder,
		logger:  logging.WithFields(logging.Fields{"component": "chord_catalog"}),
	}
}

// Exists reports whether label at dynamic has been written
func (c *ChordDir) Exists(dynamic, label string) bool {
	return c.exists(c.Path(dynamic, label))
}

// Write encodes audio to the destination for label at dynamic
func (c *ChordDir) Write(ctx context.Context, dynamic, label string, audio *transcode.AudioData) error {
	path := c.Path(dynamic, label)
	if err := c.writeAtomic(path, audio); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDestinationWrite, path, err)
	}

	c.logger.WithContext(ctx).Debug("wrote chord", logging.Fields{
		"path":     path,
		"frames":   audio.Frames(),
		"channels": audio.Channels,
	})
	return nil
}

func (c *ChordDir) writeAtomic(path string, audio *transcode.AudioData) error {
	format, err := transcode.FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(c.dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := c.encoder.Encode(file, format, audio); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
