package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// decodeWAV reads a full WAV file through go-audio and scales samples by
// the source bit depth
func decodeWAV(filename string) (*AudioData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", ErrUnsupportedFormat, filename)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode failed: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}

	return newDecoded(scaleInts(buf.Data, bitDepth), int(dec.SampleRate), int(dec.NumChans), filename, "pcm_wav")
}

// decodeFLAC reads every frame of a FLAC stream and scales samples by the
// stream bit depth
func decodeFLAC(filename string) (*AudioData, error) {
	stream, err := flac.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("flac open failed: %w", err)
	}
	defer stream.Close()

	numChannels := int(stream.Info.NChannels)
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))
	pcm := make([]float64, 0, int(stream.Info.NSamples)*numChannels)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame failed: %w", err)
		}

		for i := range frame.Subframes[0].NSamples {
			for _, sub := range frame.Subframes {
				pcm = append(pcm, float64(sub.Samples[i])/scale)
			}
		}
	}

	return newDecoded(pcm, int(stream.Info.SampleRate), numChannels, filename, "flac")
}

// decodeAIFF reads a full AIFF file through go-audio
func decodeAIFF(filename string) (*AudioData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := aiff.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid aiff file", ErrUnsupportedFormat, filename)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("aiff decode failed: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}

	return newDecoded(scaleInts(buf.Data, bitDepth), int(dec.SampleRate), int(dec.NumChans), filename, "pcm_aiff")
}

// scaleInts maps integer PCM at bitDepth to [-1, 1)
func scaleInts(data []int, bitDepth int) []float64 {
	scale := float64(int64(1) << (bitDepth - 1))
	pcm := make([]float64, len(data))
	for i, s := range data {
		pcm[i] = float64(s) / scale
	}
	return pcm
}

func newDecoded(pcm []float64, sampleRate, channels int, source, codec string) (*AudioData, error) {
	if len(pcm) == 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, source)
	}
	a := &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Source:     source,
		Codec:      codec,
	}
	a.Duration = a.computeDuration()
	return a, nil
}
