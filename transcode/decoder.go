package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-chords/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // 0 keeps the source rate
	TargetChannels   int           `json:"target_channels"`    // 0 keeps the source layout
	ResampleQuality  string        `json:"resample_quality"`   // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`        // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"`       // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout"`            // Timeout for ffmpeg operations
	EnableFFmpeg     bool          `json:"enable_ffmpeg"`      // fallback for other formats and resampling
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
		TargetChannels:   2,
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          30 * time.Second,
		EnableFFmpeg:     true,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder reads WAV, AIFF and FLAC natively and hands everything else, or
// anything needing a sample rate change, to ffmpeg
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

type nativeDecodeFunc func(filename string) (*AudioData, error)

var nativeDecoders = map[string]nativeDecodeFunc{
	".wav":  decodeWAV,
	".wave": decodeWAV,
	".aif":  decodeAIFF,
	".aiff": decodeAIFF,
	".flac": decodeFLAC,
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

// DecodeFile decodes an audio file to the configured sample rate and
// channel count
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	ext := strings.ToLower(filepath.Ext(filename))
	native, ok := nativeDecoders[ext]
	if ok {
		audio, err := native(filename)
		if err != nil {
			return nil, err
		}

		if d.config.TargetSampleRate <= 0 || audio.SampleRate == d.config.TargetSampleRate {
			logger.Debug("Decoded natively", logging.Fields{
				"sample_rate": audio.SampleRate,
				"channels":    audio.Channels,
				"frames":      audio.Frames(),
			})
			return d.fitChannels(audio)
		}

		if !d.config.EnableFFmpeg {
			return nil, fmt.Errorf("%w: %s is %d Hz, want %d Hz", ErrSampleRateMismatch, filename, audio.SampleRate, d.config.TargetSampleRate)
		}
		logger.Debug("Resampling through ffmpeg", logging.Fields{
			"input_sample_rate": audio.SampleRate,
		})
	} else if !d.config.EnableFFmpeg {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	// Probe the file to get format info
	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	return d.decodeFileWithFFmpeg(ctx, filename, metadata)
}

func (d *Decoder) fitChannels(audio *AudioData) (*AudioData, error) {
	if d.config.TargetChannels <= 0 || audio.Channels == d.config.TargetChannels {
		return audio, nil
	}
	return audio.ToChannels(d.config.TargetChannels)
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100 // Fallback to common sample rate
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// decodeFileWithFFmpeg performs the actual audio decoding from a file
func (d *Decoder) decodeFileWithFFmpeg(ctx context.Context, filename string, metadata *AudioMetadata) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "decodeFileWithFFmpeg",
		"filename": filename,
	})

	args := d.buildFFmpegArgs(metadata)
	args = append([]string{"-i", filename}, args...) // Prepend input file
	args = append(args, "pipe:1")                    // Output to stdout

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	sampleRate, channels := d.outputLayout(metadata)
	return newDecoded(bytesToFloat64(output), sampleRate, channels, filename, metadata.Codec)
}

// outputLayout resolves the rate and channel count ffmpeg is asked for
func (d *Decoder) outputLayout(metadata *AudioMetadata) (sampleRate, channels int) {
	sampleRate = d.config.TargetSampleRate
	if sampleRate <= 0 {
		sampleRate = metadata.SampleRate
	}
	channels = d.config.TargetChannels
	if channels <= 0 {
		channels = metadata.Channels
	}
	return sampleRate, channels
}

// buildFFmpegArgs builds the ffmpeg arguments based on configuration and metadata
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	sampleRate, channels := d.outputLayout(metadata)

	args := []string{
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
	}

	if metadata.SampleRate != sampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error")

	return args
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", d.config.TargetSampleRate)
	}

	if d.config.TargetChannels < 0 || d.config.TargetChannels > 8 {
		return fmt.Errorf("target channels must be between 0 and 8: %d", d.config.TargetChannels)
	}

	if d.config.EnableFFmpeg && d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}

	return nil
}

// CheckFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) CheckFFmpegAvailability() error {
	cmd := exec.Command(d.config.FFmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	cmd = exec.Command(d.config.FFprobePath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}
