package spectral

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-chords/logging"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// STFT provides a centered Short-Time Fourier Transform and its
// overlap-add inverse
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft:    NewFFT(),
		logger: logging.WithFields(logging.Fields{"component": "stft"}),
	}
}

// Forward computes the STFT of every channel. Each channel is zero padded by
// frameSize/2 on both sides so frame i is centered on sample i*hopSize, then
// framed, Hann windowed and transformed. Only the frameSize/2+1 non-negative
// frequency bins are kept.
func (s *STFT) Forward(channels [][]float64, frameSize, hopSize, sampleRate int) (*Transform, error) {
	if err := validateFraming(frameSize, hopSize); err != nil {
		return nil, err
	}

	length, err := commonLength(channels)
	if err != nil {
		return nil, err
	}

	pad := frameSize / 2
	paddedLen := length + 2*pad
	numFrames := (paddedLen-frameSize)/hopSize + 1
	if numFrames <= 0 {
		return nil, fmt.Errorf("%w: signal of %d samples too short for frame size %d", ErrInvalidParameters, length, frameSize)
	}
	freqBins := frameSize/2 + 1

	padded := make([][]float64, len(channels))
	for ch, samples := range channels {
		padded[ch] = make([]float64, paddedLen)
		copy(padded[ch][pad:], samples)
	}

	result := NewTransform(KindSTFT, len(channels), numFrames, freqBins)
	result.SampleRate = sampleRate
	result.FrameSize = frameSize
	result.HopSize = hopSize
	result.SignalLength = length

	win := window.Hann(frameSize)

	type frameJob struct {
		channel  int
		frameIdx int
		startIdx int
	}

	totalJobs := numFrames * len(channels)
	numWorkers := getOptimalWorkerCount(totalJobs)
	jobs := make(chan frameJob, totalJobs)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, frameSize)

			for job := range jobs {
				copy(frameBuffer, padded[job.channel][job.startIdx:job.startIdx+frameSize])
				vecmath.MulBlockInPlace(frameBuffer, win)

				spectrum := s.fft.Compute(frameBuffer)
				copy(result.Data[job.channel][job.frameIdx], spectrum[:freqBins])
			}
		}()
	}

	for ch := range channels {
		for frameIdx := range numFrames {
			jobs <- frameJob{channel: ch, frameIdx: frameIdx, startIdx: frameIdx * hopSize}
		}
	}
	close(jobs)

	wg.Wait()

	s.logger.Debug("computed stft", logging.Fields{
		"channels": len(channels),
		"frames":   numFrames,
		"bins":     freqBins,
		"workers":  numWorkers,
	})

	return result, nil
}

// Inverse reconstructs one waveform per channel by weighted overlap-add:
// each inverse frame is windowed again and the sum is divided by the summed
// squared window. The centering pad is removed and the output is cut to
// t.SignalLength when that is known.
func (s *STFT) Inverse(t *Transform) ([][]float64, error) {
	if t.Kind != KindSTFT {
		return nil, fmt.Errorf("%w: %s", ErrInverseUnsupported, t.Kind)
	}
	if err := validateFraming(t.FrameSize, t.HopSize); err != nil {
		return nil, err
	}
	if t.Frames() == 0 {
		return nil, fmt.Errorf("%w: transform has no frames", ErrEmptySignal)
	}
	if t.Bins() != t.FrameSize/2+1 {
		return nil, fmt.Errorf("%w: %d bins for frame size %d", ErrInvalidParameters, t.Bins(), t.FrameSize)
	}

	frameSize, hopSize := t.FrameSize, t.HopSize
	win := window.Hann(frameSize)
	winSq := make([]float64, frameSize)
	copy(winSq, win)
	vecmath.MulBlockInPlace(winSq, win)

	numFrames := t.Frames()
	paddedLen := (numFrames-1)*hopSize + frameSize
	norm := make([]float64, paddedLen)
	for f := range numFrames {
		floats.Add(norm[f*hopSize:f*hopSize+frameSize], winSq)
	}

	pad := frameSize / 2
	end := min(paddedLen, pad+(numFrames-1)*hopSize)
	if t.SignalLength > 0 {
		end = min(paddedLen, pad+t.SignalLength)
	}
	if end <= pad {
		return nil, fmt.Errorf("%w: reconstruction shorter than frame padding", ErrInvalidParameters)
	}

	out := make([][]float64, t.Channels())
	for ch, frames := range t.Data {
		signal := make([]float64, paddedLen)
		for f, frame := range frames {
			segment := s.fft.ComputeInverseReal(FullSpectrum(frame, frameSize))
			vecmath.MulBlockInPlace(segment, win)
			floats.Add(signal[f*hopSize:f*hopSize+frameSize], segment)
		}

		for i, w := range norm {
			if w > 1e-10 {
				signal[i] /= w
			}
		}
		out[ch] = signal[pad:end]
	}

	s.logger.Debug("computed istft", logging.Fields{
		"channels": len(out),
		"samples":  len(out[0]),
	})

	return out, nil
}

func validateFraming(frameSize, hopSize int) error {
	if frameSize <= 0 {
		return fmt.Errorf("%w: frame size must be positive", ErrInvalidParameters)
	}
	if hopSize <= 0 || hopSize > frameSize {
		return fmt.Errorf("%w: hop size must be in 1..%d", ErrInvalidParameters, frameSize)
	}
	return nil
}

func commonLength(channels [][]float64) (int, error) {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return 0, ErrEmptySignal
	}
	length := len(channels[0])
	for ch, samples := range channels[1:] {
		if len(samples) != length {
			return 0, fmt.Errorf("%w: channel %d has %d samples, want %d", ErrInvalidParameters, ch+1, len(samples), length)
		}
	}
	return length, nil
}

// getOptimalWorkerCount determines the number of workers for a frame workload
func getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// Cap medium loads at 8
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
