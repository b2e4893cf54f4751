package chroma

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrInvalidCQTConfig is returned when a CQT cannot be built from its config
var ErrInvalidCQTConfig = errors.New("invalid cqt config")

// CQTConfig parameterises the constant-Q transform.
// Bin k sits at MinFreq * 2^(k/BinsPerOctave).
type CQTConfig struct {
	MinFreq       float64 `json:"min_freq"`        // lowest bin, C1 by default
	BinsPerOctave int     `json:"bins_per_octave"` // 12 for semitone resolution
	NumBins       int     `json:"num_bins"`
	QFactor       float64 `json:"q_factor"` // 0 derives Q from BinsPerOctave
	TuningFreq    float64 `json:"tuning_freq"`
	Sparsity      float64 `json:"sparsity"` // kernel entries below Sparsity*max are dropped
}

// DefaultCQTConfig returns a seven-octave semitone CQT starting at C1
func DefaultCQTConfig() CQTConfig {
	return CQTConfig{
		MinFreq:       32.703,
		BinsPerOctave: 12,
		NumBins:       84,
		QFactor:       0,
		TuningFreq:    440.0,
		Sparsity:      0.0054,
	}
}

// Q returns the effective quality factor
func (c CQTConfig) Q() float64 {
	if c.QFactor > 0 {
		return c.QFactor
	}
	return 1.0 / (math.Pow(2.0, 1.0/float64(c.BinsPerOctave)) - 1.0)
}

// Validate checks the config against a sample rate
func (c CQTConfig) Validate(sampleRate int) error {
	switch {
	case sampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidCQTConfig, sampleRate)
	case c.MinFreq <= 0:
		return fmt.Errorf("%w: min frequency %g", ErrInvalidCQTConfig, c.MinFreq)
	case c.BinsPerOctave <= 0 || c.NumBins <= 0:
		return fmt.Errorf("%w: %d bins at %d per octave", ErrInvalidCQTConfig, c.NumBins, c.BinsPerOctave)
	case c.Sparsity < 0 || c.Sparsity >= 1:
		return fmt.Errorf("%w: sparsity %g", ErrInvalidCQTConfig, c.Sparsity)
	}

	top := c.MinFreq * math.Pow(2.0, float64(c.NumBins-1)/float64(c.BinsPerOctave))
	if top >= float64(sampleRate)/2 {
		return fmt.Errorf("%w: top bin %.1f Hz above Nyquist", ErrInvalidCQTConfig, top)
	}
	return nil
}

// sparseKernel holds the non-negligible spectrum entries of one bin's kernel
type sparseKernel struct {
	index []int
	value []complex128 // conjugated and scaled by 1/fftSize
}

// CQT computes a complex constant-Q transform by multiplying each frame's
// spectrum with precomputed sparse kernel spectra
type CQT struct {
	config     CQTConfig
	sampleRate int
	fftSize    int
	freqs      []float64
	kernels    []sparseKernel
	logger     logging.Logger
}

// NewCQT builds the kernel bank for sampleRate
func NewCQT(sampleRate int, config CQTConfig) (*CQT, error) {
	if err := config.Validate(sampleRate); err != nil {
		return nil, err
	}

	c := &CQT{
		config:     config,
		sampleRate: sampleRate,
		logger:     logging.WithFields(logging.Fields{"component": "cqt"}),
	}
	c.computeKernels()

	c.logger.Debug("built cqt kernels", logging.Fields{
		"bins":     len(c.kernels),
		"fft_size": c.fftSize,
	})
	return c, nil
}

// Frequencies returns the center frequency of each bin
func (c *CQT) Frequencies() []float64 {
	return append([]float64(nil), c.freqs...)
}

// TuningFreq returns the A4 reference used for pitch-class mapping
func (c *CQT) TuningFreq() float64 {
	return c.config.TuningFreq
}

// FFTSize returns the analysis frame length
func (c *CQT) FFTSize() int {
	return c.fftSize
}

func (c *CQT) kernelLength(freq float64) int {
	length := int(math.Ceil(c.config.Q() * float64(c.sampleRate) / freq))
	if length%2 == 0 {
		length++
	}
	return max(length, 3)
}

// computeKernels builds Hann-windowed complex exponentials centered in an
// fftSize frame and keeps the significant entries of their spectra
func (c *CQT) computeKernels() {
	numBins := c.config.NumBins
	c.freqs = make([]float64, numBins)
	for k := range numBins {
		c.freqs[k] = c.config.MinFreq * math.Pow(2.0, float64(k)/float64(c.config.BinsPerOctave))
	}

	// Lowest frequency has the longest kernel
	c.fftSize = nextPowerOfTwo(c.kernelLength(c.freqs[0]))

	plan := fourier.NewCmplxFFT(c.fftSize)
	kernel := make([]complex128, c.fftSize)
	spectrum := make([]complex128, c.fftSize)

	c.kernels = make([]sparseKernel, numBins)
	for k, freq := range c.freqs {
		length := c.kernelLength(freq)
		win := window.Hann(length)

		clear(kernel)
		start := c.fftSize/2 - length/2
		for n := range length {
			t := float64(n - length/2)
			phase := 2.0 * math.Pi * freq * t / float64(c.sampleRate)
			kernel[start+n] = complex(win[n]/float64(length), 0) * cmplx.Exp(complex(0, phase))
		}

		spectrum = plan.Coefficients(spectrum, kernel)

		peak := 0.0
		for _, v := range spectrum {
			peak = max(peak, cmplx.Abs(v))
		}

		var sk sparseKernel
		scale := complex(1.0/float64(c.fftSize), 0)
		for n, v := range spectrum {
			if cmplx.Abs(v) > c.config.Sparsity*peak {
				sk.index = append(sk.index, n)
				sk.value = append(sk.value, cmplx.Conj(v)*scale)
			}
		}
		c.kernels[k] = sk
	}
}

// Forward computes the CQT of every channel. Frames are centered on multiples
// of hopSize so frame i lines up in time with STFT frame i.
func (c *CQT) Forward(channels [][]float64, hopSize int) (*spectral.Transform, error) {
	if hopSize <= 0 {
		return nil, fmt.Errorf("%w: hop size must be positive", spectral.ErrInvalidParameters)
	}
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, spectral.ErrEmptySignal
	}

	length := len(channels[0])
	for _, samples := range channels {
		if len(samples) != length {
			return nil, fmt.Errorf("%w: channel lengths differ", spectral.ErrInvalidParameters)
		}
	}

	pad := c.fftSize / 2
	numFrames := length/hopSize + 1

	result := spectral.NewTransform(spectral.KindCQT, len(channels), numFrames, len(c.kernels))
	result.SampleRate = c.sampleRate
	result.FrameSize = c.fftSize
	result.HopSize = hopSize
	result.SignalLength = length

	type frameJob struct {
		channel  int
		frameIdx int
	}

	totalJobs := numFrames * len(channels)
	jobs := make(chan frameJob, totalJobs)

	var wg sync.WaitGroup
	for range min(runtime.NumCPU(), totalJobs) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// fourier plans keep scratch space and are not shared between workers
			plan := fourier.NewCmplxFFT(c.fftSize)
			frame := make([]complex128, c.fftSize)
			spectrum := make([]complex128, c.fftSize)

			for job := range jobs {
				signal := channels[job.channel]
				origin := job.frameIdx*hopSize - pad
				for i := range frame {
					idx := origin + i
					if idx >= 0 && idx < length {
						frame[i] = complex(signal[idx], 0)
					} else {
						frame[i] = 0
					}
				}

				spectrum = plan.Coefficients(spectrum, frame)

				out := result.Data[job.channel][job.frameIdx]
				for k, kernel := range c.kernels {
					var acc complex128
					for j, n := range kernel.index {
						acc += spectrum[n] * kernel.value[j]
					}
					out[k] = acc
				}
			}
		}()
	}

	for ch := range channels {
		for frameIdx := range numFrames {
			jobs <- frameJob{channel: ch, frameIdx: frameIdx}
		}
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// nextPowerOfTwo finds the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
