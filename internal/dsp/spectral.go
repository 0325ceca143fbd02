// SPDX-License-Identifier: MIT

// Package dsp implements the audio-block to dB-magnitude-spectrum
// transform used by the capture pipeline.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"spectro/pkg/bitint"
)

// epsilon keeps log10 finite on silent bins.
const epsilon = 1e-9

// Frame carries one per-channel dB-magnitude spectrum. Both slices always
// have length fftSize/2+1; mono devices get the single channel duplicated
// into both. Frames are immutable after creation.
type Frame struct {
	Left  []float64 `json:"left"`
	Right []float64 `json:"right"`
}

// Bins returns the spectrum length per channel.
func (f *Frame) Bins() int {
	return len(f.Left)
}

// Pre-allocated buffers for the transform.
type workspace struct {
	sampleL []float64    // Windowed left-channel samples.
	sampleR []float64    // Windowed right-channel samples.
	coeffs  []complex128 // FFT complex output, reused for both channels.
}

// Processor converts raw multi-channel blocks to spectral frames. It is
// stateless apart from pre-allocated workspace buffers; a Processor built
// for one (size, rate) pair is immutable and must be replaced, not
// mutated, when either changes.
type Processor struct {
	fftSize    int
	sampleRate float64
	fft        *fourier.FFT
	window     []float64
	workspace  workspace
}

// NewProcessor creates a Processor for the given transform size and
// sample rate. The block size equals the transform size, so the Hann
// window has fftSize coefficients.
func NewProcessor(fftSize int, sampleRate float64) (*Processor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("transform size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	bins := fftSize/2 + 1
	return &Processor{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(fftSize),
		window:     HannWindow(fftSize),
		workspace: workspace{
			sampleL: make([]float64, fftSize),
			sampleR: make([]float64, fftSize),
			coeffs:  make([]complex128, bins),
		},
	}, nil
}

// Transform converts one interleaved block of exactly fftSize frames into
// a spectral frame. channels is the device channel count; channels beyond
// the second are ignored, a single channel is duplicated into both
// outputs. A block of the wrong length is a programming error.
func (p *Processor) Transform(block []float32, channels int) *Frame {
	if channels < 1 {
		panic("dsp: channel count must be at least 1")
	}
	if len(block) != p.fftSize*channels {
		panic(fmt.Sprintf("dsp: block length %d does not match %d frames x %d channels",
			len(block), p.fftSize, channels))
	}

	ws := &p.workspace
	if channels >= 2 {
		for i := 0; i < p.fftSize; i++ {
			ws.sampleL[i] = float64(block[i*channels]) * p.window[i]
			ws.sampleR[i] = float64(block[i*channels+1]) * p.window[i]
		}
	} else {
		for i := 0; i < p.fftSize; i++ {
			ws.sampleL[i] = float64(block[i]) * p.window[i]
		}
		copy(ws.sampleR, ws.sampleL)
	}

	frame := &Frame{
		Left:  make([]float64, len(ws.coeffs)),
		Right: make([]float64, len(ws.coeffs)),
	}
	p.fft.Coefficients(ws.coeffs, ws.sampleL)
	magnitudesDB(frame.Left, ws.coeffs)
	p.fft.Coefficients(ws.coeffs, ws.sampleR)
	magnitudesDB(frame.Right, ws.coeffs)

	return frame
}

// magnitudesDB writes 20*log10(|c|+epsilon) for each coefficient.
func magnitudesDB(dst []float64, coeffs []complex128) {
	for i, c := range coeffs {
		dst[i] = 20 * math.Log10(cmplx.Abs(c)+epsilon)
	}
}

// FrequencyAxis returns the bin center frequencies, k*sampleRate/fftSize
// for k in [0, bins).
func (p *Processor) FrequencyAxis() []float64 {
	axis := make([]float64, p.Bins())
	for k := range axis {
		axis[k] = float64(k) * p.sampleRate / float64(p.fftSize)
	}
	return axis
}

// Bins returns the spectrum length per channel, fftSize/2+1.
func (p *Processor) Bins() int {
	return p.fftSize/2 + 1
}

// FFTSize returns the configured transform size.
func (p *Processor) FFTSize() int {
	return p.fftSize
}

// SampleRate returns the configured sample rate in Hz.
func (p *Processor) SampleRate() float64 {
	return p.sampleRate
}

// Window coefficient cache keyed by block length. Windows are recomputed
// only when a new block size first appears.
var (
	windowMu    sync.Mutex
	windowCache = map[int][]float64{}
)

// HannWindow returns the Hann coefficients for the given length. The
// returned slice is shared; callers must not modify it.
func HannWindow(n int) []float64 {
	windowMu.Lock()
	defer windowMu.Unlock()

	if coeffs, ok := windowCache[n]; ok {
		return coeffs
	}

	// gonum's window functions multiply a sequence in place, so seed
	// with ones to extract the raw coefficients.
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	window.Hann(coeffs)
	windowCache[n] = coeffs
	return coeffs
}
