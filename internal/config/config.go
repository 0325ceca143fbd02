// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"
)

// Core configuration constants that define the boundaries and defaults
// for the spectrogram pipeline.
const (
	DefaultSampleRate    = 44100 // CD-quality audio
	DefaultTransformSize = 2048  // Also the capture block size
	DefaultColorMap      = "viridis"
	DefaultSpecDBMin     = -70.0
	DefaultSpecDBMax     = 10.0
	DefaultRespHeadroom  = 10.0
	DefaultVerbose       = false
	DefaultSuppressDisc  = true

	// HistorySeconds is the rolling depth of the spectrogram history.
	HistorySeconds = 10.0

	// UpdateInterval is the consumer tick cadence (~25 frames/s).
	UpdateInterval = 40 * time.Millisecond

	// ReadBackoff is how long the capture loop sleeps after a short read.
	ReadBackoff = 5 * time.Millisecond
)

// FreqScale selects the frequency axis mapping used by the renderer.
type FreqScale string

const (
	FreqScaleLinear      FreqScale = "linear"
	FreqScaleLogarithmic FreqScale = "logarithmic"
)

// SupportedSampleRates lists the capture rates offered on the
// configuration surface.
var SupportedSampleRates = []int{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000}

// SupportedTransformSizes lists the power-of-two transform sizes offered
// on the configuration surface. The block size always equals the
// transform size (no zero-padding).
var SupportedTransformSizes = []int{512, 1024, 2048, 4096, 8192, 16384}

// SupportedColorMaps lists the color map identifiers the renderer accepts.
var SupportedColorMaps = []string{"cividis", "inferno", "magma", "plasma", "turbo", "viridis"}

// Settings holds the live configuration of the pipeline. SampleRate and
// TransformSize are restart-requiring; everything else is cosmetic.
type Settings struct {
	SampleRate    int       `yaml:"sample_rate"`
	TransformSize int       `yaml:"transform_size"`
	FreqScale     FreqScale `yaml:"freq_scale"`
	ColorMap      string    `yaml:"color_map"`
	SpecDBMin     float64   `yaml:"spec_db_min"`
	SpecDBMax     float64   `yaml:"spec_db_max"`
	RespHeadroom  float64   `yaml:"resp_headroom"`
	Verbose       bool      `yaml:"verbose"`

	// SuppressDiscontinuityWarnings silences the per-underrun warnings
	// emitted when the capture stream resumes after a gap.
	SuppressDiscontinuityWarnings bool `yaml:"suppress_discontinuity_warnings"`
}

// RejectedError reports a configuration request that failed validation.
// Nothing is applied when a request is rejected.
type RejectedError struct {
	Field  string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("configuration rejected: %s: %s", e.Field, e.Reason)
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		SampleRate:                    DefaultSampleRate,
		TransformSize:                 DefaultTransformSize,
		FreqScale:                     FreqScaleLogarithmic,
		ColorMap:                      DefaultColorMap,
		SpecDBMin:                     DefaultSpecDBMin,
		SpecDBMax:                     DefaultSpecDBMax,
		RespHeadroom:                  DefaultRespHeadroom,
		Verbose:                       DefaultVerbose,
		SuppressDiscontinuityWarnings: DefaultSuppressDisc,
	}
}

// Validate checks every field against the supported enums and ranges.
// It returns a *RejectedError naming the first offending field.
func (s Settings) Validate() error {
	if !containsInt(SupportedSampleRates, s.SampleRate) {
		return &RejectedError{Field: "sample_rate", Reason: fmt.Sprintf("unsupported rate %d Hz", s.SampleRate)}
	}
	if !containsInt(SupportedTransformSizes, s.TransformSize) {
		return &RejectedError{Field: "transform_size", Reason: fmt.Sprintf("unsupported size %d", s.TransformSize)}
	}
	if s.FreqScale != FreqScaleLinear && s.FreqScale != FreqScaleLogarithmic {
		return &RejectedError{Field: "freq_scale", Reason: fmt.Sprintf("unknown scale %q", s.FreqScale)}
	}
	if !containsString(SupportedColorMaps, s.ColorMap) {
		return &RejectedError{Field: "color_map", Reason: fmt.Sprintf("unknown color map %q", s.ColorMap)}
	}
	if s.SpecDBMin >= s.SpecDBMax {
		return &RejectedError{
			Field:  "spec_db_min",
			Reason: fmt.Sprintf("min %.1f dB must be below max %.1f dB", s.SpecDBMin, s.SpecDBMax),
		}
	}
	if s.RespHeadroom < 0 {
		return &RejectedError{Field: "resp_headroom", Reason: fmt.Sprintf("headroom %.1f dB must be >= 0", s.RespHeadroom)}
	}
	return nil
}

// RestartRequired reports whether switching from s to next invalidates
// the capture stream, window, or buffer shape.
func RestartRequired(s, next Settings) bool {
	return s.SampleRate != next.SampleRate || s.TransformSize != next.TransformSize
}

// BlockSize returns the capture block size in frames. The design keeps
// block size locked to the transform size.
func (s Settings) BlockSize() int {
	return s.TransformSize
}

// Bins returns the spectrum length per channel for the current transform size.
func (s Settings) Bins() int {
	return s.TransformSize/2 + 1
}

// HistoryFrames returns how many consumed frames cover HistorySeconds at
// the current rate and block size. Always at least 1.
func (s Settings) HistoryFrames() int {
	frames := int(ceilDiv(HistorySeconds*float64(s.SampleRate), float64(s.BlockSize())))
	if frames < 1 {
		frames = 1
	}
	return frames
}

func ceilDiv(num, den float64) float64 {
	q := num / den
	if q != float64(int(q)) {
		return float64(int(q) + 1)
	}
	return q
}

func containsInt(list []int, v int) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
