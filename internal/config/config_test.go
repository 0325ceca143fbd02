// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string // empty means valid
	}{
		{"defaults", func(s *Settings) {}, ""},
		{"unsupported rate", func(s *Settings) { s.SampleRate = 44000 }, "sample_rate"},
		{"unsupported transform size", func(s *Settings) { s.TransformSize = 3000 }, "transform_size"},
		{"power of two but unsupported", func(s *Settings) { s.TransformSize = 256 }, "transform_size"},
		{"unknown scale", func(s *Settings) { s.FreqScale = "mel" }, "freq_scale"},
		{"unknown color map", func(s *Settings) { s.ColorMap = "jet" }, "color_map"},
		{"min equals max", func(s *Settings) { s.SpecDBMin = 10; s.SpecDBMax = 10 }, "spec_db_min"},
		{"min above max", func(s *Settings) { s.SpecDBMin = 20; s.SpecDBMax = 10 }, "spec_db_min"},
		{"negative headroom", func(s *Settings) { s.RespHeadroom = -1 }, "resp_headroom"},
		{"linear scale ok", func(s *Settings) { s.FreqScale = FreqScaleLinear }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rejected *RejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected *RejectedError, got %v", err)
			}
			if rejected.Field != tt.field {
				t.Errorf("rejected field = %q, want %q", rejected.Field, tt.field)
			}
		})
	}
}

func TestRestartRequired(t *testing.T) {
	base := DefaultSettings()

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   bool
	}{
		{"identical", func(s *Settings) {}, false},
		{"sample rate", func(s *Settings) { s.SampleRate = 48000 }, true},
		{"transform size", func(s *Settings) { s.TransformSize = 4096 }, true},
		{"freq scale", func(s *Settings) { s.FreqScale = FreqScaleLinear }, false},
		{"color map", func(s *Settings) { s.ColorMap = "magma" }, false},
		{"db bounds", func(s *Settings) { s.SpecDBMin = -90 }, false},
		{"headroom", func(s *Settings) { s.RespHeadroom = 20 }, false},
		{"verbose", func(s *Settings) { s.Verbose = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			if got := RestartRequired(base, next); got != tt.want {
				t.Errorf("RestartRequired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistoryFrames(t *testing.T) {
	for _, rate := range SupportedSampleRates {
		for _, size := range SupportedTransformSizes {
			s := DefaultSettings()
			s.SampleRate = rate
			s.TransformSize = size

			want := int(math.Ceil(HistorySeconds * float64(rate) / float64(size)))
			if want < 1 {
				want = 1
			}
			if got := s.HistoryFrames(); got != want {
				t.Errorf("HistoryFrames(rate=%d, block=%d) = %d, want %d", rate, size, got, want)
			}
		}
	}
}

func TestBins(t *testing.T) {
	s := DefaultSettings()
	s.TransformSize = 4096
	if got := s.Bins(); got != 2049 {
		t.Errorf("Bins() = %d, want 2049", got)
	}
	if got := s.BlockSize(); got != 4096 {
		t.Errorf("BlockSize() = %d, want 4096", got)
	}
}
