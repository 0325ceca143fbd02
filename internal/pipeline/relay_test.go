// SPDX-License-Identifier: MIT
package pipeline

import (
	"sync"
	"testing"

	"spectro/internal/dsp"
)

func frameWithValue(bins int, v float64) *dsp.Frame {
	left := make([]float64, bins)
	right := make([]float64, bins)
	for i := range left {
		left[i] = v
		right[i] = v
	}
	return &dsp.Frame{Left: left, Right: right}
}

func TestRelayEmpty(t *testing.T) {
	r := NewRelay()
	if frame, ok := r.Take(); ok || frame != nil {
		t.Errorf("expected empty relay, got frame=%v ok=%v", frame, ok)
	}
}

func TestRelayLatestWins(t *testing.T) {
	r := NewRelay()

	// N publishes with no intervening take: only the newest survives.
	frames := make([]*dsp.Frame, 5)
	for i := range frames {
		frames[i] = frameWithValue(8, float64(i))
		r.Publish(frames[i])
	}

	got, ok := r.Take()
	if !ok {
		t.Fatal("expected a frame after publishes")
	}
	if got != frames[len(frames)-1] {
		t.Errorf("expected the most recent frame, got value %f", got.Left[0])
	}

	// The slot is cleared on consumption.
	if _, ok := r.Take(); ok {
		t.Error("expected empty relay after take")
	}
}

func TestRelayConcurrentPublishTake(t *testing.T) {
	r := NewRelay()
	frame := frameWithValue(4, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Publish(frame)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if got, ok := r.Take(); ok && got != frame {
				t.Error("took an unexpected frame")
				return
			}
		}
	}()
	wg.Wait()
}
