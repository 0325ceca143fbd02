// SPDX-License-Identifier: MIT
package pipeline

import (
	"testing"
)

func TestHistoryChronologicalOrder(t *testing.T) {
	const (
		bins   = 4
		frames = 3
		dbMin  = -70.0
		dbMax  = 10.0
	)
	h := NewHistory(bins, frames, dbMin, dbMax, dbMin)

	// Advance five times with distinguishable values; only the last
	// three survive, ordered oldest to newest.
	for i := 0; i < 5; i++ {
		h.Advance(frameWithValue(bins, float64(i)))
	}

	left, right := h.Snapshot()
	for col := 0; col < frames; col++ {
		want := float64(2 + col) // values 2, 3, 4
		for r := 0; r < bins; r++ {
			if got := left.At(r, col); got != want {
				t.Fatalf("left[%d,%d] = %f, want %f", r, col, got, want)
			}
			if got := right.At(r, col); got != want {
				t.Fatalf("right[%d,%d] = %f, want %f", r, col, got, want)
			}
		}
	}
}

func TestHistoryClampsToBounds(t *testing.T) {
	h := NewHistory(2, 2, -70, 10, -70)

	h.Advance(frameWithValue(2, -200))
	h.Advance(frameWithValue(2, 100))

	left, _ := h.Snapshot()
	if got := left.At(0, 0); got != -70 {
		t.Errorf("under-floor value clamped to %f, want -70", got)
	}
	if got := left.At(0, 1); got != 10 {
		t.Errorf("over-ceiling value clamped to %f, want 10", got)
	}
}

func TestHistorySetClampBounds(t *testing.T) {
	h := NewHistory(1, 1, -70, 10, -70)
	h.SetClampBounds(-90, 20)

	h.Advance(frameWithValue(1, -85))
	left, _ := h.Snapshot()
	if got := left.At(0, 0); got != -85 {
		t.Errorf("value = %f, want -85 after widening bounds", got)
	}
}

func TestHistoryReshape(t *testing.T) {
	h := NewHistory(4, 3, -70, 10, -70)
	h.Advance(frameWithValue(4, 5))

	h.Reshape(9, 7, -70)
	if h.Bins() != 9 || h.Frames() != 7 {
		t.Fatalf("shape = (%d,%d), want (9,7)", h.Bins(), h.Frames())
	}

	// Prior history is discarded; every cell holds the fill value.
	left, right := h.Snapshot()
	rows, cols := left.Dims()
	if rows != 9 || cols != 7 {
		t.Fatalf("snapshot dims = (%d,%d), want (9,7)", rows, cols)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if left.At(r, c) != -70 || right.At(r, c) != -70 {
				t.Fatalf("cell (%d,%d) not reset to fill value", r, c)
			}
		}
	}
}

func TestHistoryMinimumShape(t *testing.T) {
	h := NewHistory(0, 0, -70, 10, -70)
	if h.Bins() != 1 || h.Frames() != 1 {
		t.Errorf("shape = (%d,%d), want (1,1)", h.Bins(), h.Frames())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h := NewHistory(2, 2, -70, 10, -70)
	left, _ := h.Snapshot()
	left.Set(0, 0, 99)

	fresh, _ := h.Snapshot()
	if fresh.At(0, 0) == 99 {
		t.Error("snapshot aliases the live history matrix")
	}
}
