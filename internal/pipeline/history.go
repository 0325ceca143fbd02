// SPDX-License-Identifier: MIT
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"spectro/internal/dsp"
)

// History is the rolling spectrogram buffer: one bins x frames matrix per
// channel, column 0 oldest, last column newest. It is owned exclusively
// by the consumer tick; Reshape runs only through the reconfiguration
// path, never concurrently with Advance.
type History struct {
	bins   int
	frames int
	dbMin  float64
	dbMax  float64
	left   *mat.Dense
	right  *mat.Dense
}

// NewHistory allocates a history buffer filled with fill.
func NewHistory(bins, frames int, dbMin, dbMax, fill float64) *History {
	h := &History{dbMin: dbMin, dbMax: dbMax}
	h.Reshape(bins, frames, fill)
	return h
}

// Advance shifts both matrices left by one column, discarding the oldest,
// and writes the frame's dB values clamped to [dbMin, dbMax] into the new
// last column.
func (h *History) Advance(frame *dsp.Frame) {
	h.advanceChannel(h.left, frame.Left)
	h.advanceChannel(h.right, frame.Right)
}

func (h *History) advanceChannel(m *mat.Dense, values []float64) {
	raw := m.RawMatrix()
	last := h.frames - 1
	for r := 0; r < h.bins; r++ {
		row := raw.Data[r*raw.Stride : r*raw.Stride+h.frames]
		copy(row[:last], row[1:])
		row[last] = clampDB(values[r], h.dbMin, h.dbMax)
	}
}

// Snapshot returns copies of the left and right matrices for rendering.
func (h *History) Snapshot() (*mat.Dense, *mat.Dense) {
	return mat.DenseCopyOf(h.left), mat.DenseCopyOf(h.right)
}

// Reshape reallocates both matrices at the new shape, filled with fill.
// All prior history is discarded.
func (h *History) Reshape(bins, frames int, fill float64) {
	if bins < 1 {
		bins = 1
	}
	if frames < 1 {
		frames = 1
	}
	h.bins = bins
	h.frames = frames
	h.left = filledDense(bins, frames, fill)
	h.right = filledDense(bins, frames, fill)
}

// SetClampBounds updates the dB clamp range used by Advance. Existing
// columns are left as written.
func (h *History) SetClampBounds(dbMin, dbMax float64) {
	h.dbMin = dbMin
	h.dbMax = dbMax
}

// Bins returns the row count of each channel matrix.
func (h *History) Bins() int { return h.bins }

// Frames returns the column count of each channel matrix.
func (h *History) Frames() int { return h.frames }

func filledDense(rows, cols int, fill float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = fill
	}
	return mat.NewDense(rows, cols, data)
}

func clampDB(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
