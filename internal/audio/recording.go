// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordingBitDepth = 16

// Recorder writes captured blocks to a 16-bit WAV file. Write is called
// from the capture goroutine; Close from the consumer side, so both are
// serialized by a mutex.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	closed  bool
}

// NewRecorder creates the output file and WAV encoder.
func NewRecorder(path string, sampleRate, channels, blockSize int) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, recordingBitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: recordingBitDepth,
			Data:           make([]int, blockSize*channels),
		},
	}, nil
}

// Write appends one interleaved float32 block, scaled to 16-bit samples.
func (r *Recorder) Write(block []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	// Block sizes can grow when the capture configuration changes.
	if len(block) > cap(r.buf.Data) {
		r.buf.Data = make([]int, len(block))
	}
	r.buf.Data = r.buf.Data[:len(block)]
	for i, s := range block {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.buf.Data[i] = int(s * 32767)
	}
	return r.encoder.Write(r.buf)
}

// Close finalizes the WAV header and closes the file. Idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.encoder.Close(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}
