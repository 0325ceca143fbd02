// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"
	"time"

	"spectro/internal/config"
	"spectro/internal/dsp"
	"spectro/internal/log"
)

// Publisher receives each spectral frame the worker produces. The
// pipeline's latest-wins relay satisfies this; Publish must never block.
type Publisher interface {
	Publish(*dsp.Frame)
}

// Worker owns one open capture stream and runs the blocking
// read-transform-publish loop on its own goroutine. Configuration is
// copied at construction; parameter changes replace the worker rather
// than mutating it. The stop flag is the only state the consumer writes
// across the goroutine boundary.
type Worker struct {
	host       Host
	device     *Device
	sampleRate float64
	blockSize  int
	channels   int
	proc       *dsp.Processor
	relay      Publisher
	recorder   *Recorder

	stopped atomic.Bool
	done    chan error
}

// NewWorker builds a worker for the device using the processor's
// transform size as the block size. recorder may be nil.
func NewWorker(host Host, device *Device, proc *dsp.Processor, relay Publisher, recorder *Recorder) *Worker {
	return &Worker{
		host:       host,
		device:     device,
		sampleRate: proc.SampleRate(),
		blockSize:  proc.FFTSize(),
		channels:   device.Channels,
		proc:       proc,
		relay:      relay,
		recorder:   recorder,
		done:       make(chan error, 1),
	}
}

// Start launches the capture loop. Exactly one terminal result arrives on
// Done(): nil after a cooperative stop, a *StreamOpenError or
// *StreamReadError on fatal failure.
func (w *Worker) Start() {
	go w.run()
}

// Stop requests a cooperative stop. The loop observes the flag between
// reads, so worst-case stop latency is one blocking-read duration.
func (w *Worker) Stop() {
	w.stopped.Store(true)
}

// Done delivers the worker's single terminal result.
func (w *Worker) Done() <-chan error {
	return w.done
}

func (w *Worker) run() {
	log.Debugf("capture worker starting (device=%q rate=%.0f block=%d channels=%d)",
		w.device.Name, w.sampleRate, w.blockSize, w.channels)

	stream, err := w.host.Open(w.device, w.sampleRate, w.channels, w.blockSize)
	if err != nil {
		w.done <- &StreamOpenError{Device: w.device.Name, Err: err}
		return
	}

	block := make([]float32, w.blockSize*w.channels)
	for !w.stopped.Load() {
		n, err := stream.Read(block)
		if err != nil {
			_ = stream.Close()
			w.done <- &StreamReadError{Device: w.device.Name, Err: err}
			return
		}
		if w.stopped.Load() {
			break
		}
		if n < w.blockSize {
			// Underrun: expected and recoverable, retry after a short
			// backoff without surfacing anything.
			time.Sleep(config.ReadBackoff)
			continue
		}

		w.relay.Publish(w.proc.Transform(block, w.channels))

		if w.recorder != nil {
			if err := w.recorder.Write(block); err != nil {
				log.Errorf("recording write failed: %v", err)
			}
		}
	}

	err = stream.Close()
	if err != nil {
		log.Warnf("capture stream close: %v", err)
	}
	log.Debugf("capture worker finished (device=%q)", w.device.Name)
	w.done <- nil
}
