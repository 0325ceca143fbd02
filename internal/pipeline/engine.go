// SPDX-License-Identifier: MIT

// Package pipeline connects capture to consumption: the latest-wins
// relay, the rolling history buffer, the reconfiguration controller, and
// the timer-driven consumer engine.
package pipeline

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"spectro/internal/config"
	"spectro/internal/dsp"
	"spectro/internal/log"
)

// FrameSink receives each consumed frame, e.g. a WebSocket broadcaster.
type FrameSink interface {
	Send(*dsp.Frame) error
}

// Engine is the consumer cadence: a fixed-interval tick that drains the
// relay, advances history, retains the latest frame, and forwards worker
// failures. All controller transitions run through the engine, so the
// mutex confines history, derived vectors, and configuration to one
// logical context.
type Engine struct {
	mu   sync.Mutex
	ctrl *Controller
	sink FrameSink

	latest    *dsp.Frame
	lastError error

	// onFailure, when set, is invoked (outside the blocking path of the
	// capture goroutine) after a worker dies with a fatal stream error.
	onFailure func(error)

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewEngine creates an engine over the controller. sink may be nil.
func NewEngine(ctrl *Controller, sink FrameSink) *Engine {
	return &Engine{
		ctrl: ctrl,
		sink: sink,
		stop: make(chan struct{}),
	}
}

// OnFailure registers a non-blocking notification callback for fatal
// capture errors. Must be called before Run.
func (e *Engine) OnFailure(fn func(error)) {
	e.onFailure = fn
}

// Run starts the tick loop at the configured update interval.
func (e *Engine) Run() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(config.UpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-e.stop:
				return
			}
		}
	}()
}

// Tick performs one consumer step: poll the worker for asynchronous
// failure, drain the relay, advance history. Exported so tests can drive
// the cadence directly.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ctrl.PollWorker(); err != nil {
		// Fatal worker error: the controller is already stopped and
		// restartable. Surface once, never auto-retry.
		e.lastError = err
		log.Errorf("capture stopped: %v", err)
		if e.onFailure != nil {
			e.onFailure(err)
		}
	}

	frame, ok := e.ctrl.Relay().Take()
	if !ok {
		return
	}
	// A frame published under an old shape can race a reconfiguration
	// by one tick; drop it rather than corrupt the history.
	if frame.Bins() != e.ctrl.History().Bins() {
		return
	}

	e.ctrl.History().Advance(frame)
	e.latest = frame

	if e.sink != nil {
		if err := e.sink.Send(frame); err != nil {
			log.Debugf("frame sink send: %v", err)
		}
	}
}

// Close stops the tick loop and capture. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.stop)
		e.wg.Wait()

		e.mu.Lock()
		defer e.mu.Unlock()
		e.ctrl.StopCapture()
	})
}

// StartCapture starts the capture worker with the current configuration.
func (e *Engine) StartCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.StartCapture()
}

// StopCapture stops the capture worker and joins it.
func (e *Engine) StopCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.StopCapture()
}

// Apply submits a configuration request to the controller. A
// restart-requiring change invalidates the retained frame, whose shape
// no longer matches the frequency axis.
func (e *Engine) Apply(next config.Settings) (Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	applied, err := e.ctrl.Apply(next)
	if applied.RestartRequired {
		e.latest = nil
	}
	return applied, err
}

// LatestFrame returns the most recently consumed frame, if any.
func (e *Engine) LatestFrame() (*dsp.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return nil, false
	}
	return e.latest, true
}

// Snapshot returns copies of the two history matrices and the current
// frequency axis for rendering.
func (e *Engine) Snapshot() (left, right *mat.Dense, freqs []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	left, right = e.ctrl.History().Snapshot()
	return left, right, e.ctrl.FrequencyAxis()
}

// LastError returns the most recent fatal capture error, if any.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}
