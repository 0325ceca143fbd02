// SPDX-License-Identifier: MIT
package pipeline

import (
	"errors"
	"sync/atomic"

	"spectro/internal/audio"
	"spectro/internal/config"
	"spectro/internal/dsp"
	"spectro/internal/log"
)

// State is the reconfiguration phase of the controller.
type State int

const (
	StateIdle State = iota
	StateStoppingForRestart
	StateReconfiguring
	StateStarting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStoppingForRestart:
		return "StoppingForRestart"
	case StateReconfiguring:
		return "Reconfiguring"
	case StateStarting:
		return "Starting"
	default:
		return "Unknown"
	}
}

// ErrReconfigurationInProgress rejects a configuration request that
// arrives while a stop/join/reshape sequence is underway. Requests are
// rejected, never queued.
var ErrReconfigurationInProgress = errors.New("reconfiguration already in progress")

// Applied reports the outcome of an accepted configuration request.
type Applied struct {
	// RestartRequired is set when the request changed the sample rate or
	// transform size and the derived state was rebuilt.
	RestartRequired bool

	// Restarted is set when capture was running before the request and a
	// new worker was spawned with the new configuration.
	Restarted bool
}

// Controller coordinates capture lifecycle and derived-state
// recomputation when parameters change. All methods run on the consumer
// side; the only cross-goroutine interactions are the worker's stop flag
// and its terminal result, which the controller joins on before touching
// shape-dependent state.
type Controller struct {
	host     audio.Host
	device   *audio.Device
	relay    *Relay
	history  *History
	settings config.Settings

	proc     *dsp.Processor
	freqAxis []float64

	worker   *audio.Worker
	recorder *audio.Recorder
	running  bool

	state State
	busy  atomic.Bool
}

// NewController builds a controller for the resolved device with
// validated initial settings and freshly computed derived state.
func NewController(host audio.Host, device *audio.Device, settings config.Settings) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		host:     host,
		device:   device,
		relay:    NewRelay(),
		settings: settings,
		state:    StateIdle,
	}
	if err := c.rebuildDerivedState(); err != nil {
		return nil, err
	}
	return c, nil
}

// rebuildDerivedState recomputes the processor (window included), the
// frequency axis, and the history buffer shape from current settings.
func (c *Controller) rebuildDerivedState() error {
	proc, err := dsp.NewProcessor(c.settings.TransformSize, float64(c.settings.SampleRate))
	if err != nil {
		return err
	}
	c.proc = proc
	c.freqAxis = proc.FrequencyAxis()

	bins := c.settings.Bins()
	frames := c.settings.HistoryFrames()
	if c.history == nil {
		c.history = NewHistory(bins, frames, c.settings.SpecDBMin, c.settings.SpecDBMax, c.settings.SpecDBMin)
	} else {
		c.history.Reshape(bins, frames, c.settings.SpecDBMin)
		c.history.SetClampBounds(c.settings.SpecDBMin, c.settings.SpecDBMax)
	}

	// A frame produced under the old shape may still sit in the relay.
	c.relay.Take()

	log.Debugf("derived state rebuilt: rate=%d fft=%d bins=%d history=%d frames",
		c.settings.SampleRate, c.settings.TransformSize, bins, frames)
	return nil
}

// StartCapture spawns a worker with the current configuration. No-op if
// capture is already running.
func (c *Controller) StartCapture() {
	if c.running {
		return
	}
	c.worker = audio.NewWorker(c.host, c.device, c.proc, c.relay, c.recorder)
	c.worker.Start()
	c.running = true
}

// StopCapture signals the worker to stop and joins its terminal result.
// No-op if capture is not running.
func (c *Controller) StopCapture() {
	if !c.running {
		return
	}
	c.worker.Stop()
	if err := <-c.worker.Done(); err != nil {
		// The worker failed while we were stopping it anyway.
		log.Warnf("capture worker exited with error during stop: %v", err)
	}
	c.worker = nil
	c.running = false
}

// Apply validates and applies a configuration request.
//
// Cosmetic changes (scale, color map, dB bounds, headroom, verbosity,
// warning suppression) apply immediately. Restart-requiring changes
// (sample rate, transform size) stop the worker, join it, rebuild the
// frequency axis, window, and history shape, and restart capture only if
// it was running before the request. An identical configuration is a
// no-op. A request arriving during an in-flight sequence is rejected
// with ErrReconfigurationInProgress.
func (c *Controller) Apply(next config.Settings) (Applied, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Applied{}, ErrReconfigurationInProgress
	}
	defer c.busy.Store(false)

	if err := next.Validate(); err != nil {
		return Applied{}, err
	}

	if next == c.settings {
		log.Debugf("configuration unchanged, nothing to apply")
		return Applied{}, nil
	}

	if !config.RestartRequired(c.settings, next) {
		c.settings = next
		c.history.SetClampBounds(next.SpecDBMin, next.SpecDBMax)
		c.applyAmbientSettings()
		log.Debugf("cosmetic configuration applied")
		return Applied{}, nil
	}

	wasRunning := c.running
	if wasRunning {
		c.state = StateStoppingForRestart
		c.StopCapture()
	}

	if c.recorder != nil {
		// The WAV header carries the rate and sizing fixed at creation,
		// so a recording cannot span a capture format change.
		if err := c.recorder.Close(); err != nil {
			log.Warnf("recording close: %v", err)
		}
		c.recorder = nil
		log.Warnf("recording stopped: capture format changed")
	}

	c.state = StateReconfiguring
	prior := c.settings
	c.settings = next
	if err := c.rebuildDerivedState(); err != nil {
		// Validation already passed, so this indicates a programming
		// error; restore prior settings and report.
		c.settings = prior
		c.state = StateIdle
		return Applied{}, err
	}
	c.applyAmbientSettings()

	if wasRunning {
		c.state = StateStarting
		c.StartCapture()
	}
	c.state = StateIdle

	return Applied{RestartRequired: true, Restarted: wasRunning}, nil
}

func (c *Controller) applyAmbientSettings() {
	log.SetVerbose(c.settings.Verbose)
	log.SetSuppressDiscontinuity(c.settings.SuppressDiscontinuityWarnings)
}

// PollWorker checks, without blocking, whether the running worker has
// terminated on its own. A fatal stream error leaves the controller
// stopped and restartable; the error is returned once for surfacing.
func (c *Controller) PollWorker() error {
	if !c.running {
		return nil
	}
	select {
	case err := <-c.worker.Done():
		c.worker = nil
		c.running = false
		return err
	default:
		return nil
	}
}

// SetRecorder attaches a WAV recorder used by subsequently started
// workers. Pass nil to detach.
func (c *Controller) SetRecorder(rec *audio.Recorder) {
	c.recorder = rec
}

// Settings returns the live configuration.
func (c *Controller) Settings() config.Settings {
	return c.settings
}

// State returns the current reconfiguration phase.
func (c *Controller) State() State {
	return c.state
}

// Running reports whether a capture worker is active.
func (c *Controller) Running() bool {
	return c.running
}

// Relay returns the producer/consumer mailbox.
func (c *Controller) Relay() *Relay {
	return c.relay
}

// History returns the rolling spectrogram buffer.
func (c *Controller) History() *History {
	return c.history
}

// FrequencyAxis returns a copy of the bin center frequencies.
func (c *Controller) FrequencyAxis() []float64 {
	axis := make([]float64, len(c.freqAxis))
	copy(axis, c.freqAxis)
	return axis
}

// Device returns the resolved capture device.
func (c *Controller) Device() *audio.Device {
	return c.device
}
