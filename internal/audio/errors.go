// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrNoDeviceFound is returned by Resolver.Resolve when no candidate
// passes a trial capture. It is terminal at startup; the wrapped message
// carries platform remediation guidance.
var ErrNoDeviceFound = errors.New("no suitable audio loopback device found")

// ErrUnsupportedSampleRate marks a stream-open failure caused by the
// requested rate. The resolver treats it as a silent skip to the next
// candidate rather than a reportable failure.
var ErrUnsupportedSampleRate = errors.New("unsupported sample rate")

// StreamOpenError reports a failure to open a capture stream. It is fatal
// for the capture attempt and propagated before the worker loop starts.
type StreamOpenError struct {
	Device string
	Err    error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("failed to open capture stream on %q: %v", e.Device, e.Err)
}

func (e *StreamOpenError) Unwrap() error { return e.Err }

// StreamReadError reports a fatal failure of the blocking read loop.
// Underruns are not read errors; they are retried with backoff inside the
// worker and never surface here.
type StreamReadError struct {
	Device string
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("capture stream read failed on %q: %v", e.Device, e.Err)
}

func (e *StreamReadError) Unwrap() error { return e.Err }

// PlatformGuidance returns remediation text for the current OS, shown
// when no loopback device can be resolved.
func PlatformGuidance() string {
	switch runtime.GOOS {
	case "windows":
		return "Enable 'Stereo Mix' in the Windows sound control panel (Recording tab,\n" +
			"show disabled devices), or install a virtual loopback driver such as\n" +
			"VB-Cable. WASAPI loopback devices appear as '<output name> (loopback)'."
	case "darwin":
		return "macOS has no built-in loopback capture. Install a virtual device such\n" +
			"as BlackHole and route system output through it, then select it as the\n" +
			"capture source."
	case "linux":
		return "On PulseAudio/PipeWire systems, capture from the 'Monitor of ...'\n" +
			"source of your output device. Run 'pactl list sources' to verify a\n" +
			"monitor source exists, or enable one with pavucontrol."
	default:
		return "No loopback-capable capture source was found. Install or enable a\n" +
			"driver that exposes the system output mix as a recording device."
	}
}
