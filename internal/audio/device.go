// SPDX-License-Identifier: MIT
package audio

// Device identifies one capture-capable audio source. A Device is
// immutable once resolved; the capture worker references it but never
// mutates it.
type Device struct {
	ID                int
	Name              string
	Channels          int
	DefaultSampleRate float64

	// IsLoopback is set when the host flags the source as a loopback of
	// an output, or its name matches the known monitor conventions.
	IsLoopback bool

	// KnownGoodRates holds sample rates a trial capture has verified.
	KnownGoodRates []int
}

// SupportsRate reports whether rate has been verified by a trial capture.
func (d *Device) SupportsRate(rate int) bool {
	for _, r := range d.KnownGoodRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Stream is one open capture connection. Read blocks until the device
// delivers data, fills dst with interleaved float32 frames, and returns
// the number of whole frames written. A short or zero count signals a
// recoverable underrun, not an error.
type Stream interface {
	Read(dst []float32) (int, error)
	Close() error
}

// Host abstracts the device capability surface: enumeration, default
// loopback lookup, and stream opening. The production implementation is
// PortAudio-backed; tests inject fakes.
type Host interface {
	// DefaultLoopbackDevice returns the loopback path of the default
	// output device, if the host exposes one.
	DefaultLoopbackDevice() (*Device, error)

	// CaptureDevices enumerates all input-capable sources.
	CaptureDevices() ([]*Device, error)

	// Open opens a capture stream on dev at the given rate, channel
	// count, and block size (frames per read).
	Open(dev *Device, sampleRate float64, channels, blockSize int) (Stream, error)
}
