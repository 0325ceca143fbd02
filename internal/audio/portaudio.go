// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"spectro/internal/log"
)

// loopbackKeywords name-matches sources that mirror an output mix.
var loopbackKeywords = []string{"loopback", "stereo mix", "what u hear", "monitor"}

// portAudioHost implements Host on top of PortAudio. Initialize must have
// been called before any method is used.
type portAudioHost struct{}

// NewHost returns the PortAudio-backed device capability surface.
func NewHost() Host {
	return portAudioHost{}
}

func (portAudioHost) CaptureDevices() ([]*Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	devices := make([]*Device, 0, len(infos))
	for i, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, &Device{
			ID:                i,
			Name:              info.Name,
			Channels:          info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			IsLoopback:        nameMatchesLoopback(info.Name),
		})
	}
	return devices, nil
}

// DefaultLoopbackDevice looks for the capture-side mirror of the default
// output device. PortAudio has no loopback flag, so this matches the
// monitor naming conventions of the host APIs ("Monitor of X" on
// PulseAudio, "X (loopback)" on WASAPI).
func (h portAudioHost) DefaultLoopbackDevice() (*Device, error) {
	out, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("no default output device: %w", err)
	}

	devices, err := h.CaptureDevices()
	if err != nil {
		return nil, err
	}

	outName := strings.ToLower(out.Name)
	for _, d := range devices {
		name := strings.ToLower(d.Name)
		if strings.Contains(name, outName) && nameMatchesLoopback(d.Name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("default output %q has no loopback capture path", out.Name)
}

func (portAudioHost) Open(dev *Device, sampleRate float64, channels, blockSize int) (Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	if dev.ID < 0 || dev.ID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", dev.ID)
	}
	info := infos[dev.ID]

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultHighInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}

	s := &portAudioStream{
		device:    dev.Name,
		blockSize: blockSize,
		channels:  channels,
		buffer:    make([]float32, blockSize*channels),
	}
	stream, err := portaudio.OpenStream(params, s.buffer)
	if err != nil {
		if isUnsupportedRate(err) {
			return nil, fmt.Errorf("%w: %d Hz on %q", ErrUnsupportedSampleRate, int(sampleRate), dev.Name)
		}
		return nil, err
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		if isUnsupportedRate(err) {
			return nil, fmt.Errorf("%w: %d Hz on %q", ErrUnsupportedSampleRate, int(sampleRate), dev.Name)
		}
		return nil, err
	}
	return s, nil
}

// portAudioStream wraps a blocking-mode PortAudio input stream. The
// registered buffer is fixed at open time; Read copies it out so callers
// never alias PortAudio-owned memory.
type portAudioStream struct {
	device    string
	stream    *portaudio.Stream
	buffer    []float32
	blockSize int
	channels  int
}

func (s *portAudioStream) Read(dst []float32) (int, error) {
	if err := s.stream.Read(); err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			// Data discontinuity: the host dropped frames between reads.
			// The block just read is still valid.
			log.Discontinuityf("capture data discontinuity on %q", s.device)
		} else {
			return 0, err
		}
	}
	copy(dst, s.buffer)
	return s.blockSize, nil
}

func (s *portAudioStream) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil && !isStoppedStream(err) {
		_ = s.stream.Close()
		s.stream = nil
		return err
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

func nameMatchesLoopback(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range loopbackKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isUnsupportedRate(err error) bool {
	if errors.Is(err, portaudio.InvalidSampleRate) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "sample rate")
}

// isStoppedStream reports whether err stems from stopping an already
// stopped stream (PaErrorCode -9986).
func isStoppedStream(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "PaErrorCode -9986")
}
