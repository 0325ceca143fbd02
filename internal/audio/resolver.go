// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"strings"

	"spectro/internal/log"
)

// trialBlockSize caps the block used for trial captures so probing stays
// fast on large configured transform sizes.
const trialBlockSize = 1024

// Resolver discovers a usable loopback device by trial-opening
// candidates. It owns the selected Device for the process lifetime;
// re-resolution happens only after a fatal stream error.
type Resolver struct {
	host        Host
	defaultRate int
}

// NewResolver creates a Resolver probing at the given default sample rate.
func NewResolver(host Host, defaultRate int) *Resolver {
	return &Resolver{host: host, defaultRate: defaultRate}
}

// Resolve selects one usable loopback device, or fails with
// ErrNoDeviceFound wrapped with platform guidance.
//
// Order: the default output's loopback path first, accepted when it has
// at least two channels and a trial capture delivers data; then every
// loopback-flagged or name-matched input source, stereo candidates
// preferred, the first working mono candidate accepted with a degraded
// mode warning.
func (r *Resolver) Resolve() (*Device, error) {
	log.Infof("searching for a loopback capture device...")

	if dev, err := r.host.DefaultLoopbackDevice(); err == nil {
		if dev.Channels >= 2 && r.trialCapture(dev) {
			log.Infof("default output loopback %q usable at %d Hz", dev.Name, r.defaultRate)
			return dev, nil
		}
	} else {
		log.Debugf("default output loopback probe: %v", err)
	}

	devices, err := r.host.CaptureDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v\n\n%s", ErrNoDeviceFound, err, PlatformGuidance())
	}

	var firstMono *Device
	seen := make(map[int]bool)
	for _, dev := range devices {
		if !dev.IsLoopback || seen[dev.ID] {
			continue
		}
		seen[dev.ID] = true

		if !r.trialCapture(dev) {
			continue
		}
		if dev.Channels >= 2 {
			log.Infof("selected stereo loopback device %q", dev.Name)
			return dev, nil
		}
		if firstMono == nil {
			firstMono = dev
		}
	}

	if firstMono != nil {
		log.Warnf("only a mono loopback device is available: %q; the single channel will be duplicated into both visual channels", firstMono.Name)
		return firstMono, nil
	}

	return nil, fmt.Errorf("%w\n\n%s", ErrNoDeviceFound, PlatformGuidance())
}

// ResolveNamed selects a capture device by name, matched
// case-insensitively as a substring, and verifies it with a trial
// capture. Unlike Resolve it considers non-loopback sources too, so an
// explicitly configured microphone works.
func (r *Resolver) ResolveNamed(name string) (*Device, error) {
	devices, err := r.host.CaptureDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceFound, err)
	}

	want := strings.ToLower(name)
	for _, dev := range devices {
		if !strings.Contains(strings.ToLower(dev.Name), want) {
			continue
		}
		if !r.trialCapture(dev) {
			return nil, fmt.Errorf("%w: device %q matched but failed a trial capture at %d Hz",
				ErrNoDeviceFound, dev.Name, r.defaultRate)
		}
		log.Infof("selected configured device %q", dev.Name)
		return dev, nil
	}
	return nil, fmt.Errorf("%w: no capture device matches %q", ErrNoDeviceFound, name)
}

// trialCapture opens dev at the default rate and requires one read that
// delivers data. An unsupported-rate failure skips the candidate
// silently; any other failure is logged and skipped, never fatal.
func (r *Resolver) trialCapture(dev *Device) bool {
	block := trialBlockSize
	stream, err := r.host.Open(dev, float64(r.defaultRate), dev.Channels, block)
	if err != nil {
		if errors.Is(err, ErrUnsupportedSampleRate) {
			log.Debugf("rate %d Hz not supported by %q", r.defaultRate, dev.Name)
		} else {
			log.Debugf("trial open failed for %q: %v", dev.Name, err)
		}
		return false
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Debugf("trial stream close on %q: %v", dev.Name, err)
		}
	}()

	buf := make([]float32, block*dev.Channels)
	n, err := stream.Read(buf)
	if err != nil {
		log.Debugf("trial read failed for %q: %v", dev.Name, err)
		return false
	}
	if n == 0 {
		log.Debugf("trial capture on %q returned no data", dev.Name)
		return false
	}

	dev.KnownGoodRates = append(dev.KnownGoodRates, r.defaultRate)
	log.Debugf("device %q verified at %d Hz", dev.Name, r.defaultRate)
	return true
}
