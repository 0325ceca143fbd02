// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"syscall"

	"spectro/cmd"
	"spectro/internal/audio"
	"spectro/internal/log"
	"spectro/internal/pipeline"
	"spectro/internal/transport"
	"spectro/pkg/build"
)

// main wires the spectrogram pipeline together in three phases:
//
// 1. Startup: build info, PortAudio init, argument parsing, one-off
// commands, loopback device resolution.
//
// 2. Concurrent: the capture worker's blocking read loop on its own
// goroutine, and the timer-driven consumer engine draining the relay.
//
// 3. Shutdown: signal handling, cooperative capture stop, resource
// cleanup.
func main() {
	build.Initialize()

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	options, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}

	host := audio.NewHost()

	if options.Command == "list" {
		if err := audio.ListDevices(host); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}
	if options.Config == nil {
		// Help or version output already handled by the CLI.
		return
	}

	settings := options.Config.Settings
	log.SetVerbose(settings.Verbose)
	log.SetSuppressDiscontinuity(settings.SuppressDiscontinuityWarnings)

	resolver := audio.NewResolver(host, settings.SampleRate)
	var device *audio.Device
	if name := options.Config.Device.Name; name != "" {
		device, err = resolver.ResolveNamed(name)
	} else {
		device, err = resolver.Resolve()
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("selected device %q (%d channels) at %d Hz", device.Name, device.Channels, settings.SampleRate)

	controller, err := pipeline.NewController(host, device, settings)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if options.RecordPath != "" {
		recorder, err := audio.NewRecorder(options.RecordPath, settings.SampleRate,
			device.Channels, settings.BlockSize())
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer recorder.Close()
		controller.SetRecorder(recorder)
		log.Infof("recording raw capture to %s", options.RecordPath)
	}

	var sink pipeline.FrameSink
	if addr := options.Config.Transport.Listen; addr != "" {
		broadcaster := transport.NewBroadcaster(addr)
		defer broadcaster.Close()
		sink = broadcaster
	}

	engine := pipeline.NewEngine(controller, sink)
	engine.OnFailure(func(err error) {
		log.Errorf("capture stopped after stream failure; restart with new settings or fix the device: %v", err)
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	engine.StartCapture()
	engine.Run()

	<-done

	engine.Close()
}
