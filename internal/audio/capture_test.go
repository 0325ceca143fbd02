// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spectro/internal/dsp"
)

type readResult struct {
	n   int
	err error
}

// scriptStream replays a fixed sequence of read outcomes, then delivers
// full blocks forever. A small sleep stands in for the blocking device.
type scriptStream struct {
	mu     sync.Mutex
	script []readResult

	closeCount atomic.Int32
}

func (s *scriptStream) Read(dst []float32) (int, error) {
	time.Sleep(time.Millisecond)

	s.mu.Lock()
	if len(s.script) > 0 {
		r := s.script[0]
		s.script = s.script[1:]
		s.mu.Unlock()
		return r.n, r.err
	}
	s.mu.Unlock()

	for i := range dst {
		dst[i] = 0.25
	}
	return len(dst) / 2, nil
}

func (s *scriptStream) Close() error {
	s.closeCount.Add(1)
	return nil
}

type scriptHost struct {
	stream  *scriptStream
	openErr error
}

func (h *scriptHost) DefaultLoopbackDevice() (*Device, error) { return nil, ErrNoDeviceFound }
func (h *scriptHost) CaptureDevices() ([]*Device, error)      { return nil, nil }

func (h *scriptHost) Open(dev *Device, sampleRate float64, channels, blockSize int) (Stream, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	return h.stream, nil
}

type countingPublisher struct {
	mu     sync.Mutex
	frames []*dsp.Frame
}

func (p *countingPublisher) Publish(frame *dsp.Frame) {
	p.mu.Lock()
	p.frames = append(p.frames, frame)
	p.mu.Unlock()
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func stereoDevice() *Device {
	return &Device{ID: 7, Name: "monitor", Channels: 2, IsLoopback: true}
}

func newTestProcessor(t *testing.T) *dsp.Processor {
	t.Helper()
	proc, err := dsp.NewProcessor(512, 44100)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}
	return proc
}

func waitDone(t *testing.T, w *Worker) error {
	t.Helper()
	select {
	case err := <-w.Done():
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("worker never delivered a terminal result")
		return nil
	}
}

func TestWorkerPublishesAndStopsCleanly(t *testing.T) {
	stream := &scriptStream{}
	host := &scriptHost{stream: stream}
	pub := &countingPublisher{}

	w := NewWorker(host, stereoDevice(), newTestProcessor(t), pub, nil)
	w.Start()

	deadline := time.After(2 * time.Second)
	for pub.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("worker never published frames")
		case <-time.After(time.Millisecond):
		}
	}

	w.Stop()
	if err := waitDone(t, w); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if got := stream.closeCount.Load(); got != 1 {
		t.Errorf("stream closed %d times, want 1", got)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if bins := pub.frames[0].Bins(); bins != 512/2+1 {
		t.Errorf("published frame has %d bins, want %d", bins, 512/2+1)
	}
}

func TestWorkerUnderrunIsRecoverable(t *testing.T) {
	stream := &scriptStream{script: []readResult{{n: 0}, {n: 0}, {n: 100}}}
	host := &scriptHost{stream: stream}
	pub := &countingPublisher{}

	w := NewWorker(host, stereoDevice(), newTestProcessor(t), pub, nil)
	w.Start()

	// Short and zero reads are skipped without publishing or dying; a
	// later full read still produces a frame.
	deadline := time.After(2 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never recovered from underruns")
		case <-time.After(time.Millisecond):
		}
	}

	w.Stop()
	if err := waitDone(t, w); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}

func TestWorkerOpenFailure(t *testing.T) {
	sentinel := errors.New("exclusive mode")
	host := &scriptHost{openErr: sentinel}

	w := NewWorker(host, stereoDevice(), newTestProcessor(t), &countingPublisher{}, nil)
	w.Start()

	err := waitDone(t, w)
	var openErr *StreamOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *StreamOpenError, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Error("open error should unwrap to the host failure")
	}
	if openErr.Device != "monitor" {
		t.Errorf("error names device %q, want monitor", openErr.Device)
	}
}

func TestWorkerReadFailure(t *testing.T) {
	sentinel := errors.New("device unplugged")
	stream := &scriptStream{script: []readResult{{n: 512}, {err: sentinel}}}
	host := &scriptHost{stream: stream}

	w := NewWorker(host, stereoDevice(), newTestProcessor(t), &countingPublisher{}, nil)
	w.Start()

	err := waitDone(t, w)
	var readErr *StreamReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *StreamReadError, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Error("read error should unwrap to the stream failure")
	}
	if got := stream.closeCount.Load(); got != 1 {
		t.Errorf("stream closed %d times, want 1", got)
	}

	// Exactly one terminal signal.
	select {
	case extra := <-w.Done():
		t.Errorf("unexpected second terminal result: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}
