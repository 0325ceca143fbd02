// SPDX-License-Identifier: MIT
package pipeline

import (
	"sync"

	"spectro/internal/dsp"
)

// Relay is a single-slot, latest-wins mailbox between the capture
// goroutine and the consumer tick. Publish unconditionally overwrites any
// unread frame; a slow consumer skips intermediate frames, a fast one
// observes empty ticks. This is the only mutable state shared across the
// capture boundary.
type Relay struct {
	mu     sync.Mutex
	frame  *dsp.Frame
	unread bool
}

// NewRelay returns an empty relay.
func NewRelay() *Relay {
	return &Relay{}
}

// Publish stores the frame, replacing any unread one. Producer side only;
// never blocks on the consumer.
func (r *Relay) Publish(frame *dsp.Frame) {
	r.mu.Lock()
	r.frame = frame
	r.unread = true
	r.mu.Unlock()
}

// Take returns the stored frame and clears the slot. The second return
// is false when no unread frame is present.
func (r *Relay) Take() (*dsp.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.unread {
		return nil, false
	}
	frame := r.frame
	r.frame = nil
	r.unread = false
	return frame, true
}
