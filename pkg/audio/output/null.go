// ABOUTME: Headless output that never touches a device
// ABOUTME: Used by tests, offline rendering and servers without sound hardware
package output

import (
	"sync"
)

// Null is an output without a device. It never pulls on its own;
// callers drive rendering through Pull.
type Null struct {
	mu         sync.Mutex
	src        Renderer
	sampleRate int
	channels   int
	opens      int
	suspended  bool
	closed     bool
}

// NewNull creates a headless output
func NewNull() *Null {
	return &Null{}
}

// Open records the renderer
func (n *Null) Open(sampleRate, channels int, src Renderer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	n.src = src
	n.sampleRate = sampleRate
	n.channels = channels
	n.opens++
	return nil
}

// Suspend marks the output suspended; Pull renders silence meanwhile
func (n *Null) Suspend() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.src == nil {
		return ErrNotOpen
	}
	n.suspended = true
	return nil
}

// Resume clears the suspended flag
func (n *Null) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.src == nil {
		return ErrNotOpen
	}
	n.suspended = false
	return nil
}

// Close detaches the renderer
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	n.src = nil
	return nil
}

// Pull renders one block into dst as a device callback would.
// It reports whether the renderer flagged clipping.
func (n *Null) Pull(dst []float32) bool {
	n.mu.Lock()
	src, suspended := n.src, n.suspended
	n.mu.Unlock()

	if src == nil || suspended {
		clear(dst)
		return false
	}
	return src.Render(dst)
}

// Opens returns how many times Open succeeded
func (n *Null) Opens() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.opens
}

// Suspended reports the suspend state
func (n *Null) Suspended() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.suspended
}

// Closed reports whether Close was called
func (n *Null) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// SampleRate returns the rate passed to Open
func (n *Null) SampleRate() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sampleRate
}
