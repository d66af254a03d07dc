// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-based playback backends
package output

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "output")

var (
	// ErrNotOpen is returned by Suspend/Resume before Open
	ErrNotOpen = errors.New("output not opened")
	// ErrClosed is returned when a closed output is reused
	ErrClosed = errors.New("output closed")
)

// Renderer produces the next block of interleaved float32 samples.
// It is called from the backend's audio goroutine or callback and must not
// block. The return value reports clipping and is informational only.
type Renderer interface {
	Render(dst []float32) bool
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(dst []float32) bool

// Render calls f(dst)
func (f RendererFunc) Render(dst []float32) bool {
	return f(dst)
}

// Output represents an audio output device
type Output interface {
	// Open initializes the device and starts pulling from src
	Open(sampleRate, channels int, src Renderer) error

	// Suspend pauses the device without releasing it
	Suspend() error

	// Resume restarts a suspended device; safe to retry
	Resume() error

	// Close releases output resources
	Close() error
}

// New returns the backend with the given name
func New(backend string) (Output, error) {
	switch backend {
	case "", "oto":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null":
		return NewNull(), nil
	default:
		return nil, errors.New("unknown output backend: " + backend)
	}
}

// clampBlock hard-limits samples to full scale before device conversion
func clampBlock(samples []float32) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}
