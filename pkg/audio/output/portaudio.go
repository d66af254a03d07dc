//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform float32 callback stream using PortAudio
package output

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	src     Renderer
	running bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(sampleRate, channels int, src Renderer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		p.src = src
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.src = src
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), 0, func(out []float32) {
		if p.src == nil {
			clear(out)
			return
		}
		p.src.Render(out)
		clampBlock(out)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	p.running = true

	log.WithFields(map[string]interface{}{
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("audio output initialized (portaudio)")
	return nil
}

// Suspend stops the stream
func (p *PortAudio) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	if !p.running {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	p.running = false
	return nil
}

// Resume restarts the stream
func (p *PortAudio) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	if p.running {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.running = true
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if p.running {
		if err := p.stream.Stop(); err != nil {
			return err
		}
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
