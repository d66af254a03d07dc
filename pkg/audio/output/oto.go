// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls float32 blocks from a Renderer through a persistent oto player
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	reader     *renderReader
	sampleRate int
	channels   int
	suspended  bool
	closed     bool
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int, src Renderer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	// oto only allows one context per process
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.WithFields(map[string]interface{}{
				"from": fmt.Sprintf("%dHz/%dch", o.sampleRate, o.channels),
				"to":   fmt.Sprintf("%dHz/%dch", sampleRate, channels),
			}).Warn("oto does not support reinitialization, keeping existing context")
		}
		o.reader.setSource(src)
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.reader = newRenderReader(channels, src)
	o.player = o.otoCtx.NewPlayer(o.reader)
	o.player.Play()

	log.WithFields(map[string]interface{}{
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("audio output initialized (oto)")

	return nil
}

// Suspend pauses the device
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return ErrNotOpen
	}
	if o.suspended {
		return nil
	}
	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	o.suspended = true
	return nil
}

// Resume restarts the device
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return ErrNotOpen
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	o.suspended = false
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.WithError(err).Warn("oto player close error")
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		// The context itself cannot be destroyed; park it
		if err := o.otoCtx.Suspend(); err != nil {
			log.WithError(err).Warn("oto context suspend error")
		}
	}
	return nil
}

// renderReader adapts a Renderer to the io.Reader oto pulls from
type renderReader struct {
	mu       sync.Mutex
	src      Renderer
	channels int
	scratch  []float32
}

func newRenderReader(channels int, src Renderer) *renderReader {
	return &renderReader{
		src:      src,
		channels: channels,
		// Sized for oto's typical request; grown once if needed
		scratch: make([]float32, 4096),
	}
}

func (r *renderReader) setSource(src Renderer) {
	r.mu.Lock()
	r.src = src
	r.mu.Unlock()
}

// Read renders exactly len(p)/4 samples, rounded down to whole frames
func (r *renderReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := 4 * r.channels
	n := (len(p) / frameBytes) * r.channels
	if n == 0 {
		return 0, nil
	}
	if len(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	block := r.scratch[:n]

	if r.src != nil {
		r.src.Render(block)
	} else {
		clear(block)
	}
	clampBlock(block)

	for i, s := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
