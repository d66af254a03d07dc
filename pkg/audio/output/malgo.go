// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with a float32 device callback
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	src        Renderer
	sampleRate int
	channels   int
	running    bool

	// Callback scratch, reused across callbacks
	scratch []float32
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{}
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels int, src Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels {
		log.Debug("audio output already initialized with same format, reusing device")
		m.src = src
		return nil
	}

	// If format changed, reinitialize
	if m.device != nil {
		log.Infof("format change detected (%dHz/%dch -> %dHz/%dch), reinitializing device",
			m.sampleRate, m.channels, sampleRate, channels)
		m.closeDevice()
	}

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	m.src = src
	m.channels = channels
	m.scratch = make([]float32, sampleRate/10*channels)

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	// Initialize device
	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	// Start device
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.sampleRate = sampleRate
	m.running = true

	log.WithFields(map[string]interface{}{
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("audio output initialized (malgo/F32)")

	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount) * m.channels
	if n > len(m.scratch) {
		// Larger period than planned; render in slices of the scratch
		for off := 0; off < n; off += len(m.scratch) {
			end := min(off+len(m.scratch), n)
			m.renderInto(pOutput[off*4:end*4], end-off)
		}
		return
	}
	m.renderInto(pOutput, n)
}

func (m *Malgo) renderInto(out []byte, n int) {
	block := m.scratch[:n]
	if m.src != nil {
		m.src.Render(block)
	} else {
		clear(block)
	}
	clampBlock(block)
	for i, s := range block {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
}

// Suspend stops the device without releasing it
func (m *Malgo) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if !m.running {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	m.running = false
	return nil
}

// Resume restarts a stopped device
func (m *Malgo) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if m.running {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.running = true
	return nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.WithError(err).Warn("malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.WithError(err).Warn("device stop error")
		}
		m.device.Uninit()
		m.device = nil
		m.running = false
	}
}
