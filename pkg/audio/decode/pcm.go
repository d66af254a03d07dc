// ABOUTME: PCM audio decoder
// ABOUTME: Decodes raw 16-bit and 24-bit little-endian PCM to float32 buffers
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

// PCMDecoder decodes headerless PCM audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "pcm", "PCM"); err != nil {
		return nil, err
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("PCM decoder needs sample rate and channels, got %dHz/%dch", format.SampleRate, format.Channels)
	}

	return &PCMDecoder{format: format}, nil
}

// Decode reads all PCM bytes from r
func (d *PCMDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pcm read failed: %w", err)
	}
	return d.DecodeBytes(data)
}

// DecodeBytes converts PCM bytes to float32 samples
func (d *PCMDecoder) DecodeBytes(data []byte) (*audio.Buffer, error) {
	var samples []float32

	if d.format.BitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		numSamples := len(data) / 3
		samples = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.Int24ToFloat(audio.SampleFrom24Bit(b))
		}
	} else {
		// 16-bit PCM: 2 bytes per sample
		numSamples := len(data) / 2
		samples = make([]float32, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
	}

	// Drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%d.format.Channels]
	if len(samples) == 0 {
		return nil, ErrEmptyStream
	}

	return audio.NewBuffer(d.format.SampleRate, d.format.Channels, samples), nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
