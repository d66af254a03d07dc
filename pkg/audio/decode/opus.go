// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Ogg Opus assets to float32 samples via libopusfile
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// opusRate is the fixed output rate of libopusfile
const opusRate = 48000

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct {
	channels int
}

// NewOpus creates a new Opus decoder.
// The stream API does not report the channel count, so format.Channels
// declares it (default stereo).
func NewOpus(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "opus", "Opus"); err != nil {
		return nil, err
	}

	channels := format.Channels
	if channels == 0 {
		channels = 2
	}
	if channels > 2 {
		return nil, fmt.Errorf("unsupported opus channel count: %d", channels)
	}

	return &OpusDecoder{channels: channels}, nil
}

// Decode reads the whole Ogg Opus stream
func (d *OpusDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	// 120ms is the largest opus frame
	chunk := make([]float32, 5760*d.channels)
	var samples []float32

	for {
		n, err := stream.ReadFloat32(chunk)
		if n > 0 {
			samples = append(samples, chunk[:n*d.channels]...)
		}
		if err == io.EOF || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
	}

	if len(samples) == 0 {
		return nil, ErrEmptyStream
	}

	return audio.NewBuffer(opusRate, d.channels, samples), nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
