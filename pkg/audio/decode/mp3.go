// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 assets to float32 stereo buffers via go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "mp3", "MP3"); err != nil {
		return nil, err
	}
	return &MP3Decoder{}, nil
}

// Decode converts a complete MP3 stream to float32 samples
func (d *MP3Decoder) Decode(r io.Reader) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo
	capacity := 0
	if l := decoder.Length(); l > 0 {
		capacity = int(l / 2)
	}
	samples := make([]float32, 0, capacity)

	buf := make([]byte, 8192)
	for {
		n, err := decoder.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			samples = append(samples, audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(buf[i:]))))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 decode error: %w", err)
		}
	}

	samples = samples[:len(samples)-len(samples)%2]
	if len(samples) == 0 {
		return nil, ErrEmptyStream
	}

	return audio.NewBuffer(decoder.SampleRate(), 2, samples), nil
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
