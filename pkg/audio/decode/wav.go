// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE assets via go-audio/wav
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/go-audio/wav"
)

// ErrNotWavFile is returned when the RIFF header is missing or invalid
var ErrNotWavFile = errors.New("not a valid WAV file")

// WAVDecoder decodes WAV files of any integer bit depth
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "wav", "WAV"); err != nil {
		return nil, err
	}
	return &WAVDecoder{}, nil
}

// Decode reads a complete WAV file from r
func (d *WAVDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	// go-audio/wav needs to seek between chunks
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("wav read failed: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode failed: %w", err)
	}
	if pcm == nil || pcm.Format == nil || len(pcm.Data) == 0 {
		return nil, ErrEmptyStream
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = audio.IntToFloat(int32(v), bitDepth)
	}

	return audio.NewBuffer(pcm.Format.SampleRate, pcm.Format.NumChannels, samples), nil
}

// Close releases resources
func (d *WAVDecoder) Close() error {
	return nil
}
