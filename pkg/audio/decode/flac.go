// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC assets frame by frame via mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "flac", "FLAC"); err != nil {
		return nil, err
	}
	return &FLACDecoder{}, nil
}

// Decode parses every frame and interleaves the subframes
func (d *FLACDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	if channels == 0 {
		return nil, ErrEmptyStream
	}

	samples := make([]float32, 0, int(stream.Info.NSamples)*channels)
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		n := len(f.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.IntToFloat(f.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	if len(samples) == 0 {
		return nil, ErrEmptyStream
	}

	return audio.NewBuffer(int(stream.Info.SampleRate), channels, samples), nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}
