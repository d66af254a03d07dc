// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Ogg Vorbis assets via jfreymuth/oggvorbis
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis audio
type VorbisDecoder struct{}

// NewVorbis creates a new Vorbis decoder
func NewVorbis(format audio.Format) (Decoder, error) {
	if err := checkCodec(format, "vorbis", "Vorbis"); err != nil {
		return nil, err
	}
	return &VorbisDecoder{}, nil
}

// Decode reads the whole Ogg stream; oggvorbis already yields float32
func (d *VorbisDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis decode failed: %w", err)
	}
	if format == nil || format.Channels == 0 || len(samples) == 0 {
		return nil, ErrEmptyStream
	}

	return audio.NewBuffer(format.SampleRate, format.Channels, samples), nil
}

// Close releases decoder resources
func (d *VorbisDecoder) Close() error {
	return nil
}
