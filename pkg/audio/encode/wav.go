// ABOUTME: WAV file writer
// ABOUTME: Writes rendered float32 buffers to RIFF/WAVE via go-audio/wav
package encode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag
const wavFormatPCM = 1

// WriteWAV encodes buf as integer PCM of the given bit depth (16 or 24)
func WriteWAV(w io.WriteSeeker, buf *audio.Buffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}
	if buf == nil || buf.Channels == 0 {
		return fmt.Errorf("cannot write empty buffer")
	}

	enc := wav.NewEncoder(w, buf.SampleRate, bitDepth, buf.Channels, wavFormatPCM)

	data := make([]int, len(buf.Data))
	for i, s := range buf.Data {
		data[i] = int(floatToInt(s, bitDepth))
	}

	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav finalize failed: %w", err)
	}
	return nil
}
