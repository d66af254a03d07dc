// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all asset decoders plus extension lookup
package decode

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for asset extensions with no decoder
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyStream is returned when a stream decodes to zero frames
	ErrEmptyStream = errors.New("audio stream contains no samples")
)

// Decoder decodes a complete encoded asset into an immutable PCM buffer
type Decoder interface {
	// Decode reads r to the end and returns the decoded samples
	Decode(r io.Reader) (*audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}

// codecForExt maps file extensions to codec names
var codecForExt = map[string]string{
	".wav":  "wav",
	".wave": "wav",
	".mp3":  "mp3",
	".ogg":  "vorbis",
	".oga":  "vorbis",
	".flac": "flac",
	".opus": "opus",
	".pcm":  "pcm",
	".raw":  "pcm",
}

// CodecForPath returns the codec name for a resource path
func CodecForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	codec, ok := codecForExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return codec, nil
}

// New creates a decoder for the given format
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "wav":
		return NewWAV(format)
	case "mp3":
		return NewMP3(format)
	case "vorbis":
		return NewVorbis(format)
	case "flac":
		return NewFLAC(format)
	case "opus":
		return NewOpus(format)
	case "pcm":
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("%w: codec %q", ErrUnsupportedFormat, format.Codec)
	}
}

// ForPath creates a decoder chosen by the file extension of path.
// Raw PCM and Opus assets take their channel layout from hint.
func ForPath(path string, hint audio.Format) (Decoder, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}
	hint.Codec = codec
	return New(hint)
}

// DecodeFile opens, decodes and closes a single asset
func DecodeFile(open func(string) (io.ReadCloser, error), path string, hint audio.Format) (*audio.Buffer, error) {
	dec, err := ForPath(path, hint)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	f, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buf, nil
}

func checkCodec(format audio.Format, want, name string) error {
	if format.Codec != want {
		return fmt.Errorf("invalid codec for %s decoder: %s", name, format.Codec)
	}
	return nil
}
