// ABOUTME: Tests for decoder selection
// ABOUTME: Tests extension lookup and codec validation for every decoder
package decode

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

func TestCodecForPath(t *testing.T) {
	tests := []struct {
		path  string
		codec string
	}{
		{"sounds/click.wav", "wav"},
		{"sounds/Ambient.MP3", "mp3"},
		{"music/lobby.ogg", "vorbis"},
		{"music/win.flac", "flac"},
		{"voice/dealer.opus", "opus"},
		{"raw/tone.pcm", "pcm"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			codec, err := CodecForPath(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if codec != tt.codec {
				t.Errorf("expected %s, got %s", tt.codec, codec)
			}
		})
	}
}

func TestCodecForPathUnsupported(t *testing.T) {
	_, err := CodecForPath("sounds/click.aiff")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestConstructorsRejectWrongCodec(t *testing.T) {
	tests := []struct {
		name     string
		ctor     func(audio.Format) (Decoder, error)
		expected string
	}{
		{"wav", NewWAV, "invalid codec for WAV decoder: mp3"},
		{"mp3", NewMP3, "invalid codec for MP3 decoder: mp3x"},
		{"vorbis", NewVorbis, "invalid codec for Vorbis decoder: mp3"},
		{"flac", NewFLAC, "invalid codec for FLAC decoder: mp3"},
		{"opus", NewOpus, "invalid codec for Opus decoder: mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := "mp3"
			if tt.name == "mp3" {
				codec = "mp3x"
			}
			_, err := tt.ctor(audio.Format{Codec: codec})
			if err == nil {
				t.Fatal("expected error for invalid codec")
			}
			if err.Error() != tt.expected {
				t.Errorf("expected error %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestForPathPicksDecoder(t *testing.T) {
	dec, err := ForPath("a/b/c.flac", audio.Format{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dec.(*FLACDecoder); !ok {
		t.Errorf("expected *FLACDecoder, got %T", dec)
	}

	dec, err = ForPath("a.opus", audio.Format{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if od := dec.(*OpusDecoder); od.channels != 2 {
		t.Errorf("expected opus to default to stereo, got %d", od.channels)
	}
}

func TestNewOpusRejectsSurround(t *testing.T) {
	if _, err := NewOpus(audio.Format{Codec: "opus", Channels: 6}); err == nil {
		t.Fatal("expected error for 6-channel opus")
	}
}
