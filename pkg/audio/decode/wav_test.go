// ABOUTME: Tests for WAV decoder
// ABOUTME: Round-trips generated PCM through go-audio/wav
package decode

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestWAVDecode(t *testing.T) {
	path := writeTestWAV(t, 44100, 2, []int{16384, -16384, 0, 32767})

	decoder, err := NewWAV(audio.Format{Codec: "wav"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	buf, err := decoder.Decode(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.SampleRate != 44100 || buf.Channels != 2 {
		t.Errorf("unexpected layout %dHz/%dch", buf.SampleRate, buf.Channels)
	}
	if buf.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", buf.Frames())
	}
	if buf.Data[0] != 0.5 || buf.Data[1] != -0.5 {
		t.Errorf("expected [0.5 -0.5 ...], got %v", buf.Data)
	}
}

func TestWAVDecodeFromPlainReader(t *testing.T) {
	path := writeTestWAV(t, 8000, 1, []int{100, 200, 300})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	decoder, _ := NewWAV(audio.Format{Codec: "wav"})

	// bytes.Buffer is not a ReadSeeker
	buf, err := decoder.Decode(bytes.NewBuffer(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if buf.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", buf.Frames())
	}
}

func TestWAVDecodeRejectsGarbage(t *testing.T) {
	decoder, _ := NewWAV(audio.Format{Codec: "wav"})

	_, err := decoder.Decode(bytes.NewReader([]byte("definitely not a riff file")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("expected ErrNotWavFile, got %v", err)
	}
}
