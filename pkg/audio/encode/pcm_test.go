// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests 16-bit and 24-bit PCM encoding
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid 16-bit PCM",
			format:  audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16},
			wantErr: false,
		},
		{
			name:    "valid 24-bit PCM",
			format:  audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24},
			wantErr: false,
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
		{
			name:        "unsupported bit depth",
			format:      audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 32},
			wantErr:     true,
			errContains: "unsupported bit depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewPCM() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("NewPCM() unexpected error = %v", err)
			}
			if encoder == nil {
				t.Errorf("NewPCM() returned nil encoder")
			}
		})
	}
}

func TestPCMEncoder_Encode16Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	samples := []float32{0, 1, -1, 0.5, 3}
	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	// Check output size: 2 bytes per sample for 16-bit
	if len(output) != len(samples)*2 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(samples)*2)
	}

	want := []int16{0, 32767, -32767, 16383, 32767}
	for i := range want {
		actual := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if actual != want[i] {
			t.Errorf("Sample %d: got %d, want %d", i, actual, want[i])
		}
	}
}

func TestPCMEncoder_Encode24Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	samples := []float32{0, 0.5, -1}
	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	// Check output size: 3 bytes per sample for 24-bit
	if len(output) != len(samples)*3 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(samples)*3)
	}

	want := [][3]byte{
		{0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0x3F}, // 0x3FFFFF
		{0x01, 0x00, 0x80}, // -0x7FFFFF
	}
	for i := range want {
		actual := [3]byte{output[i*3], output[i*3+1], output[i*3+2]}
		if actual != want[i] {
			t.Errorf("Sample %d: got %v, want %v", i, actual, want[i])
		}
		if got := audio.SampleFrom24Bit(actual); got != floatToInt(samples[i], 24) {
			t.Errorf("Sample %d: round trip gave %d", i, got)
		}
	}
}

func TestPCMEncoder_Close(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	if err := encoder.Close(); err != nil {
		t.Errorf("Close() unexpected error = %v", err)
	}
}
