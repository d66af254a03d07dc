// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversions, buffer helpers and vector math
package audio

import (
	"math"
	"testing"
	"time"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative one", [3]byte{0xFF, 0xFF, 0xFF}, -1},
		{"min", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestFloatToInt16Clamps(t *testing.T) {
	if got := FloatToInt16(2); got != math.MaxInt16 {
		t.Errorf("expected %d, got %d", math.MaxInt16, got)
	}
	if got := FloatToInt16(-2); got != -math.MaxInt16 {
		t.Errorf("expected %d, got %d", -math.MaxInt16, got)
	}
	if got := FloatToInt16(0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestBufferFramesAndDuration(t *testing.T) {
	buf := NewSilence(48000, 2, 100*time.Millisecond)

	if buf.Frames() != 4800 {
		t.Errorf("expected 4800 frames, got %d", buf.Frames())
	}
	if len(buf.Data) != 9600 {
		t.Errorf("expected 9600 samples, got %d", len(buf.Data))
	}
	if buf.Duration() != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", buf.Duration())
	}
}

func TestBufferMonoFrame(t *testing.T) {
	buf := NewBuffer(8000, 2, []float32{0.2, 0.4, -1, 1})

	if got := buf.Mono(0); math.Abs(float64(got-0.3)) > 1e-6 {
		t.Errorf("expected 0.3, got %v", got)
	}
	if got := buf.Frame(1, 1); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := buf.Peak(); got != 1 {
		t.Errorf("expected peak 1, got %v", got)
	}
}

func TestDBConversionsRoundTrip(t *testing.T) {
	for _, db := range []float64{-60, -6, 0, 6} {
		got := GainToDB(DBToGain(db))
		if math.Abs(got-db) > 1e-9 {
			t.Errorf("round trip %v dB gave %v", db, got)
		}
	}
	if GainToDB(0) != -200 {
		t.Errorf("expected floor of -200 dB for silence")
	}
}

func TestListenerRightAndYaw(t *testing.T) {
	l := DefaultListener()

	right := l.Right()
	if math.Abs(right.X-1) > 1e-12 || math.Abs(right.Y) > 1e-12 || math.Abs(right.Z) > 1e-12 {
		t.Errorf("expected right = +X, got %+v", right)
	}
	if l.Yaw() != 0 {
		t.Errorf("expected yaw 0, got %v", l.Yaw())
	}

	l.Forward = V3(1, 0, 0)
	if math.Abs(l.Yaw()-math.Pi/2) > 1e-12 {
		t.Errorf("expected yaw pi/2, got %v", l.Yaw())
	}
}

func TestVec3Ops(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	if a.Dot(b) != 32 {
		t.Errorf("expected dot 32, got %v", a.Dot(b))
	}
	if got := a.Cross(b); got != V3(-3, 6, -3) {
		t.Errorf("unexpected cross %+v", got)
	}
	if got := V3(3, 4, 0).Len(); got != 5 {
		t.Errorf("expected length 5, got %v", got)
	}
	if got := (Vec3{}).Normalize(); !got.IsZero() {
		t.Errorf("expected zero vector to stay zero")
	}
}
