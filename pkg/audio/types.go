// ABOUTME: Audio type definitions
// ABOUTME: Defines formats, decoded sample buffers and sample conversions
package audio

import (
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an encoded or decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer is fully decoded PCM audio.
//
// Data holds interleaved float32 samples in [-1, 1]. A Buffer is immutable
// once published to the sample store; voices only ever read from it.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float32
}

// NewBuffer wraps interleaved samples in a Buffer
func NewBuffer(sampleRate, channels int, data []float32) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       data,
	}
}

// NewSilence creates a zeroed buffer of the given duration
func NewSilence(sampleRate, channels int, d time.Duration) *Buffer {
	frames := int(d.Seconds() * float64(sampleRate))
	return NewBuffer(sampleRate, channels, make([]float32, frames*channels))
}

// Frames returns the number of sample frames
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback length at the buffer's native rate
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Frame returns sample ch of frame i. Mono buffers answer every channel.
func (b *Buffer) Frame(i, ch int) float32 {
	if b.Channels == 1 {
		return b.Data[i]
	}
	if ch >= b.Channels {
		ch = b.Channels - 1
	}
	return b.Data[i*b.Channels+ch]
}

// Mono returns the average of all channels in frame i
func (b *Buffer) Mono(i int) float32 {
	if b.Channels == 1 {
		return b.Data[i]
	}
	base := i * b.Channels
	var sum float32
	for c := 0; c < b.Channels; c++ {
		sum += b.Data[base+c]
	}
	return sum / float32(b.Channels)
}

// Peak returns the largest absolute sample value
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Data {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Int16ToFloat converts a 16-bit PCM sample to [-1, 1)
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768.0
}

// Int24ToFloat converts a sign-extended 24-bit sample to [-1, 1)
func Int24ToFloat(sample int32) float32 {
	return float32(sample) / 8388608.0
}

// FloatToInt16 clamps and scales a float sample to 16-bit PCM
func FloatToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// IntToFloat scales an integer sample of the given bit depth to [-1, 1)
func IntToFloat(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float32(float64(sample) / math.Ldexp(1, bitDepth-1))
}

// DBToGain converts decibels to a linear amplitude factor
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// GainToDB converts a linear amplitude to decibels, floored at -200 dB
func GainToDB(gain float64) float64 {
	if gain <= 1e-10 {
		return -200
	}
	return 20 * math.Log10(gain)
}
