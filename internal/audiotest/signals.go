// ABOUTME: Deterministic test signals shared by package tests
// ABOUTME: Sines, impulses, seeded noise and level helpers
package audiotest

import (
	"math"
	"math/rand/v2"
)

// Sine returns n samples of amp*sin(2*pi*freq*t + phase)
func Sine(freq, amp, sampleRate float64, n int, phase float64) []float32 {
	out := make([]float32, n)
	w := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = float32(amp * math.Sin(w*float64(i)+phase))
	}
	return out
}

// Impulse returns n zeros with a unit sample at index at
func Impulse(n, at int) []float32 {
	out := make([]float32, n)
	if at >= 0 && at < n {
		out[at] = 1
	}
	return out
}

// Noise returns n uniform samples in [-amp, amp) from a fixed seed
func Noise(seed uint64, amp float64, n int) []float32 {
	r := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * (2*r.Float64() - 1))
	}
	return out
}

// Constant returns n samples of value v
func Constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Negate returns a sign-inverted copy
func Negate(in []float32) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = -v
	}
	return out
}

// Interleave builds a stereo buffer from two channels of equal length
func Interleave(left, right []float32) []float32 {
	out := make([]float32, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}

// RMS returns the root mean square level
func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// Peak returns the largest absolute sample
func Peak(buf []float32) float64 {
	var peak float64
	for _, s := range buf {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak
}
