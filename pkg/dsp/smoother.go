// ABOUTME: One-pole parameter smoother
// ABOUTME: Glides gains and positions toward a target without zipper noise
package dsp

import "math"

// Smoother moves a value exponentially toward its target
type Smoother struct {
	coef    float32
	value   float32
	target  float32
	epsilon float32
}

// NewSmoother creates a smoother reaching ~63% of a step in timeMs
func NewSmoother(sampleRate, timeMs float64, initial float32) *Smoother {
	s := &Smoother{value: initial, target: initial, epsilon: 1e-5}
	s.SetTime(sampleRate, timeMs)
	return s
}

// SetTime changes the time constant
func (s *Smoother) SetTime(sampleRate, timeMs float64) {
	if timeMs <= 0 {
		s.coef = 1
		return
	}
	s.coef = float32(1 - math.Exp(-1/(timeMs*0.001*sampleRate)))
}

// SetTarget sets the value to glide toward
func (s *Smoother) SetTarget(v float32) {
	s.target = v
}

// Reset jumps straight to v
func (s *Smoother) Reset(v float32) {
	s.value = v
	s.target = v
}

// Next advances one sample and returns the new value
func (s *Smoother) Next() float32 {
	if s.value == s.target {
		return s.value
	}
	next := s.value + (s.target-s.value)*s.coef
	d := s.target - next
	// float32 steps below half an ulp would stall short of the target
	if next == s.value || (d < s.epsilon && d > -s.epsilon) {
		next = s.target
	}
	s.value = next
	return s.value
}

// Advance moves n samples at once; equivalent to n calls to Next
func (s *Smoother) Advance(n int) float32 {
	if s.value == s.target || n <= 0 {
		return s.value
	}
	remain := float32(math.Pow(float64(1-s.coef), float64(n)))
	s.value = s.target + (s.value-s.target)*remain
	d := s.target - s.value
	if d < s.epsilon && d > -s.epsilon {
		s.value = s.target
	}
	return s.value
}

// Value returns the current value
func (s *Smoother) Value() float32 { return s.value }

// Target returns the target value
func (s *Smoother) Target() float32 { return s.target }

// Settled reports whether the value has reached its target
func (s *Smoother) Settled() bool { return s.value == s.target }
