// ABOUTME: FFT spectrum analyzer with Hann window and exponential smoothing
// ABOUTME: Keeps a sliding input ring and recomputes magnitudes every half frame
package meter

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	spectrumFloorDB  = -120.0
	maxSmoothing     = 0.99
	minSpectrumSize  = 32
	maxSpectrumSize  = 32768
	spectrumEpsilon  = 1e-12
	defaultSmoothing = 0.8
)

// Spectrum analyzes the most recent Size() samples of a mono signal
type Spectrum struct {
	sampleRate float64
	size       int
	hop        int
	smoothing  float64

	plan       *algofft.Plan[complex128]
	window     []float64
	windowGain float64
	in         []complex128
	out        []complex128

	ring       []float64
	write      int
	filled     int
	sinceFrame int

	db    []float64
	ready bool
}

// NewSpectrum creates an analyzer. Size must be a power of two.
func NewSpectrum(sampleRate float64, size int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if size < minSpectrumSize || size > maxSpectrumSize || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTSize, size)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum fft plan: %w", err)
	}

	s := &Spectrum{
		sampleRate: sampleRate,
		size:       size,
		hop:        size / 2,
		smoothing:  defaultSmoothing,
		plan:       plan,
		window:     make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		ring:       make([]float64, size),
		db:         make([]float64, size/2+1),
	}

	// Periodic Hann
	var sum float64
	for i := range s.window {
		s.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
		sum += s.window[i]
	}
	s.windowGain = sum / float64(size)

	for i := range s.db {
		s.db[i] = spectrumFloorDB
	}
	return s, nil
}

// Size returns the FFT length
func (s *Spectrum) Size() int { return s.size }

// Bins returns the number of magnitude bins (Size/2 + 1)
func (s *Spectrum) Bins() int { return len(s.db) }

// SetSmoothing sets the averaging factor, clamped to [0, 0.99)
func (s *Spectrum) SetSmoothing(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if v >= maxSmoothing {
		v = math.Nextafter(maxSmoothing, 0)
	}
	s.smoothing = v
}

// Smoothing returns the averaging factor
func (s *Spectrum) Smoothing() float64 { return s.smoothing }

// Push appends samples, refreshing magnitudes every Size/2 samples once full
func (s *Spectrum) Push(samples []float32) {
	for _, x := range samples {
		s.push(float64(x))
	}
}

// PushStereo pushes the mid signal of a stereo block
func (s *Spectrum) PushStereo(left, right []float32) {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		s.push(float64(left[i]+right[i]) * 0.5)
	}
}

func (s *Spectrum) push(x float64) {
	s.ring[s.write] = x
	s.write++
	if s.write == s.size {
		s.write = 0
	}
	if s.filled < s.size {
		s.filled++
	}
	s.sinceFrame++
	if s.filled == s.size && s.sinceFrame >= s.hop {
		s.sinceFrame = 0
		s.analyze()
	}
}

func (s *Spectrum) analyze() {
	read := s.write
	for i := 0; i < s.size; i++ {
		s.in[i] = complex(s.ring[read]*s.window[i], 0)
		read++
		if read == s.size {
			read = 0
		}
	}
	if err := s.plan.Forward(s.out, s.in); err != nil {
		return
	}

	norm := float64(s.size) * s.windowGain
	last := len(s.db) - 1
	for k := 0; k <= last; k++ {
		mag := cmplx.Abs(s.out[k]) / norm
		if k > 0 && k < last {
			mag *= 2
		}
		db := math.Max(spectrumFloorDB, 20*math.Log10(math.Max(spectrumEpsilon, mag)))
		if !s.ready {
			s.db[k] = db
			continue
		}
		s.db[k] = s.smoothing*s.db[k] + (1-s.smoothing)*db
	}
	s.ready = true
}

// Ready reports whether at least one frame has been analyzed
func (s *Spectrum) Ready() bool { return s.ready }

// MagnitudesDB copies the current magnitudes in dBFS into dst, growing it if needed
func (s *Spectrum) MagnitudesDB(dst []float64) []float64 {
	if cap(dst) < len(s.db) {
		dst = make([]float64, len(s.db))
	}
	dst = dst[:len(s.db)]
	copy(dst, s.db)
	return dst
}

// PeakBin returns the loudest bin
func (s *Spectrum) PeakBin() int {
	best := 0
	for k, v := range s.db {
		if v > s.db[best] {
			best = k
		}
	}
	return best
}

// BinToFrequency returns the centre frequency of bin k
func (s *Spectrum) BinToFrequency(k int) float64 {
	return float64(k) * s.sampleRate / float64(s.size)
}

// FrequencyToBin returns the bin nearest to freq, clamped to the valid range
func (s *Spectrum) FrequencyToBin(freq float64) int {
	k := int(math.Round(freq * float64(s.size) / s.sampleRate))
	if k < 0 {
		return 0
	}
	if k >= len(s.db) {
		return len(s.db) - 1
	}
	return k
}

// Reset clears the input history and magnitudes
func (s *Spectrum) Reset() {
	clear(s.ring)
	s.write = 0
	s.filled = 0
	s.sinceFrame = 0
	s.ready = false
	for i := range s.db {
		s.db[i] = spectrumFloorDB
	}
}
