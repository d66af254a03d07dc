// ABOUTME: Tests for true peak, spectrum and correlation meters
// ABOUTME: Inter-sample peaks, bin placement and phase correlation extremes
package meter

import (
	"errors"
	"math"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/internal/audiotest"
)

func TestTruePeakFindsInterSamplePeak(t *testing.T) {
	tp, err := NewTruePeak(1)
	if err != nil {
		t.Fatalf("NewTruePeak: %v", err)
	}

	// A quarter-rate sine sampled at +-45 degrees never hits its crest
	sig := audiotest.Sine(12000, 1, 48000, 480, math.Pi/4)
	tp.Process(0, sig)

	if got := tp.SamplePeakDB(); math.Abs(got+3.01) > 0.01 {
		t.Errorf("expected sample peak -3.01 dB, got %v", got)
	}
	if got := tp.GetMaxPeakDB(); math.Abs(got) > 0.5 {
		t.Errorf("expected true peak near 0 dBTP, got %v", got)
	}
}

func TestTruePeakNeverUnderReports(t *testing.T) {
	tp, err := NewTruePeak(2)
	if err != nil {
		t.Fatalf("NewTruePeak: %v", err)
	}

	for seed := uint64(1); seed <= 20; seed++ {
		tp.Reset()
		left := audiotest.Noise(seed, 0.9, 256)
		right := audiotest.Noise(seed+100, 0.3, 256)
		tp.ProcessStereo(left, right)

		sample := 20 * math.Log10(math.Max(audiotest.Peak(left), audiotest.Peak(right)))
		if tp.GetMaxPeakDB() < sample-1e-9 {
			t.Fatalf("seed %d: true peak %v below sample peak %v", seed, tp.GetMaxPeakDB(), sample)
		}
		if tp.GetPeakDB(1) > tp.GetPeakDB(0) {
			t.Errorf("seed %d: expected louder left channel", seed)
		}
	}
}

func TestTruePeakChannelsAndReset(t *testing.T) {
	if _, err := NewTruePeak(0); !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("expected ErrInvalidChannels, got %v", err)
	}

	tp, err := NewTruePeak(2)
	if err != nil {
		t.Fatalf("NewTruePeak: %v", err)
	}
	tp.Process(1, audiotest.Constant(0.5, 64))
	if got := tp.GetPeakDB(5); got != MinDB {
		t.Errorf("expected MinDB for an unknown channel, got %v", got)
	}
	if tp.GetPeakDB(1) <= tp.GetPeakDB(0) {
		t.Error("expected only channel 1 to register")
	}

	tp.Reset()
	if tp.GetMaxPeakDB() != MinDB {
		t.Errorf("expected MinDB after reset, got %v", tp.GetMaxPeakDB())
	}
}

func TestSpectrumBinCentredSine(t *testing.T) {
	const (
		sr   = 48000
		size = 1024
		bin  = 32
	)
	s, err := NewSpectrum(sr, size)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	if s.Ready() {
		t.Fatal("expected no frame before the ring fills")
	}

	freq := s.BinToFrequency(bin)
	s.Push(audiotest.Sine(freq, 0.5, sr, 4*size, 0))
	if !s.Ready() {
		t.Fatal("expected a frame after filling the ring")
	}

	if got := s.PeakBin(); got != bin {
		t.Errorf("expected peak in bin %d, got %d", bin, got)
	}
	mags := s.MagnitudesDB(nil)
	if len(mags) != size/2+1 {
		t.Fatalf("expected %d bins, got %d", size/2+1, len(mags))
	}
	if want := 20 * math.Log10(0.5); math.Abs(mags[bin]-want) > 0.1 {
		t.Errorf("expected %v dB at the peak, got %v", want, mags[bin])
	}
	if mags[bin+8] > -100 {
		t.Errorf("expected leakage far from the peak to stay low, got %v", mags[bin+8])
	}
}

func TestSpectrumBinFrequencyInverse(t *testing.T) {
	s, err := NewSpectrum(44100, 2048)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	for k := 0; k < s.Bins(); k++ {
		if got := s.FrequencyToBin(s.BinToFrequency(k)); got != k {
			t.Fatalf("bin %d round-tripped to %d", k, got)
		}
	}
	if got := s.FrequencyToBin(1e9); got != s.Bins()-1 {
		t.Errorf("expected clamp to last bin, got %d", got)
	}
	if got := s.FrequencyToBin(-5); got != 0 {
		t.Errorf("expected clamp to bin 0, got %d", got)
	}
}

func TestSpectrumSettings(t *testing.T) {
	for _, size := range []int{16, 1000, 65536} {
		if _, err := NewSpectrum(48000, size); !errors.Is(err, ErrInvalidFFTSize) {
			t.Errorf("size %d: expected ErrInvalidFFTSize, got %v", size, err)
		}
	}

	s, err := NewSpectrum(48000, 256)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	s.SetSmoothing(1.5)
	if s.Smoothing() >= 0.99 {
		t.Errorf("expected smoothing below 0.99, got %v", s.Smoothing())
	}
	s.SetSmoothing(-1)
	if s.Smoothing() != 0 {
		t.Errorf("expected smoothing clamped to 0, got %v", s.Smoothing())
	}

	s.Push(audiotest.Constant(0.5, 512))
	s.Reset()
	if s.Ready() {
		t.Error("expected reset to clear the frame")
	}
}

func TestCorrelation(t *testing.T) {
	sine := audiotest.Sine(440, 0.5, 48000, 48000, 0)

	tests := []struct {
		name        string
		left, right []float32
		want        float64
		tol         float64
	}{
		{"identical", sine, sine, 1, 1e-9},
		{"inverted", sine, audiotest.Negate(sine), -1, 1e-9},
		{"silence", make([]float32, 4800), make([]float32, 4800), 0, 0},
		{"uncorrelated", audiotest.Noise(1, 0.5, 48000), audiotest.Noise(2, 0.5, 48000), 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCorrelation(48000, 0)
			c.Process(tt.left, tt.right)
			if got := c.Value(); math.Abs(got-tt.want) > tt.tol {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMetersDoNotAllocate(t *testing.T) {
	tp, err := NewTruePeak(2)
	if err != nil {
		t.Fatalf("NewTruePeak: %v", err)
	}
	c := NewCorrelation(48000, 0.3)
	block := audiotest.Sine(440, 0.5, 48000, 256, 0)

	allocs := testing.AllocsPerRun(100, func() {
		tp.ProcessStereo(block, block)
		c.Process(block, block)
	})
	if allocs != 0 {
		t.Errorf("expected 0 allocations, got %v", allocs)
	}
}
