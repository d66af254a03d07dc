// ABOUTME: Tests for the biquad filter
// ABOUTME: Checks cookbook magnitude responses against processed signals
package dsp

import (
	"math"
	"testing"
)

func TestLowPassCutoffIsMinus3dB(t *testing.T) {
	for _, sr := range []float64{22050, 44100, 48000, 96000} {
		for _, fc := range []float64{100, 1000, 5000} {
			lp := NewLowPass(sr, fc, 1/math.Sqrt2)
			pass := lp.MagnitudeDBAt(1, sr)
			cut := lp.MagnitudeDBAt(fc, sr)

			if d := cut - pass; math.Abs(d+3.0103) > 0.5 {
				t.Errorf("sr=%v fc=%v: expected -3 dB at cutoff, got %.3f dB", sr, fc, d)
			}
		}
	}
}

func TestLowPassMagnitudeAtCutoffEqualsQ(t *testing.T) {
	for _, q := range []float64{0.5, 0.7071, 1, 2, 5} {
		lp := NewLowPass(48000, 2000, q)
		if got := lp.MagnitudeAt(2000, 48000); math.Abs(got-q) > 1e-9 {
			t.Errorf("Q=%v: expected |H(fc)|=Q, got %v", q, got)
		}
	}
}

func TestBiquadSteadyStateMatchesMagnitude(t *testing.T) {
	const sr = 48000.0
	tests := []struct {
		name string
		f    *Biquad
		freq float64
	}{
		{"lowpass at cutoff", NewLowPass(sr, 1000, 0.7071), 1000},
		{"lowpass above cutoff", NewLowPass(sr, 1000, 0.7071), 4000},
		{"highpass", NewHighPass(sr, 1000, 0.7071), 500},
		{"peaking boost", NewPeaking(sr, 1000, 1, 6), 1000},
		{"low shelf", NewLowShelf(sr, 200, 0.7071, -6), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]float32, int(sr))
			for i := range buf {
				buf[i] = float32(math.Sin(2 * math.Pi * tt.freq * float64(i) / sr))
			}
			tt.f.ProcessBuffer(buf)

			var peak float64
			for _, s := range buf[len(buf)/2:] {
				peak = math.Max(peak, math.Abs(float64(s)))
			}

			want := tt.f.MagnitudeAt(tt.freq, sr)
			if math.Abs(peak-want) > 0.01 {
				t.Errorf("expected steady-state amplitude %.4f, got %.4f", want, peak)
			}
		})
	}
}

func TestShelfAndPeakingGains(t *testing.T) {
	const sr = 48000.0

	ls := NewLowShelf(sr, 100, 0.7071, 6)
	if got := ls.MagnitudeDBAt(5, sr); math.Abs(got-6) > 0.1 {
		t.Errorf("low shelf: expected +6 dB well below corner, got %.3f", got)
	}
	if got := ls.MagnitudeDBAt(10000, sr); math.Abs(got) > 0.1 {
		t.Errorf("low shelf: expected 0 dB well above corner, got %.3f", got)
	}

	hs := NewHighShelf(sr, 8000, 0.7071, -6)
	if got := hs.MagnitudeDBAt(23000, sr); math.Abs(got+6) > 0.3 {
		t.Errorf("high shelf: expected -6 dB near nyquist, got %.3f", got)
	}

	pk := NewPeaking(sr, 1000, 1, 9)
	if got := pk.MagnitudeDBAt(1000, sr); math.Abs(got-9) > 1e-6 {
		t.Errorf("peaking: expected +9 dB at centre, got %.6f", got)
	}
}

func TestNotchAndAllPass(t *testing.T) {
	const sr = 44100.0

	n := NewNotch(sr, 1000, 2)
	if got := n.MagnitudeAt(1000, sr); got > 1e-6 {
		t.Errorf("notch: expected zero at centre, got %v", got)
	}

	ap := NewAllPass(sr, 1000, 0.7071)
	for _, f := range []float64{20, 500, 1000, 5000, 20000} {
		if got := ap.MagnitudeAt(f, sr); math.Abs(got-1) > 1e-9 {
			t.Errorf("allpass: expected unit magnitude at %v Hz, got %v", f, got)
		}
	}
}

func TestBiquadProcessMatchesProcessBuffer(t *testing.T) {
	a := NewLowPass(48000, 3000, 0.9)
	b := NewLowPass(48000, 3000, 0.9)

	buf := make([]float32, 256)
	noise := NewNoise(White, 7)
	noise.Fill(buf)

	want := make([]float32, len(buf))
	for i, x := range buf {
		want[i] = a.Process(x)
	}
	b.ProcessBuffer(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: ProcessBuffer %v != Process %v", i, buf[i], want[i])
		}
	}
}

func TestBiquadReset(t *testing.T) {
	lp := NewLowPass(48000, 500, 0.7071)
	lp.Process(1)
	lp.Reset()

	if got := lp.Process(0); got != 0 {
		t.Errorf("expected silence after reset, got %v", got)
	}
}

func TestBiquadProcessDoesNotAllocate(t *testing.T) {
	lp := NewLowPass(48000, 500, 0.7071)
	buf := make([]float32, 512)

	allocs := testing.AllocsPerRun(100, func() {
		lp.ProcessBuffer(buf)
	})
	if allocs != 0 {
		t.Errorf("expected 0 allocations, got %v", allocs)
	}
}

func TestFilterTypeString(t *testing.T) {
	if LowShelf.String() != "lowshelf" || FilterType(99).String() != "unknown" {
		t.Error("unexpected filter type names")
	}
}
