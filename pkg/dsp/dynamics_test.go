// ABOUTME: Tests for the gate and compressor
// ABOUTME: Checks static curves, continuity and envelope behaviour
package dsp

import (
	"math"
	"testing"
)

func TestCompressorStaticCurveHardKnee(t *testing.T) {
	c := NewCompressor(48000, CompressorConfig{ThresholdDB: -12, Ratio: 4})

	tests := []struct {
		level float64
		want  float64
	}{
		{-40, 0},
		{-12, 0},
		{0, -9},
		{12, -18},
	}
	for _, tt := range tests {
		if got := c.GainDB(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("GainDB(%v): expected %v, got %v", tt.level, tt.want, got)
		}
	}
}

func TestCompressorCurveContinuousAtThreshold(t *testing.T) {
	for _, knee := range []float64{0, 6, 12} {
		c := NewCompressor(48000, CompressorConfig{ThresholdDB: -18, Ratio: 8, KneeDB: knee})

		points := []float64{-18, -18 - knee/2, -18 + knee/2}
		for _, p := range points {
			lo := c.GainDB(p - 1e-7)
			hi := c.GainDB(p + 1e-7)
			if math.Abs(hi-lo) > 1e-5 {
				t.Errorf("knee=%v: discontinuity at %v dB (%v vs %v)", knee, p, lo, hi)
			}
		}
	}
}

func TestCompressorConvergesToStaticCurve(t *testing.T) {
	c := NewCompressor(48000, CompressorConfig{ThresholdDB: -12, Ratio: 4, AttackMs: 1, ReleaseMs: 50})

	left := make([]float32, 48000)
	right := make([]float32, 48000)
	for i := range left {
		left[i] = 1
		right[i] = 1
	}
	c.ProcessStereo(left, right)

	if gr := c.GainReductionDB(); math.Abs(gr-9) > 0.01 {
		t.Errorf("expected 9 dB reduction, got %v", gr)
	}
	want := math.Pow(10, -9.0/20)
	if got := float64(left[len(left)-1]); math.Abs(got-want) > 0.01 {
		t.Errorf("expected output %v, got %v", want, got)
	}
	if left[len(left)-1] != right[len(right)-1] {
		t.Error("expected linked stereo gain")
	}

	c.Reset()
	if c.GainReductionDB() != 0 {
		t.Error("expected reset to clear gain reduction")
	}
}

func TestCompressorBelowThresholdIsUnity(t *testing.T) {
	c := NewCompressor(48000, CompressorConfig{ThresholdDB: -6, Ratio: 4})
	for i := 0; i < 1000; i++ {
		if got := c.Process(0.1); got != 0.1 {
			t.Fatalf("expected unity gain below threshold, got %v", got)
		}
	}
}

func TestGateClosesAfterHoldAndReopens(t *testing.T) {
	const sr = 48000
	g := NewGate(sr, GateConfig{ThresholdDB: -40, Ratio: 10, AttackMs: 1, ReleaseMs: 20, HoldMs: 10})

	tone := NewOscillator(Sine, 440, sr)
	buf := make([]float32, sr/10)

	tone.Fill(buf)
	g.ProcessBuffer(buf)
	if g.Gain() < 0.99 {
		t.Fatalf("expected gate open during signal, gain %v", g.Gain())
	}

	silence := make([]float32, sr*3/10)
	g.ProcessBuffer(silence)
	if g.IsOpen() || g.Gain() > 0.01 {
		t.Fatalf("expected gate closed after silence, gain %v", g.Gain())
	}

	tone.Fill(buf[:sr/20])
	g.ProcessBuffer(buf[:sr/20])
	if g.Gain() < 0.99 {
		t.Errorf("expected gate to reopen, gain %v", g.Gain())
	}
}

func TestGateHoldDelaysClosing(t *testing.T) {
	const sr = 48000
	g := NewGate(sr, GateConfig{ThresholdDB: -20, AttackMs: 0.1, ReleaseMs: 0.1, HoldMs: 100})

	loud := make([]float32, 480)
	for i := range loud {
		loud[i] = 0.9
	}
	g.ProcessBuffer(loud)

	// 50 ms of silence is within the hold window
	g.ProcessBuffer(make([]float32, sr/20))
	if !g.IsOpen() {
		t.Errorf("expected gate held open, gain %v", g.Gain())
	}

	g.ProcessBuffer(make([]float32, sr/10))
	if g.IsOpen() {
		t.Errorf("expected gate closed after hold, gain %v", g.Gain())
	}
}

func TestCompressorZeroThresholdViaSetter(t *testing.T) {
	c := NewCompressor(48000, CompressorConfig{Ratio: 4})
	if got := c.Config().ThresholdDB; got != -12 {
		t.Fatalf("expected zero threshold in config to mean -12, got %v", got)
	}

	c.SetThreshold(0)
	tests := []struct {
		levelDB float64
		want    float64
	}{
		{-1, 0},
		{0, 0},
		{6, -4.5},
	}
	for _, tt := range tests {
		if got := c.GainDB(tt.levelDB); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("level %v dB: expected %v, got %v", tt.levelDB, tt.want, got)
		}
	}
}
