// ABOUTME: Tests for the eight-band EQ
// ABOUTME: Checks flat response, band isolation and bounds
package dsp

import (
	"errors"
	"math"
	"testing"
)

func TestEQFlatByDefault(t *testing.T) {
	eq := NewEQ(48000)
	for _, f := range []float64{30, 100, 1000, 10000, 18000} {
		if got := eq.MagnitudeDBAt(f); math.Abs(got) > 1e-6 {
			t.Errorf("expected flat response at %v Hz, got %v dB", f, got)
		}
	}
}

func TestEQSetBandOnlyChangesThatBand(t *testing.T) {
	eq := NewEQ(48000)

	var before [NumEQBands]Coefficients
	for i := range before {
		before[i] = eq.BandCoefficients(i)
	}

	if err := eq.SetBand(3, 6); err != nil {
		t.Fatalf("SetBand failed: %v", err)
	}

	for i := range before {
		changed := eq.BandCoefficients(i) != before[i]
		if i == 3 && !changed {
			t.Error("expected band 3 coefficients to change")
		}
		if i != 3 && changed {
			t.Errorf("band %d changed unexpectedly", i)
		}
	}

	if got := eq.Band(3).GainDB; got != 6 {
		t.Errorf("expected stored gain 6, got %v", got)
	}
	if got := eq.MagnitudeDBAt(1000); math.Abs(got-6) > 0.5 {
		t.Errorf("expected about +6 dB at 1 kHz, got %v", got)
	}
}

func TestEQSetBandBounds(t *testing.T) {
	eq := NewEQ(44100)

	if err := eq.SetBand(NumEQBands, 3); !errors.Is(err, ErrBandIndex) {
		t.Errorf("expected ErrBandIndex, got %v", err)
	}
	if err := eq.SetBand(-1, 3); !errors.Is(err, ErrBandIndex) {
		t.Errorf("expected ErrBandIndex, got %v", err)
	}

	_ = eq.SetBand(0, 100)
	if eq.Band(0).GainDB != maxBandGainDB {
		t.Errorf("expected gain clamp at %v, got %v", maxBandGainDB, eq.Band(0).GainDB)
	}
}

func TestEQProcessFlatIsTransparent(t *testing.T) {
	eq := NewEQ(48000)
	buf := make([]float32, 64)
	buf[0] = 1
	eq.ProcessBuffer(buf)

	if math.Abs(float64(buf[0]-1)) > 1e-5 {
		t.Errorf("expected unit impulse through flat EQ, got %v", buf[0])
	}
	for i := 1; i < len(buf); i++ {
		if math.Abs(float64(buf[i])) > 1e-5 {
			t.Fatalf("expected no ringing at %d, got %v", i, buf[i])
		}
	}

	allocs := testing.AllocsPerRun(50, func() { eq.ProcessBuffer(buf) })
	if allocs != 0 {
		t.Errorf("expected 0 allocations, got %v", allocs)
	}
}
